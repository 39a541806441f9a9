package validation

import (
	"fmt"
	"strings"
)

// Code classifies why a field was rejected.
type Code string

const (
	CodeRequired      Code = "required"
	CodeInvalidType   Code = "invalid_type"
	CodeNotPositive   Code = "not_positive"
	CodeInvalidDate   Code = "invalid_date"
	CodeInvalidTime   Code = "invalid_time"
	CodeInvalidStatus Code = "invalid_status"
)

// FieldError describes one offending field of a submission.
type FieldError struct {
	Field   string `json:"field"`
	Label   string `json:"label,omitempty"`
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Errors is the ordered list of field errors of one submission.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields returns the offending field keys in report order.
func (e Errors) Fields() []string {
	out := make([]string, len(e))
	for i, fe := range e {
		out[i] = fe.Field
	}
	return out
}
