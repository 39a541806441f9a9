package schema

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyFieldKey    = errors.New("field key must not be empty")
	ErrUnknownFieldType = errors.New("unknown field type")
)

// DuplicateFieldKeyError reports a custom key that collides with a reserved
// key or with another custom key of the same request type.
type DuplicateFieldKeyError struct {
	Key      string
	Conflict string
	Reserved bool
}

func (e *DuplicateFieldKeyError) Error() string {
	if e.Reserved {
		return fmt.Sprintf("field key %q collides with standard field %q", e.Key, e.Conflict)
	}
	return fmt.Sprintf("custom field key %q already exists as %q", e.Key, e.Conflict)
}

// ImmutableFieldViolation reports an attempt to disable or un-require a
// field whose configuration is fixed.
type ImmutableFieldViolation struct {
	Key     string
	Message string
}

func (e *ImmutableFieldViolation) Error() string {
	return fmt.Sprintf("field %s is immutable: %s", e.Key, e.Message)
}
