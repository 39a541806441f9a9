package validation

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/tejzpr/fieldschema-mcp/internal/schema"
	"github.com/tejzpr/fieldschema-mcp/internal/status"
)

var timeLayouts = []string{"15:04", "15:04:05"}

// blank reports whether a submitted value counts as not supplied.
func blank(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case *string:
		return v == nil || strings.TrimSpace(*v) == ""
	}
	return false
}

// coerce converts a non-blank submitted value to the typed variant of the
// field's semantic type, or explains why it cannot.
func coerce(key string, s schema.FieldSetting, raw any) (schema.Value, *FieldError) {
	fail := func(code Code, format string, args ...any) (schema.Value, *FieldError) {
		return schema.Value{}, &FieldError{Field: key, Label: s.Label, Code: code, Message: fmt.Sprintf(format, args...)}
	}

	switch t := schema.TypeOf(key, s); t {
	case schema.TypeNumber, schema.TypeReference:
		if _, isBool := raw.(bool); isBool {
			return fail(CodeInvalidType, "must be a number")
		}
		n, err := cast.ToFloat64E(raw)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return fail(CodeInvalidType, "must be a number")
		}
		if t == schema.TypeReference {
			if n <= 0 || n != math.Trunc(n) || n >= math.MaxInt64 {
				return fail(CodeInvalidType, "must be a positive id")
			}
		} else if key == schema.KeyAmount && n <= 0 {
			return fail(CodeNotPositive, "must be greater than zero")
		}
		return schema.NumberValue(n), nil

	case schema.TypeDate:
		switch v := raw.(type) {
		case time.Time:
			return schema.DateValue(v), nil
		case string:
			d, err := cast.ToTimeE(strings.TrimSpace(v))
			if err != nil {
				return fail(CodeInvalidDate, "must be a date")
			}
			return schema.DateValue(d), nil
		}
		return fail(CodeInvalidDate, "must be a date")

	case schema.TypeBoolean:
		switch v := raw.(type) {
		case bool:
			return schema.BoolValue(v), nil
		case string:
			b, err := cast.ToBoolE(strings.TrimSpace(v))
			if err != nil {
				return fail(CodeInvalidType, "must be true or false")
			}
			return schema.BoolValue(b), nil
		}
		return fail(CodeInvalidType, "must be true or false")

	case schema.TypeTime:
		str, ok := raw.(string)
		if !ok {
			return fail(CodeInvalidTime, "must be a time of day (HH:MM)")
		}
		str = strings.TrimSpace(str)
		for _, layout := range timeLayouts {
			if _, err := time.Parse(layout, str); err == nil {
				return schema.StringValue(str), nil
			}
		}
		return fail(CodeInvalidTime, "must be a time of day (HH:MM)")

	case schema.TypeStatus:
		str, ok := raw.(string)
		if !ok {
			return fail(CodeInvalidStatus, "must be a status value")
		}
		str = strings.TrimSpace(str)
		allowed := status.Allowed(s)
		if !slices.Contains(allowed, str) {
			return fail(CodeInvalidStatus, "must be one of %s", strings.Join(allowed, ", "))
		}
		return schema.StringValue(str), nil

	default:
		switch v := raw.(type) {
		case string:
			return schema.StringValue(strings.TrimSpace(v)), nil
		case *string:
			return schema.StringValue(strings.TrimSpace(*v)), nil
		}
		return fail(CodeInvalidType, "must be text")
	}
}
