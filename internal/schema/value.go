package schema

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind tags the variant held by a Value.
type Kind string

const (
	KindString Kind = "string"
	KindNumber Kind = "number"
	KindBool   Kind = "bool"
	KindDate   Kind = "date"
)

// KindOf maps a field's semantic type to the Value variant that stores it.
func KindOf(t FieldType) Kind {
	switch t {
	case TypeNumber, TypeReference:
		return KindNumber
	case TypeBoolean:
		return KindBool
	case TypeDate:
		return KindDate
	default:
		return KindString
	}
}

// Value is a typed entry of a request's customFields bag.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	Bool bool
	Date time.Time
}

func StringValue(s string) Value  { return Value{Kind: KindString, Str: s} }
func NumberValue(n float64) Value { return Value{Kind: KindNumber, Num: n} }
func BoolValue(b bool) Value      { return Value{Kind: KindBool, Bool: b} }
func DateValue(t time.Time) Value { return Value{Kind: KindDate, Date: t.UTC()} }

// Interface returns the held value as a plain Go value.
func (v Value) Interface() any {
	switch v.Kind {
	case KindNumber:
		return v.Num
	case KindBool:
		return v.Bool
	case KindDate:
		return v.Date
	default:
		return v.Str
	}
}

type valueJSON struct {
	Kind  Kind            `json:"kind"`
	Value json.RawMessage `json:"value"`
}

func (v Value) MarshalJSON() ([]byte, error) {
	var (
		raw []byte
		err error
	)
	switch v.Kind {
	case KindString:
		raw, err = json.Marshal(v.Str)
	case KindNumber:
		raw, err = json.Marshal(v.Num)
	case KindBool:
		raw, err = json.Marshal(v.Bool)
	case KindDate:
		raw, err = json.Marshal(v.Date.UTC().Format(time.RFC3339))
	default:
		return nil, fmt.Errorf("value: unknown kind %q", v.Kind)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(valueJSON{Kind: v.Kind, Value: raw})
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var in valueJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	out := Value{Kind: in.Kind}
	var err error
	switch in.Kind {
	case KindString:
		err = json.Unmarshal(in.Value, &out.Str)
	case KindNumber:
		err = json.Unmarshal(in.Value, &out.Num)
	case KindBool:
		err = json.Unmarshal(in.Value, &out.Bool)
	case KindDate:
		var s string
		if err = json.Unmarshal(in.Value, &s); err == nil {
			out.Date, err = time.Parse(time.RFC3339, s)
		}
	default:
		return fmt.Errorf("value: unknown kind %q", in.Kind)
	}
	if err != nil {
		return fmt.Errorf("value %s: %w", in.Kind, err)
	}
	*v = out
	return nil
}
