package schema

import "strings"

// Standard field keys shared by every request type.
const (
	KeyTitle            = "title"
	KeyDescription      = "description"
	KeyAmount           = "amount"
	KeyEffectiveDate    = "effectiveDate"
	KeyBeneficiaryName  = "beneficiaryName"
	KeyBeneficiaryPhone = "beneficiaryPhone"
	KeyContactID        = "contactId"
	KeyGroupID          = "groupId"
	KeyStatus           = "status"
	KeyTimeField        = "timeField"
	KeyToggleField      = "toggleField"
)

// StandardKeys lists the reserved keys in their canonical display order.
var StandardKeys = []string{
	KeyTitle,
	KeyDescription,
	KeyAmount,
	KeyEffectiveDate,
	KeyBeneficiaryName,
	KeyBeneficiaryPhone,
	KeyContactID,
	KeyGroupID,
	KeyStatus,
	KeyTimeField,
	KeyToggleField,
}

var standardIndex = func() map[string]int {
	m := make(map[string]int, len(StandardKeys))
	for i, k := range StandardKeys {
		m[k] = i
	}
	return m
}()

// IsStandardKey reports whether key is one of the reserved keys (exact match).
func IsStandardKey(key string) bool {
	_, ok := standardIndex[key]
	return ok
}

// reservedFold returns the reserved key equal to key ignoring case, if any.
func reservedFold(key string) (string, bool) {
	for _, k := range StandardKeys {
		if strings.EqualFold(k, key) {
			return k, true
		}
	}
	return "", false
}

// FieldType is the semantic type of a field's value.
type FieldType string

const (
	TypeText      FieldType = "text"
	TypeNumber    FieldType = "number"
	TypeDate      FieldType = "date"
	TypeBoolean   FieldType = "boolean"
	TypeTime      FieldType = "time"
	TypeStatus    FieldType = "status"
	TypeReference FieldType = "reference"
)

// customTypes are the types an administrator may pick for a custom field.
var customTypes = map[FieldType]bool{
	TypeText:    true,
	TypeNumber:  true,
	TypeDate:    true,
	TypeBoolean: true,
	TypeTime:    true,
}

var standardTypes = map[string]FieldType{
	KeyTitle:            TypeText,
	KeyDescription:      TypeText,
	KeyAmount:           TypeNumber,
	KeyEffectiveDate:    TypeDate,
	KeyBeneficiaryName:  TypeText,
	KeyBeneficiaryPhone: TypeText,
	KeyContactID:        TypeReference,
	KeyGroupID:          TypeReference,
	KeyStatus:           TypeStatus,
	KeyTimeField:        TypeTime,
	KeyToggleField:      TypeBoolean,
}

// TypeOf resolves the semantic type of a field. Standard keys have a fixed
// type; custom keys use their declared type and default to text.
func TypeOf(key string, s FieldSetting) FieldType {
	if t, ok := standardTypes[key]; ok {
		return t
	}
	if customTypes[s.Type] {
		return s.Type
	}
	return TypeText
}

// StatusOption is one allowed status value of a request type.
type StatusOption struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
	Color string `json:"color" yaml:"color"`
	Order int    `json:"order" yaml:"order"`
}

// FieldSetting describes the visibility, requiredness and presentation of one field.
type FieldSetting struct {
	Enabled  bool           `json:"enabled" yaml:"enabled"`
	Required bool           `json:"required" yaml:"required"`
	Label    string         `json:"label" yaml:"label"`
	Order    *int           `json:"order,omitempty" yaml:"order,omitempty"`
	Type     FieldType      `json:"type,omitempty" yaml:"type,omitempty"`
	Options  []StatusOption `json:"options,omitempty" yaml:"options,omitempty"`
}

// Active reports whether the field must be supplied on submission.
func (s FieldSetting) Active() bool {
	return s.Enabled && s.Required
}

func (s FieldSetting) clone() FieldSetting {
	out := s
	if s.Order != nil {
		o := *s.Order
		out.Order = &o
	}
	if s.Options != nil {
		out.Options = append([]StatusOption(nil), s.Options...)
	}
	return out
}

// RawConfig is a stored, possibly partial, field configuration.
type RawConfig map[string]FieldSetting

// Clone returns a deep copy.
func (r RawConfig) Clone() RawConfig {
	if r == nil {
		return nil
	}
	out := make(RawConfig, len(r))
	for k, v := range r {
		out[k] = v.clone()
	}
	return out
}

// CustomField pairs an administrator-chosen key with its setting.
type CustomField struct {
	Key     string       `json:"key"`
	Setting FieldSetting `json:"setting"`
}
