// Package validation checks request submissions against the effective schema
// of their request type.
package validation

import (
	"sort"

	"github.com/tejzpr/fieldschema-mcp/internal/schema"
)

// KeySubGroupID carries the optional subgroup reference alongside groupId.
const KeySubGroupID = "subGroupId"

// Payload is a submitted request: standard keys in Fields and custom keys in
// CustomFields.
type Payload struct {
	Fields       map[string]any `json:"fields"`
	CustomFields map[string]any `json:"customFields"`
}

func (p Payload) lookup(cfg schema.FieldConfig, key string) (any, bool) {
	if cfg.IsCustom(key) {
		v, ok := p.CustomFields[key]
		return v, ok
	}
	v, ok := p.Fields[key]
	return v, ok
}

// Validate returns one error per enabled and required field whose value is
// absent or not valid for its type, in display order. Title is always
// checked. An empty result means the payload is acceptable.
func Validate(cfg schema.FieldConfig, p Payload) Errors {
	var errs Errors

	title, ok := cfg.Lookup(schema.KeyTitle)
	if !ok {
		title = schema.FieldSetting{Label: "Title"}
	}
	title.Enabled, title.Required = true, true
	if fe := check(schema.KeyTitle, title, p.Fields[schema.KeyTitle]); fe != nil {
		errs = append(errs, *fe)
	}

	for _, key := range cfg.Keys() {
		if key == schema.KeyTitle {
			continue
		}
		s, _ := cfg.Lookup(key)
		if !s.Active() {
			continue
		}
		raw, _ := p.lookup(cfg, key)
		if fe := check(key, s, raw); fe != nil {
			errs = append(errs, *fe)
		}
	}
	return errs
}

func check(key string, s schema.FieldSetting, raw any) *FieldError {
	if blank(raw) {
		return &FieldError{Field: key, Label: s.Label, Code: CodeRequired, Message: "is required"}
	}
	_, fe := coerce(key, s, raw)
	return fe
}

// Record is a submission reduced to the enabled fields of its schema, with
// every value converted to its typed variant.
type Record struct {
	Standard   map[string]schema.Value
	Custom     map[string]schema.Value
	SubGroupID *uint
}

// String returns a standard text value or "".
func (r Record) String(key string) string {
	if v, ok := r.Standard[key]; ok && v.Kind == schema.KindString {
		return v.Str
	}
	return ""
}

// ID returns a standard reference value.
func (r Record) ID(key string) *uint {
	if v, ok := r.Standard[key]; ok && v.Kind == schema.KindNumber {
		id := uint(v.Num)
		return &id
	}
	return nil
}

// Number returns a standard numeric value.
func (r Record) Number(key string) *float64 {
	if v, ok := r.Standard[key]; ok && v.Kind == schema.KindNumber {
		n := v.Num
		return &n
	}
	return nil
}

// Normalize strips every disabled field from p and converts the remaining
// non-blank values. Values of enabled but optional fields that cannot be
// converted are reported; required fields are left to Validate.
func Normalize(cfg schema.FieldConfig, p Payload) (Record, Errors) {
	rec := Record{
		Standard: make(map[string]schema.Value),
		Custom:   make(map[string]schema.Value),
	}
	var errs Errors

	for _, key := range cfg.Keys() {
		s, _ := cfg.Lookup(key)
		if !s.Enabled && key != schema.KeyTitle {
			continue
		}
		raw, _ := p.lookup(cfg, key)
		if blank(raw) {
			continue
		}
		v, fe := coerce(key, s, raw)
		if fe != nil {
			if !s.Active() && key != schema.KeyTitle {
				errs = append(errs, *fe)
			}
			continue
		}
		if cfg.IsCustom(key) {
			rec.Custom[key] = v
		} else {
			rec.Standard[key] = v
		}
	}

	if group, _ := cfg.Lookup(schema.KeyGroupID); group.Enabled {
		if raw := p.Fields[KeySubGroupID]; !blank(raw) {
			sub := schema.FieldSetting{Label: "Subgroup"}
			v, fe := coerce(schema.KeyGroupID, sub, raw)
			if fe != nil {
				fe.Field = KeySubGroupID
				errs = append(errs, *fe)
			} else {
				id := uint(v.Num)
				rec.SubGroupID = &id
			}
		}
	}
	return rec, errs
}

// Prepare validates p and normalizes it in one step. All field errors, from
// required and optional fields alike, are returned together in display order.
func Prepare(cfg schema.FieldConfig, p Payload) (Record, Errors) {
	errs := Validate(cfg, p)
	rec, optional := Normalize(cfg, p)
	if len(optional) == 0 {
		return rec, errs
	}

	all := append(errs, optional...)
	rank := make(map[string]int)
	for i, k := range cfg.Keys() {
		rank[k] = i
	}
	pos := func(field string) int {
		if field == schema.KeyTitle {
			return -1
		}
		if field == KeySubGroupID {
			return rank[schema.KeyGroupID]
		}
		return rank[field]
	}
	sort.SliceStable(all, func(i, j int) bool { return pos(all[i].Field) < pos(all[j].Field) })
	return rec, all
}

// Report is the outcome of a dry-run check. Errors lists the enabled and
// required fields that are absent or invalid, and decides Valid. Warnings
// lists optional values that would be rejected on submit.
type Report struct {
	Valid    bool   `json:"valid"`
	Errors   Errors `json:"errors"`
	Warnings Errors `json:"warnings"`
}

// Check validates p without storing anything.
func Check(cfg schema.FieldConfig, p Payload) Report {
	errs := Validate(cfg, p)
	_, warnings := Normalize(cfg, p)
	if errs == nil {
		errs = Errors{}
	}
	if warnings == nil {
		warnings = Errors{}
	}
	return Report{Valid: len(errs) == 0, Errors: errs, Warnings: warnings}
}
