package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// FieldConfig is the effective schema of a request type: the complete set of
// standard fields plus the type's custom fields. Values are only produced by
// Merge or Build and every modifier returns a new FieldConfig.
type FieldConfig struct {
	standard map[string]FieldSetting
	custom   map[string]FieldSetting
}

// Merge combines a stored configuration with the default standard schema.
// Reserved keys take the stored value when present and the default otherwise;
// any other key is routed to the custom map. Title is always enabled and
// required in the result.
func Merge(stored RawConfig) FieldConfig {
	cfg := FieldConfig{
		standard: make(map[string]FieldSetting, len(StandardKeys)),
		custom:   make(map[string]FieldSetting),
	}
	for _, k := range StandardKeys {
		if s, ok := stored[k]; ok {
			cfg.standard[k] = s.clone()
		} else {
			cfg.standard[k] = defaultStandardSchema[k].clone()
		}
	}
	for k, s := range stored {
		if !IsStandardKey(k) {
			cfg.custom[k] = s.clone()
		}
	}

	title := cfg.standard[KeyTitle]
	title.Enabled = true
	title.Required = true
	cfg.standard[KeyTitle] = title

	return cfg
}

// Build validates a submitted configuration and merges it. It fails with
// ImmutableFieldViolation if title is disabled or optional, and with
// DuplicateFieldKeyError if a custom key collides, ignoring case, with a
// reserved key or another custom key. extra custom fields are registered
// after the ones already present in raw.
func Build(raw RawConfig, extra ...CustomField) (FieldConfig, error) {
	if err := CheckImmutable(raw); err != nil {
		return FieldConfig{}, err
	}

	standard := make(RawConfig, len(StandardKeys))
	var customKeys []string
	for k, s := range raw {
		if IsStandardKey(k) {
			standard[k] = s
			continue
		}
		customKeys = append(customKeys, k)
	}
	sort.Strings(customKeys)

	cfg := Merge(standard)
	for _, k := range customKeys {
		next, err := cfg.WithCustomField(k, raw[k])
		if err != nil {
			return FieldConfig{}, err
		}
		cfg = next
	}
	for _, f := range extra {
		next, err := cfg.WithCustomField(f.Key, f.Setting)
		if err != nil {
			return FieldConfig{}, err
		}
		cfg = next
	}
	return cfg, nil
}

// CheckImmutable rejects a configuration that turns title off or makes it optional.
func CheckImmutable(raw RawConfig) error {
	t, ok := raw[KeyTitle]
	if !ok {
		return nil
	}
	if !t.Enabled {
		return &ImmutableFieldViolation{Key: KeyTitle, Message: "cannot be disabled"}
	}
	if !t.Required {
		return &ImmutableFieldViolation{Key: KeyTitle, Message: "cannot be made optional"}
	}
	return nil
}

// WithCustomField returns a copy of c with a new custom field registered.
// c is never modified.
func (c FieldConfig) WithCustomField(key string, s FieldSetting) (FieldConfig, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return FieldConfig{}, ErrEmptyFieldKey
	}
	if reserved, ok := reservedFold(key); ok {
		return FieldConfig{}, &DuplicateFieldKeyError{Key: key, Conflict: reserved, Reserved: true}
	}
	for existing := range c.custom {
		if strings.EqualFold(existing, key) {
			return FieldConfig{}, &DuplicateFieldKeyError{Key: key, Conflict: existing}
		}
	}
	if s.Type == "" {
		s.Type = TypeText
	}
	if !customTypes[s.Type] {
		return FieldConfig{}, fmt.Errorf("custom field %q: %w %q", key, ErrUnknownFieldType, s.Type)
	}
	s.Options = nil

	out := c.clone()
	out.custom[key] = s.clone()
	return out, nil
}

// WithoutCustomField returns a copy of c without the given custom key.
// The boolean is false when the key was not a custom field of c.
func (c FieldConfig) WithoutCustomField(key string) (FieldConfig, bool) {
	if _, ok := c.custom[key]; !ok {
		return c, false
	}
	out := c.clone()
	delete(out.custom, key)
	return out, true
}

// WithSetting returns a copy of c with the setting for an existing key
// replaced. Title may not be disabled or made optional.
func (c FieldConfig) WithSetting(key string, s FieldSetting) (FieldConfig, error) {
	if key == KeyTitle {
		if err := CheckImmutable(RawConfig{KeyTitle: s}); err != nil {
			return FieldConfig{}, err
		}
	}
	out := c.clone()
	switch {
	case IsStandardKey(key):
		out.standard[key] = s.clone()
	default:
		if _, ok := out.custom[key]; !ok {
			return FieldConfig{}, fmt.Errorf("field %q is not defined", key)
		}
		out.custom[key] = s.clone()
	}
	return out, nil
}

func (c FieldConfig) clone() FieldConfig {
	out := FieldConfig{
		standard: make(map[string]FieldSetting, len(c.standard)),
		custom:   make(map[string]FieldSetting, len(c.custom)),
	}
	for k, s := range c.standard {
		out.standard[k] = s.clone()
	}
	for k, s := range c.custom {
		out.custom[k] = s.clone()
	}
	return out
}

// Standard returns a copy of the standard-field map.
func (c FieldConfig) Standard() RawConfig {
	return RawConfig(c.standard).Clone()
}

// Custom returns a copy of the custom-field map.
func (c FieldConfig) Custom() RawConfig {
	out := RawConfig(c.custom).Clone()
	if out == nil {
		out = RawConfig{}
	}
	return out
}

// Lookup returns the setting of a standard or custom key.
func (c FieldConfig) Lookup(key string) (FieldSetting, bool) {
	if s, ok := c.standard[key]; ok {
		return s.clone(), true
	}
	s, ok := c.custom[key]
	return s.clone(), ok
}

// IsCustom reports whether key is one of c's custom fields.
func (c FieldConfig) IsCustom(key string) bool {
	_, ok := c.custom[key]
	return ok
}

// Flatten serialises c back to storage form (standard ∪ custom).
func (c FieldConfig) Flatten() RawConfig {
	out := make(RawConfig, len(c.standard)+len(c.custom))
	for k, s := range c.standard {
		out[k] = s.clone()
	}
	for k, s := range c.custom {
		out[k] = s.clone()
	}
	return out
}

// Keys lists every field key in display order: explicit order first,
// then standard keys in canonical order, then custom keys by name.
func (c FieldConfig) Keys() []string {
	keys := make([]string, 0, len(c.standard)+len(c.custom))
	for _, k := range StandardKeys {
		if _, ok := c.standard[k]; ok {
			keys = append(keys, k)
		}
	}
	custom := make([]string, 0, len(c.custom))
	for k := range c.custom {
		custom = append(custom, k)
	}
	sort.Strings(custom)
	keys = append(keys, custom...)

	sort.SliceStable(keys, func(i, j int) bool {
		oi, iok := c.order(keys[i])
		oj, jok := c.order(keys[j])
		if iok != jok {
			return iok
		}
		return iok && oi < oj
	})
	return keys
}

func (c FieldConfig) order(key string) (int, bool) {
	s, _ := c.Lookup(key)
	if s.Order == nil {
		return 0, false
	}
	return *s.Order, true
}

type fieldConfigJSON struct {
	Standard RawConfig `json:"standard"`
	Custom   RawConfig `json:"custom"`
}

// MarshalJSON renders the {standard, custom} pair.
func (c FieldConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(fieldConfigJSON{Standard: c.Standard(), Custom: c.Custom()})
}

// UnmarshalJSON accepts the {standard, custom} pair and re-merges it, so a
// decoded FieldConfig obeys the same guarantees as one built by Merge.
func (c *FieldConfig) UnmarshalJSON(data []byte) error {
	var in fieldConfigJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	raw := make(RawConfig, len(in.Standard)+len(in.Custom))
	for k, s := range in.Custom {
		raw[k] = s
	}
	for k, s := range in.Standard {
		raw[k] = s
	}
	*c = Merge(raw)
	return nil
}
