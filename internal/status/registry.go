// Package status manages the ordered status options stored inside a request
// type's status field setting.
package status

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tejzpr/fieldschema-mcp/internal/schema"
)

// DefaultValues apply when a request type configures no status options.
var DefaultValues = []string{"PENDING", "APPROVED", "PAID", "REJECTED", "COMPLETED", "CANCELED"}

var (
	ErrIndexOutOfRange = errors.New("status option index out of range")
	ErrEmptyValue      = errors.New("status option value must not be empty")
	ErrBadDirection    = errors.New("direction must be up or down")
)

// DuplicateStatusValueError reports a status value already used by another option.
type DuplicateStatusValueError struct {
	Value string
}

func (e *DuplicateStatusValueError) Error() string {
	return fmt.Sprintf("status value %q already exists", e.Value)
}

// Direction is the neighbour a Move swaps with.
type Direction int

const (
	Up   Direction = -1
	Down Direction = 1
)

// ParseDirection accepts "up" or "down".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrBadDirection, s)
}

// Patch holds the option attributes an Update changes. Nil means unchanged.
type Patch struct {
	Value *string `json:"value,omitempty"`
	Label *string `json:"label,omitempty"`
	Color *string `json:"color,omitempty"`
}

// Registry is an editable, display-ordered copy of a status option list.
// It is not safe for concurrent use.
type Registry struct {
	options []schema.StatusOption
}

// FromSetting loads the options of a status setting, sorted by their Order
// with ties kept in storage order, and renumbers them 0..n-1.
func FromSetting(s schema.FieldSetting) *Registry {
	opts := append([]schema.StatusOption(nil), s.Options...)
	sort.SliceStable(opts, func(i, j int) bool { return opts[i].Order < opts[j].Order })
	r := &Registry{options: opts}
	r.renumber()
	return r
}

// Normalize returns s with its options trimmed, in display order and
// renumbered. It fails on an empty value or a value used twice.
func Normalize(s schema.FieldSetting) (schema.FieldSetting, error) {
	r := &Registry{}
	for _, o := range FromSetting(s).options {
		if err := r.Add(o); err != nil {
			return s, err
		}
	}
	return r.Apply(s), nil
}

// Allowed returns the values a submission's status may take under s.
func Allowed(s schema.FieldSetting) []string {
	if len(s.Options) == 0 {
		return append([]string(nil), DefaultValues...)
	}
	values := FromSetting(s).Values()
	for i, v := range values {
		values[i] = strings.TrimSpace(v)
	}
	return values
}

func (r *Registry) renumber() {
	for i := range r.options {
		r.options[i].Order = i
	}
}

func (r *Registry) sort() {
	sort.SliceStable(r.options, func(i, j int) bool { return r.options[i].Order < r.options[j].Order })
	r.renumber()
}

func (r *Registry) checkIndex(index int) error {
	if index < 0 || index >= len(r.options) {
		return fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, index, len(r.options))
	}
	return nil
}

func (r *Registry) indexOf(value string) int {
	for i, o := range r.options {
		if o.Value == value {
			return i
		}
	}
	return -1
}

// Len returns the number of options.
func (r *Registry) Len() int { return len(r.options) }

// Options returns the options in display order.
func (r *Registry) Options() []schema.StatusOption {
	return append([]schema.StatusOption(nil), r.options...)
}

// Values returns the option values in display order.
func (r *Registry) Values() []string {
	out := make([]string, len(r.options))
	for i, o := range r.options {
		out[i] = o.Value
	}
	return out
}

// Add appends opt at the end of the display order.
func (r *Registry) Add(opt schema.StatusOption) error {
	opt.Value = strings.TrimSpace(opt.Value)
	if opt.Value == "" {
		return ErrEmptyValue
	}
	if r.indexOf(opt.Value) >= 0 {
		return &DuplicateStatusValueError{Value: opt.Value}
	}
	opt.Order = len(r.options)
	r.options = append(r.options, opt)
	return nil
}

// Remove deletes the option at display position index.
func (r *Registry) Remove(index int) error {
	if err := r.checkIndex(index); err != nil {
		return err
	}
	r.options = append(r.options[:index], r.options[index+1:]...)
	r.renumber()
	return nil
}

// Move exchanges the display order of the option at index with its
// neighbour in dir. Moving past either end is a no-op.
func (r *Registry) Move(index int, dir Direction) error {
	if err := r.checkIndex(index); err != nil {
		return err
	}
	if dir != Up && dir != Down {
		return ErrBadDirection
	}
	other := index + int(dir)
	if other < 0 || other >= len(r.options) {
		return nil
	}
	r.options[index].Order, r.options[other].Order = r.options[other].Order, r.options[index].Order
	r.sort()
	return nil
}

// Update applies patch to the option at index.
func (r *Registry) Update(index int, patch Patch) error {
	if err := r.checkIndex(index); err != nil {
		return err
	}
	opt := r.options[index]
	if patch.Value != nil {
		v := strings.TrimSpace(*patch.Value)
		if v == "" {
			return ErrEmptyValue
		}
		if i := r.indexOf(v); i >= 0 && i != index {
			return &DuplicateStatusValueError{Value: v}
		}
		opt.Value = v
	}
	if patch.Label != nil {
		opt.Label = *patch.Label
	}
	if patch.Color != nil {
		opt.Color = *patch.Color
	}
	r.options[index] = opt
	return nil
}

// Apply returns s with its options replaced by the registry's.
func (r *Registry) Apply(s schema.FieldSetting) schema.FieldSetting {
	s.Options = r.Options()
	return s
}
