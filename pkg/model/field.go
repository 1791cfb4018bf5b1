package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// FieldKind enumerates the input domains supported by intake forms.
type FieldKind string

const (
	FieldKindNumeric     FieldKind = "numeric"
	FieldKindCategorical FieldKind = "categorical"
)

var (
	// ErrRequired is returned by Check when a required field holds no value.
	ErrRequired = errors.New("value is required")
	// ErrOutOfRange is returned by Check when a number falls outside [Min, Max].
	ErrOutOfRange = errors.New("value out of range")
)

// Option is one (code, label) pair of a categorical field. Codes are what
// the prediction service receives; labels are what people read.
type Option struct {
	Code  string `json:"code" yaml:"code"`
	Label string `json:"label" yaml:"label"`
}

// FieldSpec describes a single intake input.
type FieldSpec struct {
	Name     string    `json:"name" yaml:"name"`
	Label    string    `json:"label" yaml:"label"`
	Kind     FieldKind `json:"kind" yaml:"kind"`
	Help     string    `json:"help,omitempty" yaml:"help,omitempty"`
	Min      *float64  `json:"min,omitempty" yaml:"min,omitempty"`
	Max      *float64  `json:"max,omitempty" yaml:"max,omitempty"`
	Step     float64   `json:"step,omitempty" yaml:"step,omitempty"`
	Required bool      `json:"required,omitempty" yaml:"required,omitempty"`
	Options  []Option  `json:"options,omitempty" yaml:"options,omitempty"`
	// Default overrides the seeded value. Categorical fields fall back to
	// their first option code, numeric fields to the empty placeholder.
	Default string `json:"default,omitempty" yaml:"default,omitempty"`
}

// Numeric declares a numeric field bounded by [min, max].
func Numeric(name, label string, min, max float64) FieldSpec {
	return FieldSpec{
		Name:  name,
		Label: label,
		Kind:  FieldKindNumeric,
		Min:   &min,
		Max:   &max,
	}
}

// Categorical declares an enumerated field. Options keep their declared order.
func Categorical(name, label string, options ...Option) FieldSpec {
	return FieldSpec{
		Name:    name,
		Label:   label,
		Kind:    FieldKindCategorical,
		Options: append([]Option(nil), options...),
	}
}

// WithStep returns a copy of the spec using the given input granularity.
func (f FieldSpec) WithStep(step float64) FieldSpec {
	f.Step = step
	return f
}

// AsRequired returns a copy of the spec marked as a required constraint.
func (f FieldSpec) AsRequired() FieldSpec {
	f.Required = true
	return f
}

// IsNumeric reports whether the field accepts numbers.
func (f FieldSpec) IsNumeric() bool {
	return f.Kind == FieldKindNumeric
}

// HasOption reports whether code is one of the declared option codes.
func (f FieldSpec) HasOption(code string) bool {
	_, ok := f.OptionIndex(code)
	return ok
}

// OptionIndex returns the position of code within Options.
func (f FieldSpec) OptionIndex(code string) (int, bool) {
	for i, opt := range f.Options {
		if opt.Code == code {
			return i, true
		}
	}
	return -1, false
}

// OptionLabel resolves the human label of a code, falling back to the code.
func (f FieldSpec) OptionLabel(code string) string {
	if idx, ok := f.OptionIndex(code); ok {
		return f.Options[idx].Label
	}
	return code
}

// DefaultValue returns the value a fresh form seeds this field with.
func (f FieldSpec) DefaultValue() Value {
	switch f.Kind {
	case FieldKindCategorical:
		if f.Default != "" && f.HasOption(f.Default) {
			return Code(f.Default)
		}
		if len(f.Options) > 0 {
			return Code(f.Options[0].Code)
		}
		return Empty()
	default:
		if f.Default == "" {
			return Empty()
		}
		return ParseFieldValue(f, f.Default)
	}
}

// Check validates a stored value against the field constraints. Empty values
// only fail when the field is required.
func (f FieldSpec) Check(v Value) error {
	if v.IsEmpty() {
		if f.Required {
			return fmt.Errorf("%s: %w", f.Label, ErrRequired)
		}
		return nil
	}

	switch f.Kind {
	case FieldKindNumeric:
		num, ok := v.Float()
		if !ok {
			return fmt.Errorf("%s: expected a number", f.Label)
		}
		if f.Min != nil && num < *f.Min {
			return fmt.Errorf("%s: %w (minimum %s)", f.Label, ErrOutOfRange, formatBound(*f.Min))
		}
		if f.Max != nil && num > *f.Max {
			return fmt.Errorf("%s: %w (maximum %s)", f.Label, ErrOutOfRange, formatBound(*f.Max))
		}
	case FieldKindCategorical:
		code, ok := v.Code()
		if !ok || !f.HasOption(code) {
			return fmt.Errorf("%s: %w", f.Label, ErrUnknownOption)
		}
	}
	return nil
}

// Bounds renders Min/Max/Step as strings suitable for HTML attributes. Unset
// bounds come back empty.
func (f FieldSpec) Bounds() (min, max, step string) {
	if f.Min != nil {
		min = formatBound(*f.Min)
	}
	if f.Max != nil {
		max = formatBound(*f.Max)
	}
	if f.Step > 0 {
		step = formatBound(f.Step)
	}
	return min, max, step
}

func formatBound(v float64) string {
	return strings.TrimSpace(strconv.FormatFloat(v, 'f', -1, 64))
}
