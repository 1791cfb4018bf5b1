package model

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownField is returned when a change targets an undeclared field.
	ErrUnknownField = errors.New("unknown field")
	// ErrUnknownOption is returned when a categorical change carries a code
	// outside the declared option set.
	ErrUnknownOption = errors.New("unknown option")
)

// FormState maps field names to their current parsed values. It is not safe
// for concurrent use; the owning form serialises access.
type FormState struct {
	specs  []FieldSpec
	index  map[string]int
	values map[string]Value
}

// NewFormState seeds a state with each field's default value.
func NewFormState(specs []FieldSpec) *FormState {
	s := &FormState{
		specs:  append([]FieldSpec(nil), specs...),
		index:  make(map[string]int, len(specs)),
		values: make(map[string]Value, len(specs)),
	}
	for i, spec := range s.specs {
		s.index[spec.Name] = i
	}
	s.Reset()
	return s
}

// Reset restores every field to its default.
func (s *FormState) Reset() {
	for _, spec := range s.specs {
		s.values[spec.Name] = spec.DefaultValue()
	}
}

// Specs returns the field descriptors in declaration order.
func (s *FormState) Specs() []FieldSpec {
	return append([]FieldSpec(nil), s.specs...)
}

// Spec looks up a field descriptor by name.
func (s *FormState) Spec(name string) (FieldSpec, bool) {
	idx, ok := s.index[name]
	if !ok {
		return FieldSpec{}, false
	}
	return s.specs[idx], true
}

// Set parses raw for the named field and stores the result. Numeric input
// that fails to parse clears the field. Categorical input outside the option
// set is rejected and leaves the stored code untouched.
func (s *FormState) Set(name, raw string) (Value, error) {
	spec, ok := s.Spec(name)
	if !ok {
		return Empty(), fmt.Errorf("model: %w %q", ErrUnknownField, name)
	}
	return s.store(spec, ParseFieldValue(spec, raw), raw)
}

// SetAny is Set for decoded JSON input.
func (s *FormState) SetAny(name string, raw any) (Value, error) {
	spec, ok := s.Spec(name)
	if !ok {
		return Empty(), fmt.Errorf("model: %w %q", ErrUnknownField, name)
	}
	return s.store(spec, ParseAny(spec, raw), raw)
}

func (s *FormState) store(spec FieldSpec, parsed Value, raw any) (Value, error) {
	if spec.Kind == FieldKindCategorical && parsed.IsEmpty() {
		return s.values[spec.Name], fmt.Errorf("model: %s: %w %v", spec.Name, ErrUnknownOption, raw)
	}
	s.values[spec.Name] = parsed
	return parsed, nil
}

// Get returns the stored value for name.
func (s *FormState) Get(name string) (Value, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Values returns a copy of the field map.
func (s *FormState) Values() map[string]Value {
	out := make(map[string]Value, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Validate runs FieldSpec.Check over every field, returning messages keyed
// by field name. A nil map means the state is submittable.
func (s *FormState) Validate() map[string]string {
	var problems map[string]string
	for _, spec := range s.specs {
		if err := spec.Check(s.values[spec.Name]); err != nil {
			if problems == nil {
				problems = make(map[string]string)
			}
			problems[spec.Name] = err.Error()
		}
	}
	return problems
}
