// Package forms declares the two intake variants: the clinician form that
// targets the coronary-artery-disease model and the patient form that targets
// the lay cardiovascular model. The request shapes are intentionally
// different; each definition names the contract operation that documents it.
package forms

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-riskintake/pkg/model"
)

// Role identifies who fills a form.
type Role string

const (
	RoleClinician Role = "clinician"
	RolePatient   Role = "patient"
)

// Encoding controls how categorical codes are serialised in the payload.
type Encoding string

const (
	// CodesAsStrings sends codes exactly as selected ("0", "1", ...). The
	// clinician endpoint coerces them server side.
	CodesAsStrings Encoding = "strings"
	// CodesAsIntegers coerces every code to an integer before sending.
	CodesAsIntegers Encoding = "integers"
)

// Definition is the static description of one intake form.
type Definition struct {
	ID              string            `json:"id" yaml:"id"`
	Role            Role              `json:"role" yaml:"role"`
	Title           string            `json:"title" yaml:"title"`
	SubmitLabel     string            `json:"submitLabel" yaml:"submit_label"`
	BusyLabel       string            `json:"busyLabel" yaml:"busy_label"`
	Operation       string            `json:"operation" yaml:"operation"`
	Encoding        Encoding          `json:"encoding" yaml:"encoding"`
	ShowProbability bool              `json:"showProbability" yaml:"show_probability"`
	Fields          []model.FieldSpec `json:"fields" yaml:"fields"`
}

// Field returns the spec named name.
func (d Definition) Field(name string) (model.FieldSpec, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return model.FieldSpec{}, false
}

// FieldNames lists field names in declaration order.
func (d Definition) FieldNames() []string {
	names := make([]string, 0, len(d.Fields))
	for _, f := range d.Fields {
		names = append(names, f.Name)
	}
	return names
}

// All returns every known definition, clinician first.
func All() []Definition {
	return []Definition{Clinician(), Patient()}
}

// ForRole returns the definition a role fills in.
func ForRole(role Role) (Definition, error) {
	switch role {
	case RoleClinician:
		return Clinician(), nil
	case RolePatient:
		return Patient(), nil
	default:
		return Definition{}, fmt.Errorf("forms: no definition for role %q", role)
	}
}

// Lookup resolves a definition by ID.
func Lookup(id string) (Definition, bool) {
	id = strings.TrimSpace(id)
	for _, def := range All() {
		if def.ID == id {
			return def, true
		}
	}
	return Definition{}, false
}

// BuildPayload flattens parsed values into the request body for def. Numbers
// are sent as float64, the empty placeholder as "" and categorical codes
// according to the definition's Encoding.
func BuildPayload(def Definition, values map[string]model.Value) (map[string]any, error) {
	payload := make(map[string]any, len(def.Fields))
	for _, field := range def.Fields {
		value, ok := values[field.Name]
		if !ok {
			value = field.DefaultValue()
		}

		if field.Kind != model.FieldKindCategorical || def.Encoding != CodesAsIntegers {
			payload[field.Name] = value.Interface()
			continue
		}

		code, ok := value.Code()
		if !ok {
			return nil, fmt.Errorf("forms: %s: categorical value missing", field.Name)
		}
		n, err := strconv.Atoi(code)
		if err != nil {
			return nil, fmt.Errorf("forms: %s: code %q is not an integer: %w", field.Name, code, err)
		}
		payload[field.Name] = n
	}
	return payload, nil
}
