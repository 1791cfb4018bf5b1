package intake

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-riskintake/pkg/forms"
)

// Role re-exports forms.Role so callers only need this package.
type Role = forms.Role

const (
	RoleClinician = forms.RoleClinician
	RolePatient   = forms.RolePatient
)

// ErrUnknownRole is returned by ParseRole for anything but the two roles.
var ErrUnknownRole = errors.New("intake: unknown role")

// Choice is one selectable answer of the role question.
type Choice struct {
	Role        Role
	Label       string
	Description string
}

// Selector asks whether the visitor is a clinician or a patient. It holds no
// state; choosing an answer is dispatched to the Shell.
type Selector struct {
	Question string
	choices  []Choice
}

// NewSelector returns the role question with its two answers.
func NewSelector() Selector {
	return Selector{
		Question: "Are you a clinician or a patient?",
		choices: []Choice{
			{
				Role:        RoleClinician,
				Label:       "Clinician",
				Description: "Enter clinical measurements to estimate coronary artery disease risk.",
			},
			{
				Role:        RolePatient,
				Label:       "Patient",
				Description: "Answer everyday health questions to estimate cardiovascular risk.",
			},
		},
	}
}

// Choices returns the answers in display order.
func (s Selector) Choices() []Choice {
	return append([]Choice(nil), s.choices...)
}

// ParseRole maps a role tag onto a Role.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleClinician:
		return RoleClinician, nil
	case RolePatient:
		return RolePatient, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownRole, raw)
	}
}
