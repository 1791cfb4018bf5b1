package intake

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-riskintake/pkg/forms"
	"github.com/goliatone/go-riskintake/pkg/predict"
)

// ErrRoleSelected is returned by Select when a form is already showing.
var ErrRoleSelected = errors.New("intake: role already selected")

// State is the shell's top-level view.
type State int

const (
	StateUnselected State = iota
	StateShowingClinicianForm
	StateShowingPatientForm
)

func (s State) String() string {
	switch s {
	case StateShowingClinicianForm:
		return "showing_clinician_form"
	case StateShowingPatientForm:
		return "showing_patient_form"
	default:
		return "unselected"
	}
}

// FormFactory builds a fresh form for role.
type FormFactory func(ctx context.Context, role Role) (*Form, error)

// Endpoints maps each role to its prediction URL.
type Endpoints struct {
	Clinician string
	Patient   string
}

// For returns the endpoint configured for role.
func (e Endpoints) For(role Role) string {
	switch role {
	case RoleClinician:
		return e.Clinician
	case RolePatient:
		return e.Patient
	default:
		return ""
	}
}

// NewFormFactory returns a FormFactory that resolves the role's definition
// and endpoint and shares client between every form it builds.
func NewFormFactory(client predict.Client, endpoints Endpoints, opts ...FormOption) FormFactory {
	return func(ctx context.Context, role Role) (*Form, error) {
		def, err := forms.ForRole(role)
		if err != nil {
			return nil, err
		}
		return NewForm(ctx, def, endpoints.For(role), client, opts...)
	}
}

// Shell tracks which form is showing. It starts Unselected and can be reset
// any number of times; there is no terminal state.
type Shell struct {
	factory FormFactory
	logger  *zap.Logger

	mu    sync.Mutex
	state State
	form  *Form
}

// NewShell returns an Unselected shell.
func NewShell(factory FormFactory, logger *zap.Logger) *Shell {
	if logger == nil {
		logger = zap.L()
	}
	return &Shell{factory: factory, logger: logger}
}

// Select builds a fresh form for role. It is only valid while Unselected.
func (s *Shell) Select(ctx context.Context, role Role) (*Form, error) {
	role, err := ParseRole(string(role))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateUnselected {
		return nil, ErrRoleSelected
	}
	if s.factory == nil {
		return nil, errors.New("intake: shell has no form factory")
	}

	form, err := s.factory(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("intake: build %s form: %w", role, err)
	}

	s.form = form
	if role == RoleClinician {
		s.state = StateShowingClinicianForm
	} else {
		s.state = StateShowingPatientForm
	}
	s.logger.Debug("role selected", zap.String("role", string(role)))
	return form, nil
}

// Reset disposes the current form and returns to Unselected. Any response
// still outstanding for the disposed form is discarded.
func (s *Shell) Reset() {
	s.mu.Lock()
	form := s.form
	s.form = nil
	s.state = StateUnselected
	s.mu.Unlock()

	if form != nil {
		form.Close()
		s.logger.Debug("form disposed", zap.String("form", form.Definition().ID))
	}
}

// State returns the current view.
func (s *Shell) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Role returns the selected role, or "" while Unselected.
func (s *Shell) Role() Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateShowingClinicianForm:
		return RoleClinician
	case StateShowingPatientForm:
		return RolePatient
	default:
		return ""
	}
}

// Form returns the showing form, or nil while Unselected.
func (s *Shell) Form() *Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}
