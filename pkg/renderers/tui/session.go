// Package tui drives the intake flow in a terminal: pick a role, answer one
// prompt per field, submit, read the result, then edit, switch role or quit.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-riskintake/pkg/intake"
	"github.com/goliatone/go-riskintake/pkg/model"
	"github.com/goliatone/go-riskintake/pkg/recommend"
	"github.com/goliatone/go-riskintake/pkg/render"
)

const (
	menuEdit   = "Edit answers and resubmit"
	menuChange = "Change User Type"
	menuQuit   = "Quit"
)

// Session is one interactive run over an intake shell.
type Session struct {
	shell   *intake.Shell
	driver  PromptDriver
	catalog *recommend.Catalog
	theme   Theme
	logger  *zap.Logger
	text    TextRenderer
}

// NewSession wires a session around shell. The survey driver is used unless
// WithPromptDriver overrides it.
func NewSession(shell *intake.Shell, options ...Option) (*Session, error) {
	if shell == nil {
		return nil, ErrNoShell
	}
	s := &Session{
		shell:  shell,
		logger: zap.L(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	if s.driver == nil {
		s.driver = NewSurveyDriver(nil)
	}
	return s, nil
}

// Run loops until the user quits, aborts, or ctx ends. Quitting returns nil.
func (s *Session) Run(ctx context.Context) error {
	defer s.shell.Reset()

	selector := intake.NewSelector()
	for {
		role, quit, err := s.chooseRole(ctx, selector)
		if err != nil || quit {
			return err
		}

		form, err := s.shell.Select(ctx, role)
		if err != nil {
			return err
		}

		next, err := s.runForm(ctx, form)
		if err != nil {
			return err
		}
		if next == menuQuit {
			return nil
		}
		s.shell.Reset()
	}
}

func (s *Session) chooseRole(ctx context.Context, selector intake.Selector) (intake.Role, bool, error) {
	choices := selector.Choices()
	options := make([]string, 0, len(choices)+1)
	for _, c := range choices {
		options = append(options, c.Label)
	}
	options = append(options, menuQuit)

	idx, err := s.driver.Select(ctx, SelectConfig{
		Message:      selector.Question,
		Options:      options,
		DefaultIndex: 0,
	})
	if err != nil {
		return "", false, err
	}
	if idx < 0 || idx >= len(choices) {
		return "", true, nil
	}
	return choices[idx].Role, false, nil
}

// runForm prompts, submits and shows the menu until the user leaves the
// form. It returns the menu entry that ended the loop.
func (s *Session) runForm(ctx context.Context, form *intake.Form) (string, error) {
	def := form.Definition()
	if err := s.info(ctx, "\n"+def.Title); err != nil {
		return "", err
	}

	for {
		if err := s.promptFields(ctx, form); err != nil {
			return "", err
		}

		if err := s.info(ctx, def.BusyLabel); err != nil {
			return "", err
		}
		if _, err := form.Submit(ctx); err != nil {
			if errors.Is(err, intake.ErrFormClosed) && ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", err
		}

		view := render.BuildForm(form, s.catalog, nil)
		if view.Failure != "" {
			if err := s.warn(ctx, s.text.Outcome(view)); err != nil {
				return "", err
			}
		} else if err := s.info(ctx, s.text.Outcome(view)); err != nil {
			return "", err
		}

		options := []string{menuEdit, menuChange, menuQuit}
		idx, err := s.driver.Select(ctx, SelectConfig{Message: "What next?", Options: options})
		if err != nil {
			return "", err
		}
		if idx < 0 || idx >= len(options) {
			idx = len(options) - 1
		}
		if options[idx] != menuEdit {
			return options[idx], nil
		}
	}
}

func (s *Session) promptFields(ctx context.Context, form *intake.Form) error {
	for _, spec := range form.Definition().Fields {
		var err error
		if spec.IsNumeric() {
			err = s.promptNumber(ctx, form, spec)
		} else {
			err = s.promptCategorical(ctx, form, spec)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) promptNumber(ctx context.Context, form *intake.Form, spec model.FieldSpec) error {
	current, _ := form.Value(spec.Name)
	for {
		input, err := s.driver.Input(ctx, InputConfig{
			Message: promptLabel(spec),
			Default: current.String(),
			Help:    spec.Help,
		})
		if err != nil {
			return err
		}

		raw := strings.TrimSpace(input)
		parsed := model.ParseFieldValue(spec, raw)
		if raw != "" && parsed.IsEmpty() {
			if err := s.warn(ctx, fmt.Sprintf("%s: enter a number", spec.Label)); err != nil {
				return err
			}
			continue
		}
		if err := spec.Check(parsed); err != nil {
			if err := s.warn(ctx, err.Error()); err != nil {
				return err
			}
			continue
		}

		_, err = form.Set(spec.Name, raw)
		return err
	}
}

func (s *Session) promptCategorical(ctx context.Context, form *intake.Form, spec model.FieldSpec) error {
	labels := make([]string, 0, len(spec.Options))
	for _, opt := range spec.Options {
		labels = append(labels, opt.Label)
	}

	defaultIdx := 0
	if current, ok := form.Value(spec.Name); ok {
		if code, ok := current.Code(); ok {
			if idx, ok := spec.OptionIndex(code); ok {
				defaultIdx = idx
			}
		}
	}

	for {
		idx, err := s.driver.Select(ctx, SelectConfig{
			Message:      promptLabel(spec),
			Options:      labels,
			DefaultIndex: defaultIdx,
			Help:         spec.Help,
		})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(spec.Options) {
			if err := s.warn(ctx, fmt.Sprintf("Invalid %s selection", spec.Label)); err != nil {
				return err
			}
			continue
		}
		_, err = form.Set(spec.Name, spec.Options[idx].Code)
		return err
	}
}

func (s *Session) info(ctx context.Context, msg string) error {
	return s.driver.Info(ctx, s.theme.InfoPrefix+msg)
}

func (s *Session) warn(ctx context.Context, msg string) error {
	s.logger.Debug("terminal input rejected", zap.String("message", msg))
	return s.driver.Info(ctx, s.theme.ErrorPrefix+msg)
}

func promptLabel(spec model.FieldSpec) string {
	label := spec.Label
	if minV, maxV, _ := spec.Bounds(); minV != "" && maxV != "" {
		label = fmt.Sprintf("%s (%s-%s)", label, minV, maxV)
	}
	if spec.Required {
		label += " *"
	}
	return label
}
