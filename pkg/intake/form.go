package intake

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-riskintake/pkg/forms"
	"github.com/goliatone/go-riskintake/pkg/model"
	"github.com/goliatone/go-riskintake/pkg/predict"
)

var (
	// ErrSubmissionInFlight is returned by Submit while a previous request
	// on the same form has not settled.
	ErrSubmissionInFlight = errors.New("intake: submission already in flight")
	// ErrFormClosed is returned once the form has been disposed, either by
	// Close or by the shell resetting.
	ErrFormClosed = errors.New("intake: form closed")
)

// PayloadValidator checks an outbound payload before it is sent.
// *contract.Document satisfies it.
type PayloadValidator interface {
	ValidatePayload(ctx context.Context, def forms.Definition, payload map[string]any) error
}

// FormOption configures a Form.
type FormOption func(*Form)

// WithLogger sets the logger used for submission diagnostics.
func WithLogger(l *zap.Logger) FormOption {
	return func(f *Form) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithValidator enables payload validation before every submission.
func WithValidator(v PayloadValidator) FormOption {
	return func(f *Form) {
		f.validator = v
	}
}

// WithIDGenerator overrides how submission IDs are minted.
func WithIDGenerator(gen func() string) FormOption {
	return func(f *Form) {
		if gen != nil {
			f.newID = gen
		}
	}
}

// Form owns the field state and submission lifecycle of one intake form
// instance. It is safe for concurrent use.
type Form struct {
	def       forms.Definition
	endpoint  string
	client    predict.Client
	validator PayloadValidator
	logger    *zap.Logger
	newID     func() string

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	state       *model.FormState
	fieldErrors map[string]string
	outcome     Outcome
	generation  uint64
	closed      bool
}

// NewForm creates a form seeded with the definition's defaults. The form's
// lifetime is bound to ctx; cancelling ctx has the same effect as Close.
func NewForm(ctx context.Context, def forms.Definition, endpoint string, client predict.Client, opts ...FormOption) (*Form, error) {
	if client == nil {
		return nil, errors.New("intake: prediction client is required")
	}
	if endpoint == "" {
		return nil, fmt.Errorf("intake: no endpoint for form %q", def.ID)
	}
	if len(def.Fields) == 0 {
		return nil, fmt.Errorf("intake: form %q declares no fields", def.ID)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	f := &Form{
		def:      def,
		endpoint: endpoint,
		client:   client,
		logger:   zap.L(),
		newID:    uuid.NewString,
		state:    model.NewFormState(def.Fields),
		outcome:  idle(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	f.ctx, f.cancel = context.WithCancel(ctx)
	f.logger = f.logger.With(zap.String("form", def.ID))
	return f, nil
}

// Definition returns the static description the form was built from.
func (f *Form) Definition() forms.Definition {
	return f.def
}

// Endpoint returns the prediction URL submissions are posted to.
func (f *Form) Endpoint() string {
	return f.endpoint
}

// Done is closed when the form is disposed.
func (f *Form) Done() <-chan struct{} {
	return f.ctx.Done()
}

// Set parses raw for the named field. Numeric input that does not parse
// clears the field; categorical input outside the option set is rejected.
func (f *Form) Set(name, raw string) (model.Value, error) {
	return f.apply(name, func(s *model.FormState) (model.Value, error) {
		return s.Set(name, raw)
	})
}

// SetAny is Set for decoded JSON input.
func (f *Form) SetAny(name string, raw any) (model.Value, error) {
	return f.apply(name, func(s *model.FormState) (model.Value, error) {
		return s.SetAny(name, raw)
	})
}

func (f *Form) apply(name string, set func(*model.FormState) (model.Value, error)) (model.Value, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.isClosedLocked() {
		return model.Empty(), ErrFormClosed
	}

	value, err := set(f.state)
	if err != nil {
		if !errors.Is(err, model.ErrUnknownField) {
			f.setFieldErrorLocked(name, err.Error())
		}
		return value, err
	}
	if spec, ok := f.state.Spec(name); ok {
		if checkErr := spec.Check(value); checkErr != nil {
			f.setFieldErrorLocked(name, checkErr.Error())
			return value, nil
		}
	}
	delete(f.fieldErrors, name)
	return value, nil
}

func (f *Form) setFieldErrorLocked(name, msg string) {
	if f.fieldErrors == nil {
		f.fieldErrors = make(map[string]string)
	}
	f.fieldErrors[name] = msg
}

// Value returns the stored value of one field.
func (f *Form) Value(name string) (model.Value, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.Get(name)
}

// Values returns a copy of every stored value.
func (f *Form) Values() map[string]model.Value {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.Values()
}

// FieldErrors returns the current per-field problems, keyed by field name.
func (f *Form) FieldErrors() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.fieldErrors) == 0 {
		return nil
	}
	out := make(map[string]string, len(f.fieldErrors))
	for k, v := range f.fieldErrors {
		out[k] = v
	}
	return out
}

// Outcome returns the live submission state.
func (f *Form) Outcome() Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outcome
}

// Closed reports whether the form has been disposed.
func (f *Form) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.isClosedLocked()
}

func (f *Form) isClosedLocked() bool {
	return f.closed || f.ctx.Err() != nil
}

// Close disposes the form. An outstanding request is cancelled and its
// response, should one still arrive, is discarded.
func (f *Form) Close() {
	f.mu.Lock()
	if !f.closed {
		f.closed = true
		f.generation++
		if f.outcome.InFlight() {
			f.outcome = idle()
		}
	}
	f.mu.Unlock()
	f.cancel()
}

// Submit validates the current values and, when they pass, posts them to the
// prediction service. The returned Outcome is the settled state: Succeeded
// or Failed. Validation problems and service failures are reported through
// the Outcome, not the error; the error is only ErrSubmissionInFlight or
// ErrFormClosed.
func (f *Form) Submit(ctx context.Context) (Outcome, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	f.mu.Lock()
	if f.isClosedLocked() {
		f.mu.Unlock()
		return Outcome{}, ErrFormClosed
	}
	if f.outcome.InFlight() {
		current := f.outcome
		f.mu.Unlock()
		return current, ErrSubmissionInFlight
	}

	id := f.newID()
	logger := f.logger.With(zap.String("submission_id", id))

	// Rejected entries keep the previous value, so Validate alone would pass
	// them; the recorded error has to block the submission too.
	if problems := f.problemsLocked(); len(problems) > 0 {
		f.fieldErrors = problems
		f.outcome = failed(id, f.firstProblemLocked(problems))
		out := f.outcome
		f.mu.Unlock()
		logger.Info("submission blocked by validation", zap.Int("fields", len(problems)))
		return out, nil
	}

	payload, err := forms.BuildPayload(f.def, f.state.Values())
	if err != nil {
		f.outcome = failed(id, err.Error())
		out := f.outcome
		f.mu.Unlock()
		logger.Warn("payload build failed", zap.Error(err))
		return out, nil
	}

	f.generation++
	gen := f.generation
	f.outcome = inFlight(id)
	lifetime := f.ctx
	f.mu.Unlock()

	return f.dispatch(ctx, lifetime, gen, id, payload, logger)
}

func (f *Form) dispatch(ctx, lifetime context.Context, gen uint64, id string, payload map[string]any, logger *zap.Logger) (out Outcome, err error) {
	settled := false
	defer func() {
		if settled {
			return
		}
		// Only reachable when the client panicked.
		if r := recover(); r != nil {
			logger.Error("prediction client panicked", zap.Any("panic", r))
		}
		out, err = f.settle(gen, failed(id, predict.DefaultErrorMessage))
	}()

	callCtx, stop := mergeContext(ctx, lifetime)
	defer stop()

	if f.validator != nil {
		if verr := f.validator.ValidatePayload(callCtx, f.def, payload); verr != nil {
			logger.Warn("payload rejected by contract", zap.Error(verr))
			settled = true
			return f.settle(gen, failed(id, verr.Error()))
		}
	}

	logger.Info("submitting", zap.String("endpoint", f.endpoint))
	result, callErr := f.client.Predict(callCtx, f.endpoint, payload)

	var next Outcome
	switch {
	case callErr != nil:
		logger.Warn("prediction failed", zap.Error(callErr))
		next = failed(id, predict.Message(callErr))
	case result == nil:
		next = failed(id, predict.DefaultErrorMessage)
	default:
		logger.Info("prediction received",
			zap.String("risk_level", result.RiskLevel),
			zap.Bool("high_risk", result.HighRisk()),
		)
		next = succeeded(id, result)
	}

	settled = true
	return f.settle(gen, next)
}

// settle stores next unless the form was disposed after the request left.
func (f *Form) settle(gen uint64, next Outcome) (Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.isClosedLocked() || gen != f.generation {
		if f.outcome.InFlight() {
			f.outcome = idle()
		}
		f.logger.Debug("discarding stale response", zap.String("submission_id", next.SubmissionID))
		return Outcome{}, ErrFormClosed
	}
	f.outcome = next
	return next, nil
}

// problemsLocked merges the state's validation problems with the errors
// recorded by earlier rejected entries. Recorded errors win.
func (f *Form) problemsLocked() map[string]string {
	problems := f.state.Validate()
	if len(f.fieldErrors) == 0 {
		return problems
	}
	merged := make(map[string]string, len(problems)+len(f.fieldErrors))
	for k, v := range problems {
		merged[k] = v
	}
	for k, v := range f.fieldErrors {
		merged[k] = v
	}
	return merged
}

func (f *Form) firstProblemLocked(problems map[string]string) string {
	for _, spec := range f.state.Specs() {
		if msg, ok := problems[spec.Name]; ok {
			return msg
		}
	}
	return predict.DefaultErrorMessage
}

// mergeContext returns a context cancelled when either parent is.
func mergeContext(ctx, lifetime context.Context) (context.Context, context.CancelFunc) {
	merged, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(lifetime, cancel)
	return merged, func() {
		stop()
		cancel()
	}
}
