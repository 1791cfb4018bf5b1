// Package app builds the shared intake collaborators from configuration so
// the HTTP server and the terminal session are wired the same way.
package app

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/goliatone/go-riskintake/internal/config"
	"github.com/goliatone/go-riskintake/pkg/contract"
	"github.com/goliatone/go-riskintake/pkg/forms"
	"github.com/goliatone/go-riskintake/pkg/intake"
	"github.com/goliatone/go-riskintake/pkg/predict"
)

// Env is everything a front end needs to run the intake flow.
type Env struct {
	Client   predict.Client
	Contract *contract.Document
	Factory  intake.FormFactory
}

// NewClient builds the prediction client. A rate limit of zero disables
// limiting.
func NewClient(cfg config.PredictionConfig, logger *zap.Logger) predict.Client {
	opts := []predict.Option{
		predict.WithTimeout(cfg.Timeout()),
		predict.WithLogger(logger),
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		opts = append(opts, predict.WithRateLimiter(rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)))
	}
	return predict.NewClient(opts...)
}

// CheckContract loads the embedded API contract and verifies both form
// definitions against it.
func CheckContract(ctx context.Context) (*contract.Document, error) {
	doc, err := contract.Load(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "load contract")
	}
	for _, def := range forms.All() {
		if err := doc.Check(def); err != nil {
			return nil, eris.Wrapf(err, "check form %s", def.ID)
		}
	}
	return doc, nil
}

// New wires the client and form factory from cfg. The contract is checked
// at startup; outbound payload validation is enabled by
// prediction.validate_requests.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Env, error) {
	if cfg == nil {
		return nil, eris.New("app: config is required")
	}
	if logger == nil {
		logger = zap.L()
	}

	doc, err := CheckContract(ctx)
	if err != nil {
		return nil, err
	}

	client := NewClient(cfg.Prediction, logger)
	formOpts := []intake.FormOption{intake.WithLogger(logger)}
	if cfg.Prediction.ValidateRequests {
		formOpts = append(formOpts, intake.WithValidator(doc))
	}
	endpoints := intake.Endpoints{
		Clinician: cfg.Prediction.ClinicianEndpoint,
		Patient:   cfg.Prediction.PatientEndpoint,
	}

	logger.Info("intake wired",
		zap.String("clinician_endpoint", endpoints.Clinician),
		zap.String("patient_endpoint", endpoints.Patient),
		zap.Bool("validate_requests", cfg.Prediction.ValidateRequests),
		zap.Float64("rate_limit", cfg.Prediction.RateLimit),
	)

	return &Env{
		Client:   client,
		Contract: doc,
		Factory:  intake.NewFormFactory(client, endpoints, formOpts...),
	}, nil
}
