package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/goliatone/go-riskintake/internal/config"
	"github.com/goliatone/go-riskintake/pkg/intake"
	"github.com/goliatone/go-riskintake/pkg/testsupport"
)

func testConfig(clinician, patient string) *config.Config {
	return &config.Config{
		Prediction: config.PredictionConfig{
			ClinicianEndpoint: clinician,
			PatientEndpoint:   patient,
			TimeoutSecs:       5,
			Burst:             1,
		},
	}
}

func TestCheckContract(t *testing.T) {
	doc, err := CheckContract(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, doc.Operations())
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(context.Background(), nil, zap.NewNop())
	assert.Error(t, err)
}

func TestNew_FactoryUsesConfiguredEndpoints(t *testing.T) {
	srv := testsupport.NewPredictionServer(t, testsupport.JSON(200, map[string]any{"risk_level": "high", "prediction": 1}))
	cfg := testConfig(srv.Endpoint("/predict/"), srv.Endpoint("/predict_cardiovascular/"))
	cfg.Prediction.RateLimit = 100
	cfg.Prediction.Burst = 0

	env, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	form, err := env.Factory(context.Background(), intake.RoleClinician)
	require.NoError(t, err)
	defer form.Close()

	out, err := form.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, intake.OutcomeSucceeded, out.Kind)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/predict/", reqs[0].Path)
}

func TestNew_ValidateRequestsAcceptsValidPayload(t *testing.T) {
	srv := testsupport.NewPredictionServer(t)
	cfg := testConfig(srv.Endpoint("/predict/"), srv.Endpoint("/predict_cardiovascular/"))
	cfg.Prediction.ValidateRequests = true

	env, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	form, err := env.Factory(context.Background(), intake.RolePatient)
	require.NoError(t, err)
	defer form.Close()

	for name, raw := range map[string]string{"age": "50", "height": "170", "weight": "70", "ap_hi": "120", "ap_lo": "80"} {
		_, err := form.Set(name, raw)
		require.NoError(t, err)
	}
	out, err := form.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, intake.OutcomeSucceeded, out.Kind)
	assert.Equal(t, 1, srv.Hits())
}

func TestNew_ValidateRequestsBlocksEmptyClinicianNumbers(t *testing.T) {
	srv := testsupport.NewPredictionServer(t)
	cfg := testConfig(srv.Endpoint("/predict/"), srv.Endpoint("/predict_cardiovascular/"))
	cfg.Prediction.ValidateRequests = true

	env, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	form, err := env.Factory(context.Background(), intake.RoleClinician)
	require.NoError(t, err)
	defer form.Close()

	out, err := form.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, intake.OutcomeFailed, out.Kind)
	assert.NotEmpty(t, out.Message)
	assert.Equal(t, 0, srv.Hits())
}
