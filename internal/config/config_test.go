package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "http://localhost:8000/predict/", cfg.Prediction.ClinicianEndpoint)
	assert.Equal(t, "http://localhost:8000/predict_cardiovascular/", cfg.Prediction.PatientEndpoint)
	assert.Equal(t, 30, cfg.Prediction.TimeoutSecs)
	assert.InDelta(t, 0, cfg.Prediction.RateLimit, 0.0001)
	assert.Equal(t, 1, cfg.Prediction.Burst)
	assert.False(t, cfg.Prediction.ValidateRequests)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "dark", cfg.UI.ThemeVariant)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.NoError(t, cfg.Validate("serve"))
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
server:
  port: 9090
prediction:
  clinician_endpoint: https://models.example.com/predict/
  rate_limit: 2.5
  burst: 3
ui:
  theme_variant: light
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "https://models.example.com/predict/", cfg.Prediction.ClinicianEndpoint)
	assert.Equal(t, "http://localhost:8000/predict_cardiovascular/", cfg.Prediction.PatientEndpoint)
	assert.InDelta(t, 2.5, cfg.Prediction.RateLimit, 0.0001)
	assert.Equal(t, 3, cfg.Prediction.Burst)
	assert.Equal(t, "light", cfg.UI.ThemeVariant)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log:\n  level: debug\n"), 0o644))
	t.Setenv("RISKINTAKE_LOG_LEVEL", "warn")
	t.Setenv("RISKINTAKE_PREDICTION_PATIENT_ENDPOINT", "http://10.0.0.5:8000/predict_cardiovascular/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "http://10.0.0.5:8000/predict_cardiovascular/", cfg.Prediction.PatientEndpoint)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("RISKINTAKE_SERVER_PORT", "3000")
	t.Setenv("RISKINTAKE_PREDICTION_VALIDATE_REQUESTS", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.True(t, cfg.Prediction.ValidateRequests)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

func validDefaults() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Prediction: PredictionConfig{
			ClinicianEndpoint: "http://localhost:8000/predict/",
			PatientEndpoint:   "http://localhost:8000/predict_cardiovascular/",
			TimeoutSecs:       30,
			Burst:             1,
		},
		UI: UIConfig{ThemeVariant: "dark"},
	}
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateServe_BadVariant(t *testing.T) {
	cfg := validDefaults()
	cfg.UI.ThemeVariant = "sepia"

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ui.theme_variant")
}

func TestValidateIntake_BadEndpoint(t *testing.T) {
	cfg := validDefaults()
	cfg.Prediction.PatientEndpoint = "localhost:8000"

	err := cfg.Validate("intake")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "prediction.patient_endpoint")
}

func TestValidateIntake_BurstRequiredWhenLimiting(t *testing.T) {
	cfg := validDefaults()
	cfg.Prediction.RateLimit = 5
	cfg.Prediction.Burst = 0

	err := cfg.Validate("intake")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "prediction.burst")
}

func TestValidateFieldsNeedsNothing(t *testing.T) {
	assert.NoError(t, (&Config{}).Validate("fields"))
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
