package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-riskintake/internal/config"
	"github.com/goliatone/go-riskintake/pkg/forms"
	"github.com/goliatone/go-riskintake/pkg/testsupport"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"serve", "intake", "fields"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "riskintake", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestFieldsCommand_Flags(t *testing.T) {
	for _, name := range []string{"format", "check", "role"} {
		assert.NotNil(t, fieldsCmd.Flags().Lookup(name), "fields should have --%s flag", name)
	}
	assert.Equal(t, "table", fieldsCmd.Flags().Lookup("format").DefValue)
}

func TestWriteFields_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeFields(&buf, []forms.Definition{forms.Patient()}, "table"))

	out := buf.String()
	assert.Contains(t, out, "predictCardiovascular")
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "ap_hi")
	assert.Contains(t, out, "0..300 required")
	assert.Contains(t, out, "1=Male, 2=Female")
}

func TestWriteFields_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeFields(&buf, forms.All(), "json"))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	ids := []any{decoded[0]["id"], decoded[1]["id"]}
	assert.ElementsMatch(t, []any{"clinician", "patient"}, ids)
}

func TestWriteFields_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeFields(&buf, []forms.Definition{forms.Clinician()}, "yaml"))

	var decoded []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "clinician", decoded[0]["id"])
	assert.Equal(t, true, decoded[0]["show_probability"])
	assert.Len(t, decoded[0]["fields"], 12)
}

func TestWriteFields_UnknownFormat(t *testing.T) {
	err := writeFields(&bytes.Buffer{}, forms.All(), "xml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestBuildHandler_ServesSelector(t *testing.T) {
	upstream := testsupport.NewPredictionServer(t)
	c := &config.Config{
		Server: config.ServerConfig{Port: 8080},
		Prediction: config.PredictionConfig{
			ClinicianEndpoint: upstream.Endpoint("/predict/"),
			PatientEndpoint:   upstream.Endpoint("/predict_cardiovascular/"),
			TimeoutSecs:       5,
			Burst:             1,
		},
		CORS: config.CORSConfig{AllowedOrigins: []string{"*"}},
		UI:   config.UIConfig{ThemeVariant: "light"},
	}

	h, err := buildHandler(context.Background(), c)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Are you a clinician or a patient?")
}

func TestBuildHandler_UnknownVariant(t *testing.T) {
	c := &config.Config{
		Prediction: config.PredictionConfig{
			ClinicianEndpoint: "http://localhost:8000/predict/",
			PatientEndpoint:   "http://localhost:8000/predict_cardiovascular/",
			TimeoutSecs:       5,
		},
		UI: config.UIConfig{ThemeVariant: "sepia"},
	}

	_, err := buildHandler(context.Background(), c)
	assert.Error(t, err)
}
