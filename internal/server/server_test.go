package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/goliatone/go-riskintake/pkg/intake"
	"github.com/goliatone/go-riskintake/pkg/predict"
	"github.com/goliatone/go-riskintake/pkg/recommend"
	"github.com/goliatone/go-riskintake/pkg/render"
	"github.com/goliatone/go-riskintake/pkg/renderers/tui"
	"github.com/goliatone/go-riskintake/pkg/renderers/web"
	"github.com/goliatone/go-riskintake/pkg/testsupport"
)

func newTestServer(t *testing.T, upstream *testsupport.PredictionServer) http.Handler {
	t.Helper()

	htmlRenderer, err := web.New()
	require.NoError(t, err)

	registry := render.NewRegistry()
	registry.MustRegister(htmlRenderer)
	registry.MustRegister(tui.TextRenderer{})

	client := predict.NewClient(predict.WithLogger(zap.NewNop()), predict.WithTimeout(5*time.Second))
	factory := intake.NewFormFactory(client, intake.Endpoints{
		Clinician: upstream.Endpoint("/predict/"),
		Patient:   upstream.Endpoint("/predict_cardiovascular/"),
	}, intake.WithLogger(zap.NewNop()))

	srv, err := New(Options{
		Factory:   factory,
		Catalog:   recommend.MustDefault(),
		Renderers: registry,
		Assets:    web.AssetsFS(),
		Logger:    zap.NewNop(),
	})
	require.NoError(t, err)
	return srv.Handler()
}

func patientForm() url.Values {
	return url.Values{
		"age":    {"50"},
		"height": {"170"},
		"weight": {"70"},
		"ap_hi":  {"120"},
		"ap_lo":  {"80"},
		"smoke":  {"1"},
	}
}

func postForm(h http.Handler, path string, values url.Values, accept string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func postJSON(h http.Handler, path string, body any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeAssess(t *testing.T, rr *httptest.ResponseRecorder) assessResponse {
	t.Helper()
	var resp assessResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	factory := func(context.Context, intake.Role) (*intake.Form, error) { return nil, nil }
	_, err = New(Options{Factory: factory, Renderers: render.NewRegistry()})
	assert.Error(t, err)
}

func TestHandler_Health(t *testing.T) {
	h := newTestServer(t, testsupport.NewPredictionServer(t))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestHandler_Selector(t *testing.T) {
	h := newTestServer(t, testsupport.NewPredictionServer(t))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rr.Body.String(), "Are you a clinician or a patient?")
	assert.Contains(t, rr.Body.String(), `href="/intake/clinician"`)
	assert.Contains(t, rr.Body.String(), `href="/intake/patient"`)
}

func TestHandler_SelectorAsText(t *testing.T) {
	h := newTestServer(t, testsupport.NewPredictionServer(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "text/plain")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rr.Body.String(), "Are you a clinician or a patient?")
	assert.NotContains(t, rr.Body.String(), "<html")
}

func TestHandler_IntakeShowsFreshForm(t *testing.T) {
	upstream := testsupport.NewPredictionServer(t)
	h := newTestServer(t, upstream)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/intake/patient", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Predict Cardiovascular Risk")
	assert.Contains(t, body, `name="ap_hi"`)
	assert.Contains(t, body, "Change User Type")
	assert.NotContains(t, body, "Risk Level:")
	assert.Equal(t, 0, upstream.Hits())
}

func TestHandler_IntakeUnknownRole(t *testing.T) {
	h := newTestServer(t, testsupport.NewPredictionServer(t))

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(method, "/intake/nurse", nil))
		assert.Equal(t, http.StatusNotFound, rr.Code, method)
	}
}

func TestHandler_IntakeSubmitOutcomes(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		values   url.Values
		response testsupport.Response
		want     []string
		wantNot  []string
	}{
		{
			name:     "clinician high risk",
			role:     "clinician",
			values:   url.Values{"age": {"63"}, "chest_pain": {"3"}},
			response: testsupport.JSON(http.StatusOK, map[string]any{"risk_level": "high", "risk_probability": 82, "prediction": 1}),
			want:     []string{"Risk Level: high", "Risk Probability: 82%", "Prediction: High Risk", "recommendations-high"},
		},
		{
			name:     "patient low risk",
			role:     "patient",
			values:   patientForm(),
			response: testsupport.JSON(http.StatusOK, map[string]any{"risk_level": "low", "prediction": 0}),
			want:     []string{"Risk Level: low", "Prediction: Low Risk", "recommendations-low"},
			wantNot:  []string{"Risk Probability"},
		},
		{
			name:     "rejection message shown verbatim",
			role:     "patient",
			values:   patientForm(),
			response: testsupport.JSON(http.StatusBadRequest, map[string]any{"error": "invalid input"}),
			want:     []string{`<p class="error-message">invalid input</p>`},
			wantNot:  []string{"Risk Level:"},
		},
		{
			name:     "unparsable failure falls back",
			role:     "clinician",
			values:   url.Values{"age": {"40"}},
			response: testsupport.Response{Status: http.StatusInternalServerError, Body: "<html>boom</html>"},
			want:     []string{"Network response was not ok"},
			wantNot:  []string{"boom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			upstream := testsupport.NewPredictionServer(t, tt.response)
			h := newTestServer(t, upstream)

			rr := postForm(h, "/intake/"+tt.role, tt.values, "")

			assert.Equal(t, http.StatusOK, rr.Code)
			body := rr.Body.String()
			for _, s := range tt.want {
				assert.Contains(t, body, s)
			}
			for _, s := range tt.wantNot {
				assert.NotContains(t, body, s)
			}
			assert.Equal(t, 1, upstream.Hits())
		})
	}
}

func TestHandler_IntakeSubmitKeepsPostedValues(t *testing.T) {
	upstream := testsupport.NewPredictionServer(t)
	h := newTestServer(t, upstream)

	rr := postForm(h, "/intake/patient", patientForm(), "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `value="170"`)

	reqs := upstream.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/predict_cardiovascular/", reqs[0].Path)
	assert.Equal(t, float64(1), reqs[0].Body["smoke"])
	assert.Equal(t, float64(170), reqs[0].Body["height"])
}

func TestHandler_IntakeSubmitMissingRequiredFields(t *testing.T) {
	upstream := testsupport.NewPredictionServer(t)
	h := newTestServer(t, upstream)

	rr := postForm(h, "/intake/patient", url.Values{"age": {"abc"}}, "text/plain")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Error: Age: value is required")
	assert.Equal(t, 0, upstream.Hits())
}

func TestHandler_IntakeSubmitUndeclaredCodeBlocksSubmission(t *testing.T) {
	upstream := testsupport.NewPredictionServer(t)
	h := newTestServer(t, upstream)

	values := patientForm()
	values.Set("gender", "7")
	rr := postForm(h, "/intake/patient", values, "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 0, upstream.Hits())
	body := rr.Body.String()
	assert.Contains(t, body, `class="field-error"`)
	assert.Contains(t, body, "model: gender: unknown option 7")
}

func TestHandler_AssessSucceeded(t *testing.T) {
	upstream := testsupport.NewPredictionServer(t,
		testsupport.JSON(http.StatusOK, map[string]any{"risk_level": "high", "prediction": 1}),
	)
	h := newTestServer(t, upstream)

	rr := postJSON(h, "/api/v1/assess/patient", map[string]any{
		"age": 50, "height": 170, "weight": 70, "ap_hi": 150, "ap_lo": 95, "cholesterol": "3",
	})

	require.Equal(t, http.StatusOK, rr.Code)
	resp := decodeAssess(t, rr)
	assert.Equal(t, "succeeded", resp.Outcome)
	assert.NotEmpty(t, resp.SubmissionID)
	require.NotNil(t, resp.Result)
	assert.True(t, resp.Result.HighRisk())
	require.NotNil(t, resp.Recommendations)
	assert.Equal(t, "high", resp.Recommendations.Class)
	assert.NotEmpty(t, resp.Recommendations.Items)

	reqs := upstream.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, float64(3), reqs[0].Body["cholesterol"])
}

func TestHandler_AssessRequiredFields(t *testing.T) {
	upstream := testsupport.NewPredictionServer(t)
	h := newTestServer(t, upstream)

	rr := postJSON(h, "/api/v1/assess/patient", map[string]any{"age": 50})

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	resp := decodeAssess(t, rr)
	assert.Equal(t, "failed", resp.Outcome)
	assert.Equal(t, "Height (cm): value is required", resp.Error)
	assert.Contains(t, resp.FieldErrors, "height")
	assert.NotContains(t, resp.FieldErrors, "age")
	assert.Equal(t, 0, upstream.Hits())
}

func TestHandler_AssessRejectsUndeclaredCode(t *testing.T) {
	upstream := testsupport.NewPredictionServer(t)
	h := newTestServer(t, upstream)

	rr := postJSON(h, "/api/v1/assess/clinician", map[string]any{"sex": "7"})

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	resp := decodeAssess(t, rr)
	assert.Contains(t, resp.FieldErrors, "sex")
	assert.Equal(t, 0, upstream.Hits())
}

func TestHandler_AssessUnknownField(t *testing.T) {
	h := newTestServer(t, testsupport.NewPredictionServer(t))

	rr := postJSON(h, "/api/v1/assess/clinician", map[string]any{"shoe_size": 44})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "unknown field shoe_size", decodeAssess(t, rr).Error)
}

func TestHandler_AssessInvalidJSON(t *testing.T) {
	h := newTestServer(t, testsupport.NewPredictionServer(t))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/assess/clinician", strings.NewReader("{"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_AssessUpstreamRejection(t *testing.T) {
	upstream := testsupport.NewPredictionServer(t,
		testsupport.JSON(http.StatusBadRequest, map[string]any{"error": "invalid input"}),
	)
	h := newTestServer(t, upstream)

	rr := postJSON(h, "/api/v1/assess/clinician", map[string]any{"age": 40})

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	resp := decodeAssess(t, rr)
	assert.Equal(t, "failed", resp.Outcome)
	assert.Equal(t, "invalid input", resp.Error)
	assert.Nil(t, resp.Result)
}

func TestHandler_AssessCORSPreflight(t *testing.T) {
	h := newTestServer(t, testsupport.NewPredictionServer(t))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/assess/clinician", nil)
	req.Header.Set("Origin", "https://clinic.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Less(t, rr.Code, 300)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestHandler_Assets(t *testing.T) {
	h := newTestServer(t, testsupport.NewPredictionServer(t))

	for _, name := range []string{web.StylesheetName, web.ScriptName} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/assets/"+name, nil))
		assert.Equal(t, http.StatusOK, rr.Code, name)
		assert.NotEmpty(t, rr.Body.String(), name)
	}
}

func TestHandler_RequestIDHeaderIsAccepted(t *testing.T) {
	h := newTestServer(t, testsupport.NewPredictionServer(t))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "req-42")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

// getFreePort returns a free TCP port on localhost.
func getFreePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()
	return port
}

func TestRun_GracefulShutdown(t *testing.T) {
	h := newTestServer(t, testsupport.NewPredictionServer(t))
	port := getFreePort(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := &http.Server{Addr: fmt.Sprintf("127.0.0.1:%d", port), Handler: h}
	done := make(chan error, 1)
	go func() { done <- Run(ctx, srv, 5*time.Second) }()

	var ready bool
	for i := 0; i < 50; i++ {
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/healthz", port))
		if err == nil {
			resp.Body.Close()
			ready = true
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	require.True(t, ready, "server did not become ready")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
