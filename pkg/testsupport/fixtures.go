package testsupport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// Response is one canned reply of a PredictionServer.
type Response struct {
	Status int
	// Body is written verbatim. Use JSON to build it from a value.
	Body string
	// Release, when set, holds the reply until it is closed or the request
	// context ends.
	Release <-chan struct{}
}

// JSON marshals v into a Response with the given status.
func JSON(status int, v any) Response {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return Response{Status: status, Body: string(data)}
}

// Request is a recorded inbound call.
type Request struct {
	Method      string
	Path        string
	ContentType string
	Body        map[string]any
}

// PredictionServer is an httptest server standing in for the prediction
// service. Replies are served in order; the last one repeats.
type PredictionServer struct {
	*httptest.Server

	mu        sync.Mutex
	responses []Response
	requests  []Request
	arrived   chan struct{}
}

// NewPredictionServer starts a fake prediction service that is closed when
// the test ends.
func NewPredictionServer(t *testing.T, responses ...Response) *PredictionServer {
	t.Helper()

	if len(responses) == 0 {
		responses = []Response{{Status: http.StatusOK, Body: `{"risk_level":"low","prediction":0}`}}
	}
	ps := &PredictionServer{
		responses: responses,
		arrived:   make(chan struct{}, 64),
	}
	ps.Server = httptest.NewServer(http.HandlerFunc(ps.serve))
	t.Cleanup(ps.Close)
	return ps
}

func (ps *PredictionServer) serve(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(raw, &body)

	ps.mu.Lock()
	idx := len(ps.requests)
	ps.requests = append(ps.requests, Request{
		Method:      r.Method,
		Path:        r.URL.Path,
		ContentType: r.Header.Get("Content-Type"),
		Body:        body,
	})
	if idx >= len(ps.responses) {
		idx = len(ps.responses) - 1
	}
	resp := ps.responses[idx]
	ps.mu.Unlock()

	ps.arrived <- struct{}{}

	if resp.Release != nil {
		select {
		case <-resp.Release:
		case <-r.Context().Done():
			return
		}
	}

	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, resp.Body)
}

// Endpoint returns the absolute URL for path on this server.
func (ps *PredictionServer) Endpoint(path string) string {
	return ps.URL + path
}

// Requests returns the calls received so far.
func (ps *PredictionServer) Requests() []Request {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return append([]Request(nil), ps.requests...)
}

// Hits returns how many calls were received.
func (ps *PredictionServer) Hits() int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return len(ps.requests)
}

// Arrived returns a channel that receives once per inbound call, before the
// reply is written.
func (ps *PredictionServer) Arrived() <-chan struct{} {
	return ps.arrived
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// CaptureTemplateOutput executes a render function that writes to an io.Writer,
// returning both the string result and the writer contents.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}

	return out, buf.String()
}
