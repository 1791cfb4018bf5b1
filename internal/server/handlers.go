package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/goliatone/go-riskintake/pkg/intake"
	"github.com/goliatone/go-riskintake/pkg/model"
	"github.com/goliatone/go-riskintake/pkg/predict"
	"github.com/goliatone/go-riskintake/pkg/render"
)

// maxFormBytes caps request bodies on the intake routes.
const maxFormBytes = 64 << 10

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSelector(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, render.SelectorPage(s.selector, s.links))
}

// handleIntake shows a fresh form seeded with defaults.
func (s *Server) handleIntake(w http.ResponseWriter, r *http.Request) {
	form, ok := s.openForm(w, r)
	if !ok {
		return
	}
	defer form.Close()

	s.renderPage(w, r, http.StatusOK, render.FormPage(form, s.catalog, s.links))
}

// handleIntakeSubmit applies the posted values, submits once and re-renders
// the form with its outcome.
func (s *Server) handleIntakeSubmit(w http.ResponseWriter, r *http.Request) {
	form, ok := s.openForm(w, r)
	if !ok {
		return
	}
	defer form.Close()

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}
	for _, spec := range form.Definition().Fields {
		if _, posted := r.PostForm[spec.Name]; !posted {
			continue
		}
		// Rejected values are recorded as field errors on the form.
		_, _ = form.Set(spec.Name, r.PostForm.Get(spec.Name))
	}

	if _, err := form.Submit(r.Context()); err != nil {
		s.logger.Warn("submission not settled",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
	}
	s.renderPage(w, r, http.StatusOK, render.FormPage(form, s.catalog, s.links))
}

type assessResponse struct {
	Outcome         string                     `json:"outcome"`
	SubmissionID    string                     `json:"submission_id,omitempty"`
	Result          *predict.Result            `json:"result,omitempty"`
	Error           string                     `json:"error,omitempty"`
	FieldErrors     map[string]string          `json:"field_errors,omitempty"`
	Recommendations *render.RecommendationView `json:"recommendations,omitempty"`
}

// handleAssess is the JSON variant of handleIntakeSubmit. Succeeded answers
// 200, field problems 422 and service failures 502.
func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	form, ok := s.openForm(w, r)
	if !ok {
		return
	}
	defer form.Close()

	var body map[string]any
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormBytes))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, assessResponse{Outcome: intake.OutcomeFailed.String(), Error: "invalid JSON body"})
		return
	}

	rejected := false
	for name, raw := range body {
		if _, err := form.SetAny(name, raw); err != nil {
			if errors.Is(err, model.ErrUnknownField) {
				writeJSON(w, http.StatusBadRequest, assessResponse{
					Outcome: intake.OutcomeFailed.String(),
					Error:   "unknown field " + name,
				})
				return
			}
			rejected = true
		}
	}
	if rejected {
		errs := form.FieldErrors()
		writeJSON(w, http.StatusUnprocessableEntity, assessResponse{
			Outcome:     intake.OutcomeFailed.String(),
			Error:       firstFieldError(form, errs),
			FieldErrors: errs,
		})
		return
	}

	outcome, err := form.Submit(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, assessResponse{
			Outcome: intake.OutcomeFailed.String(),
			Error:   predict.DefaultErrorMessage,
		})
		return
	}

	resp := assessResponse{
		Outcome:      outcome.Kind.String(),
		SubmissionID: outcome.SubmissionID,
	}
	status := http.StatusOK
	switch outcome.Kind {
	case intake.OutcomeSucceeded:
		resp.Result = outcome.Result
		if outcome.Result != nil {
			def := form.Definition()
			view := render.BuildResult(def.ID, def.ShowProbability, *outcome.Result, s.catalog)
			resp.Recommendations = view.Recommendations
		}
	case intake.OutcomeFailed:
		resp.Error = outcome.Message
		resp.FieldErrors = form.FieldErrors()
		status = http.StatusBadGateway
		if resp.FieldErrors != nil {
			status = http.StatusUnprocessableEntity
		}
	}
	writeJSON(w, status, resp)
}

// openForm resolves the {role} parameter and builds a form bound to the
// request context. It writes a 404 when the role is unknown.
func (s *Server) openForm(w http.ResponseWriter, r *http.Request) (*intake.Form, bool) {
	role, err := intake.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		http.NotFound(w, r)
		return nil, false
	}
	form, err := s.factory(r.Context(), role)
	if err != nil {
		s.logger.Error("build form", zap.String("role", string(role)), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return nil, false
	}
	return form, true
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, page render.Page) {
	renderer, err := s.renderers.Negotiate(r.Header.Get("Accept"))
	if err != nil {
		s.logger.Error("negotiate renderer", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	body, err := renderer.Render(r.Context(), page)
	if err != nil {
		s.logger.Error("render page",
			zap.String("renderer", renderer.Name()),
			zap.String("view", string(page.View)),
			zap.Error(err),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", renderer.ContentType())
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func firstFieldError(form *intake.Form, errs map[string]string) string {
	for _, spec := range form.Definition().Fields {
		if msg, ok := errs[spec.Name]; ok {
			return msg
		}
	}
	return predict.DefaultErrorMessage
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
