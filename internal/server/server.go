// Package server exposes the intake flow over HTTP: server-rendered HTML
// pages for browsers and a JSON endpoint for programmatic callers.
package server

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/goliatone/go-riskintake/pkg/intake"
	"github.com/goliatone/go-riskintake/pkg/recommend"
	"github.com/goliatone/go-riskintake/pkg/render"
)

// Options are the collaborators a Server needs.
type Options struct {
	Factory        intake.FormFactory
	Catalog        *recommend.Catalog
	Renderers      *render.Registry
	Assets         fs.FS
	AllowedOrigins []string
	Logger         *zap.Logger
}

// Server routes requests to the intake flow. Every request builds its own
// form, so no state is shared between requests.
type Server struct {
	factory   intake.FormFactory
	catalog   *recommend.Catalog
	renderers *render.Registry
	assets    fs.FS
	origins   []string
	selector  intake.Selector
	links     render.PathLinks
	logger    *zap.Logger
}

// New validates opts and returns a Server.
func New(opts Options) (*Server, error) {
	if opts.Factory == nil {
		return nil, eris.New("server: form factory is required")
	}
	if opts.Renderers == nil || len(opts.Renderers.List()) == 0 {
		return nil, eris.New("server: at least one renderer is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.L()
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &Server{
		factory:   opts.Factory,
		catalog:   opts.Catalog,
		renderers: opts.Renderers,
		assets:    opts.Assets,
		origins:   origins,
		selector:  intake.NewSelector(),
		logger:    logger,
	}, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/", s.handleSelector)
	r.Get("/intake/{role}", s.handleIntake)
	r.Post("/intake/{role}", s.handleIntakeSubmit)

	if s.assets != nil {
		r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.FS(s.assets))))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
		r.Post("/assess/{role}", s.handleAssess)
	})

	return r
}

// Run serves handler on addr until ctx is cancelled, then drains in-flight
// requests for up to shutdownTimeout.
func Run(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration) error {
	logger := zap.L()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "server shutdown")
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "server listen")
	}
	return nil
}

func accessLog(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("http request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("elapsed", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("remote", r.RemoteAddr),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
