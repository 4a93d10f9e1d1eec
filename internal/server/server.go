package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	theme "github.com/goliatone/go-theme"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/goliatone/go-contactform/internal/metrics"
	"github.com/goliatone/go-contactform/pkg/contact"
	"github.com/goliatone/go-contactform/pkg/model"
	"github.com/goliatone/go-contactform/pkg/render"
	"github.com/goliatone/go-contactform/pkg/validation"
)

// SessionCookie names the cookie carrying the form session id.
const SessionCookie = "contactform_session"

// Options wires the server's collaborators.
type Options struct {
	Form        model.FormModel
	Registry    *render.Registry
	Renderer    string
	Logger      *zap.Logger
	Metrics     *metrics.FormMetrics
	Gatherer    prometheus.Gatherer
	Theme       *theme.RendererConfig
	FormOptions []contact.Option
	SessionTTL  time.Duration
	MaxSessions int
}

// Server hosts contact form sessions over HTTP.
type Server struct {
	form        model.FormModel
	validator   *validation.Validator
	registry    *render.Registry
	renderer    string
	logger      *zap.Logger
	metrics     *metrics.FormMetrics
	gatherer    prometheus.Gatherer
	theme       *theme.RendererConfig
	formOptions []contact.Option
	sessions    *SessionStore
}

// New validates opts and builds a Server.
func New(opts Options) (*Server, error) {
	if opts.Registry == nil {
		return nil, errors.New("server: renderer registry is required")
	}
	if len(opts.Form.Fields) == 0 {
		return nil, errors.New("server: form model has no fields")
	}
	if err := contact.Supports(opts.Form); err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	if _, err := opts.Registry.Resolve(opts.Renderer); err != nil {
		return nil, err
	}
	if _, err := opts.Registry.Get("json"); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		form:        opts.Form,
		validator:   validation.New(opts.Form),
		registry:    opts.Registry,
		renderer:    opts.Renderer,
		logger:      logger,
		metrics:     opts.Metrics,
		gatherer:    opts.Gatherer,
		theme:       opts.Theme,
		formOptions: opts.FormOptions,
	}
	s.sessions = NewSessionStore(opts.SessionTTL, opts.MaxSessions, s.newForm)
	s.sessions.onChange = s.metrics.SetActiveSessions
	return s, nil
}

// Sessions exposes the session store.
func (s *Server) Sessions() *SessionStore {
	return s.sessions
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/contact", func(r chi.Router) {
		r.Get("/", s.handleShow)
		r.Post("/", s.handleSubmit)
		r.Post("/reset", s.handleReset)
		r.Post("/fields/{field}", s.handleField)
	})

	r.Route("/api/contact", func(r chi.Router) {
		r.Post("/", s.handleAPISubmit)
		r.Post("/validate", s.handleAPIValidate)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// within grace.
func (s *Server) ListenAndServe(ctx context.Context, addr string, grace time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) newForm() *contact.Form {
	return contact.NewForm(s.validator, s.formOptions...)
}
