package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/onboard/internal/logging"
	"github.com/aretw0/onboard/pkg/auth"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed openapi.yaml
var rawSpec []byte

// loadSpec parses the embedded API description once.
var loadSpec = sync.OnceValues(func() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(rawSpec)
	if err != nil {
		return nil, err
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, err
	}
	return doc, nil
})

// Engine is the part of the onboarding engine the HTTP surface drives.
type Engine interface {
	Start(ctx context.Context, sessionID string, user domain.User) (*domain.View, error)
	StartManual(ctx context.Context, sessionID string, user domain.User, business domain.Business) (*domain.View, error)
	DraftContactEmail(ctx context.Context, sessionID, email string) (*domain.View, error)
	Select(ctx context.Context, sessionID string, user domain.User, taxCode string) (*domain.View, error)
	Advance(ctx context.Context, sessionID string, user domain.User) (*domain.View, error)
	Resume(ctx context.Context, sessionID string) (*domain.View, error)
	Back(ctx context.Context, sessionID string) (*domain.View, error)
	Forward(ctx context.Context, sessionID string) (*domain.View, error)
	Cancel(ctx context.Context, sessionID string) (*domain.View, error)
	Delete(ctx context.Context, sessionID string) error
	Sessions(ctx context.Context) ([]string, error)
}

// Server routes HTTP requests to the engine and fans views out to subscribers.
type Server struct {
	Engine  Engine
	Streams *StreamManager

	version  string
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics exposes the gatherer at /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithVersion sets the application version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		Engine:  engine,
		Streams: NewStreamManager(),
		version: "dev",
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger

	r := chi.NewRouter()
	r.Use(enableCORS, bearerToken)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Route("/{sessionId}", func(r chi.Router) {
			r.Get("/", s.Resume)
			r.Delete("/", s.DeleteSession)
			r.Get("/events", s.SubscribeEvents)
			r.Post("/start", s.StartSession)
			r.Post("/manual", s.StartManual)
			r.Put("/email", s.DraftContactEmail)
			r.Post("/select", s.Select)
			r.Post("/advance", s.Advance)
			r.Post("/back", s.navigate(engine.Back))
			r.Post("/forward", s.navigate(engine.Forward))
			r.Post("/cancel", s.navigate(engine.Cancel))
		})
	})

	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// bearerToken makes the caller's credential available to the backend guard.
func bearerToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := auth.ParseBearer(r.Header.Get("Authorization")); token != "" {
			r = r.WithContext(auth.WithToken(r.Context(), token))
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Onboard API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

type userRequest struct {
	User domain.User `json:"user"`
}

type manualRequest struct {
	User     domain.User     `json:"user"`
	Business domain.Business `json:"business"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type selectRequest struct {
	User    domain.User `json:"user"`
	TaxCode string      `json:"taxCode"`
}

type problem struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
}

// StartSession handles POST /sessions/{sessionId}/start.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	var body userRequest
	if !s.decode(w, r, &body) {
		return
	}
	view, err := s.Engine.Start(r.Context(), sessionID(r), body.User)
	s.respond(w, r, view, err)
}

// StartManual handles POST /sessions/{sessionId}/manual.
func (s *Server) StartManual(w http.ResponseWriter, r *http.Request) {
	var body manualRequest
	if !s.decode(w, r, &body) {
		return
	}
	if body.Business.BusinessTaxID == "" {
		s.fail(w, r, http.StatusBadRequest, errors.New("business.businessTaxId is required"))
		return
	}
	view, err := s.Engine.StartManual(r.Context(), sessionID(r), body.User, body.Business)
	s.respond(w, r, view, err)
}

// DraftContactEmail handles PUT /sessions/{sessionId}/email.
func (s *Server) DraftContactEmail(w http.ResponseWriter, r *http.Request) {
	var body emailRequest
	if !s.decode(w, r, &body) {
		return
	}
	view, err := s.Engine.DraftContactEmail(r.Context(), sessionID(r), body.Email)
	s.respond(w, r, view, err)
}

// Select handles POST /sessions/{sessionId}/select.
func (s *Server) Select(w http.ResponseWriter, r *http.Request) {
	var body selectRequest
	if !s.decode(w, r, &body) {
		return
	}
	view, err := s.Engine.Select(r.Context(), sessionID(r), body.User, body.TaxCode)
	s.respond(w, r, view, err)
}

// Advance handles POST /sessions/{sessionId}/advance.
func (s *Server) Advance(w http.ResponseWriter, r *http.Request) {
	var body userRequest
	if !s.decode(w, r, &body) {
		return
	}
	view, err := s.Engine.Advance(r.Context(), sessionID(r), body.User)
	s.respond(w, r, view, err)
}

// Resume handles GET /sessions/{sessionId}. It never reaches the backend.
func (s *Server) Resume(w http.ResponseWriter, r *http.Request) {
	view, err := s.Engine.Resume(r.Context(), sessionID(r))
	s.write(w, r, view, err)
}

func (s *Server) navigate(fn func(context.Context, string) (*domain.View, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := fn(r.Context(), sessionID(r))
		s.respond(w, r, view, err)
	}
}

// DeleteSession handles DELETE /sessions/{sessionId}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.Delete(r.Context(), sessionID(r)); err != nil {
		s.fail(w, r, StatusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.Sessions(r.Context())
	if err != nil {
		s.fail(w, r, StatusFor(err), err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids, s.logger)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, s.logger)
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if spec, err := loadSpec(); err == nil && spec.Info != nil {
		apiVersion = spec.Info.Version
	} else if err != nil {
		s.logger.Error("failed to load openapi spec", "err", err)
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "onboard-http",
		"version":     s.version,
		"api_version": apiVersion,
	}, s.logger)
}

// respond writes the view and broadcasts it to the session's subscribers.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, view *domain.View, err error) {
	if err == nil && view != nil {
		if payload, mErr := json.Marshal(view); mErr == nil {
			s.Streams.Broadcast(view.SessionID, string(payload))
		}
	}
	s.write(w, r, view, err)
}

func (s *Server) write(w http.ResponseWriter, r *http.Request, view *domain.View, err error) {
	if err != nil {
		s.fail(w, r, StatusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, view, s.logger)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.fail(w, r, http.StatusBadRequest, errors.New("invalid request body"))
		return false
	}
	return true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.logger.Log(r.Context(), level, "request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"err", err,
	)
	writeJSON(w, status, problem{Status: status, Error: err.Error()}, s.logger)
}

// StatusFor maps engine errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnknownBusiness), errors.Is(err, domain.ErrContactRequired):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrWrongStep),
		errors.Is(err, domain.ErrCallInFlight),
		errors.Is(err, domain.ErrStale),
		errors.Is(err, domain.ErrNoHistory):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func sessionID(r *http.Request) string {
	return chi.URLParam(r, "sessionId")
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "err", err)
	}
}
