package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/aretw0/wayfarer"
	"github.com/aretw0/wayfarer/internal/logging"
	"github.com/aretw0/wayfarer/internal/presentation/graph"
	"github.com/aretw0/wayfarer/pkg/domain"
)

//go:embed openapi.yaml
var rawSpec []byte

// maxBodySize bounds request bodies; the planner applies its own, smaller
// limit to the message itself.
const maxBodySize = 64 << 10

// GetSwagger parses the embedded OpenAPI document.
func GetSwagger() (*openapi3.T, error) {
	return openapi3.NewLoader().LoadFromData(rawSpec)
}

// Planner is the part of wayfarer.Planner the HTTP API needs.
type Planner interface {
	ProcessInput(ctx context.Context, sessionID, text string) (domain.Reply, error)
	Snapshot(ctx context.Context, sessionID string) (domain.State, error)
	Reset(ctx context.Context, sessionID string) (domain.Reply, error)
	Delete(ctx context.Context, sessionID string) error
	Sessions(ctx context.Context) ([]string, error)
	Calendar(ctx context.Context, sessionID string) (string, error)
	Graph() domain.GraphExport
}

// Server serves the planner over HTTP.
type Server struct {
	Planner Planner
	Streams *StreamManager

	metrics http.Handler
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithMetricsHandler serves h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewHandler creates a new HTTP handler for the planner.
func NewHandler(p Planner, opts ...Option) http.Handler {
	s := &Server{
		Planner: p,
		Streams: NewStreamManager(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(enableCORS)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.CreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Post("/messages", s.PostMessage)
			r.Post("/reset", s.ResetSession)
			r.Get("/events", s.SubscribeEvents)
			r.Get("/calendar.ics", s.GetCalendar)
			r.Get("/graph.mmd", s.GetSessionGraph)
		})
	})
	r.Get("/graph", s.GetGraph)
	r.Get("/graph.mmd", s.GetGraphMermaid)
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

type messageRequest struct {
	Message string `json:"message"`
}

type sessionCreated struct {
	SessionID string       `json:"session_id"`
	Reply     domain.Reply `json:"reply"`
}

// PostMessage handles POST /sessions/{id}/messages.
func (s *Server) PostMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body messageRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&body); err != nil {
		s.logger.Warn("PostMessage: Invalid request body", "err", err)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := s.Planner.ProcessInput(r.Context(), id, body.Message)
	if err != nil {
		s.fail(w, "PostMessage", id, err)
		return
	}
	s.broadcast(id, reply)
	writeJSON(w, http.StatusOK, reply)
}

// CreateSession handles POST /sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	reply, err := s.Planner.Reset(r.Context(), id)
	if err != nil {
		s.fail(w, "CreateSession", id, err)
		return
	}
	w.Header().Set("Location", "/sessions/"+id)
	writeJSON(w, http.StatusCreated, sessionCreated{SessionID: id, Reply: reply})
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Planner.Sessions(r.Context())
	if err != nil {
		s.fail(w, "ListSessions", "", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	state, err := s.Planner.Snapshot(r.Context(), id)
	if err != nil {
		s.fail(w, "GetSession", id, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Planner.Delete(r.Context(), id); err != nil {
		s.fail(w, "DeleteSession", id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResetSession handles POST /sessions/{id}/reset.
func (s *Server) ResetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	reply, err := s.Planner.Reset(r.Context(), id)
	if err != nil {
		s.fail(w, "ResetSession", id, err)
		return
	}
	s.broadcast(id, reply)
	writeJSON(w, http.StatusOK, reply)
}

// GetCalendar handles GET /sessions/{id}/calendar.ics.
func (s *Server) GetCalendar(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ics, err := s.Planner.Calendar(r.Context(), id)
	if err != nil {
		s.fail(w, "GetCalendar", id, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="trip-%s.ics"`, id))
	_, _ = w.Write([]byte(ics))
}

// GetSessionGraph handles GET /sessions/{id}/graph.mmd.
func (s *Server) GetSessionGraph(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	state, err := s.Planner.Snapshot(r.Context(), id)
	if err != nil {
		s.fail(w, "GetSessionGraph", id, err)
		return
	}
	g := s.Planner.Graph()
	writeText(w, graph.GenerateMermaid(g, graph.OverlayFor(g, state)))
}

// GetGraph handles GET /graph.
func (s *Server) GetGraph(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Planner.Graph())
}

// GetGraphMermaid handles GET /graph.mmd.
func (s *Server) GetGraphMermaid(w http.ResponseWriter, _ *http.Request) {
	writeText(w, graph.GenerateMermaid(s.Planner.Graph(), nil))
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, _ *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "wayfarer-http",
		"version":     strings.TrimSpace(wayfarer.Version),
		"api_version": apiVersion,
	})
}

func (s *Server) broadcast(id string, reply domain.Reply) {
	data, err := json.Marshal(reply)
	if err != nil {
		s.logger.Error("Failed to encode reply for subscribers", "session_id", id, "err", err)
		return
	}
	s.Streams.Broadcast(id, string(data))
}

// fail maps planner errors onto status codes.
func (s *Server) fail(w http.ResponseWriter, op, id string, err error) {
	status := http.StatusInternalServerError
	switch {
	case wayfarer.IsClientError(err):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrNoItinerary):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		s.logger.Error(op+" failed", "session_id", id, "err", err)
		writeError(w, status, "internal error")
		return
	}
	s.logger.Debug(op+" rejected", "session_id", id, "err", err)
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeText(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(body))
}
