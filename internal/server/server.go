// Package server exposes the layout pipeline over HTTP.
//
// The API is deliberately small: one endpoint computes a layout and stores
// the result, one retrieves a stored layout, and a health probe reports
// readiness. Error codes from pkg/errors map onto HTTP statuses so clients
// can react programmatically.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/flowkit/flowkit/pkg/errors"
	"github.com/flowkit/flowkit/pkg/geo"
	"github.com/flowkit/flowkit/pkg/pipeline"
	"github.com/flowkit/flowkit/pkg/rank"
)

// =============================================================================
// Server
// =============================================================================

// Server wires the layout pipeline, the result store, and the HTTP router.
type Server struct {
	runner *pipeline.Runner
	store  Store
	logger *log.Logger

	// ranker overrides the default engine; tests inject fakes here.
	ranker rank.Ranker
}

// Option configures a Server.
type Option func(*Server)

// WithRanker replaces the default Graphviz ranking engine.
func WithRanker(r rank.Ranker) Option {
	return func(s *Server) { s.ranker = r }
}

// New creates a server around the given runner and store.
func New(runner *pipeline.Runner, store Store, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		runner: runner,
		store:  store,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/layout", s.handleLayout)
		r.Get("/layouts/{id}", s.handleGetLayout)
	})
	return r
}

// =============================================================================
// Request / Response Types
// =============================================================================

// LayoutRequest is the POST /api/v1/layout body.
type LayoutRequest struct {
	// Diagram is the document to lay out.
	Diagram json.RawMessage `json:"diagram"`

	// Direction optionally overrides the document's flow direction.
	Direction string `json:"direction,omitempty"`

	// Refresh bypasses the layout cache.
	Refresh bool `json:"refresh,omitempty"`
}

// LayoutResponse is the POST /api/v1/layout answer.
type LayoutResponse struct {
	ID        string          `json:"id"`
	GraphHash string          `json:"graph_hash"`
	Cached    bool            `json:"cached"`
	Canvas    geo.Rect        `json:"canvas"`
	Diagram   json.RawMessage `json:"diagram"`
}

// StoredLayoutResponse is the GET /api/v1/layouts/{id} answer.
type StoredLayoutResponse struct {
	ID        string          `json:"id"`
	GraphHash string          `json:"graph_hash"`
	CreatedAt time.Time       `json:"created_at"`
	Diagram   json.RawMessage `json:"diagram"`
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req LayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request body"))
		return
	}
	if len(req.Diagram) == 0 {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "diagram is required"))
		return
	}

	result, err := s.runner.Execute(r.Context(), pipeline.Options{
		Data:      req.Diagram,
		Direction: req.Direction,
		Refresh:   req.Refresh,
		Logger:    s.logger,
		Ranker:    s.ranker,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	rec := Record{
		ID:        uuid.NewString(),
		GraphHash: result.GraphHash,
		CreatedAt: time.Now().UTC(),
		Document:  result.Output,
	}
	if err := s.store.Put(r.Context(), rec); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "store layout"))
		return
	}

	s.logger.Info("layout stored",
		"id", rec.ID,
		"nodes", result.Stats.NodeCount,
		"cached", result.CacheInfo.LayoutHit,
		"duration", result.Stats.LayoutTime)

	writeJSON(w, http.StatusOK, LayoutResponse{
		ID:        rec.ID,
		GraphHash: result.GraphHash,
		Cached:    result.CacheInfo.LayoutHit,
		Canvas:    result.Graph.Canvas,
		Diagram:   result.Output,
	})
}

func (s *Server) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StoredLayoutResponse{
		ID:        rec.ID,
		GraphHash: rec.GraphHash,
		CreatedAt: rec.CreatedAt,
		Diagram:   rec.Document,
	})
}

// =============================================================================
// Error Mapping
// =============================================================================

// statusFor maps structured error codes onto HTTP statuses.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput,
		errors.ErrCodeInvalidDirection,
		errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidConfig:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound,
		errors.ErrCodeFileNotFound,
		errors.ErrCodeLayoutNotFound:
		return http.StatusNotFound
	case errors.ErrCodeRankingFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)
	if status >= 500 {
		s.logger.Error("request failed", "err", err)
	} else {
		s.logger.Debug("request rejected", "code", code, "err", err)
	}

	var body errorBody
	body.Error.Code = string(code)
	if body.Error.Code == "" {
		body.Error.Code = string(errors.ErrCodeInternal)
	}
	body.Error.Message = errors.UserMessage(err)
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
