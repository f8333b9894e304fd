// Package http exposes a path manager over HTTP.
//
// Routes:
//
//	GET  /health          liveness
//	GET  /info            version
//	GET  /modes           mode table, with the current mode flagged
//	POST /modes/{mode}    change the optical path
//	GET  /state           persisted path state
//	PUT  /quality         acquisition quality
//	GET  /graph           affects graph (JSON, or Mermaid with ?format=mermaid)
//	GET  /events          path changes as server-sent events
//	GET  /metrics         Prometheus metrics, when configured
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"strings"

	"github.com/delmic/odemis-sub008"
	"github.com/delmic/odemis-sub008/internal/logging"
	"github.com/delmic/odemis-sub008/internal/presentation/graph"
	"github.com/delmic/odemis-sub008/pkg/domain"
	"github.com/delmic/odemis-sub008/pkg/future"
	"github.com/go-chi/chi/v5"
)

// PathManager is the part of optpath.Manager served over HTTP.
type PathManager interface {
	ApplyMode(mode string, detector domain.Component) *future.Future
	SetAcquisitionQuality(q domain.Quality)
	Table() domain.ModeTable
	State() *domain.PathState
	Components() []domain.Component
	Graph() *optpath.Graph
}

var _ PathManager = (*optpath.Manager)(nil)

// Server serves a PathManager.
type Server struct {
	Manager PathManager
	Streams *StreamManager

	metrics http.Handler
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithMetrics serves h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithStreams sets the event broadcaster behind GET /events.
// Its Hooks must be registered on the manager for events to flow.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates a new HTTP handler for the path manager.
func NewHandler(mgr PathManager, opts ...Option) http.Handler {
	s := &Server{Manager: mgr, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/modes", s.ListModes)
	r.Post("/modes/{mode}", s.ApplyMode)
	r.Get("/state", s.GetState)
	r.Put("/quality", s.SetQuality)
	r.Get("/graph", s.GetGraph)
	r.Get("/events", s.SubscribeEvents)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ModeInfo describes one mode of the table.
type ModeInfo struct {
	Name     string   `json:"name"`
	Detector string   `json:"detector"`
	Align    bool     `json:"align"`
	Current  bool     `json:"current"`
	Roles    []string `json:"roles"`
}

// ApplyRequest is the optional body of POST /modes/{mode}.
type ApplyRequest struct {
	// Detector is the name of the target detector, when the mode's own is not wanted.
	Detector string `json:"detector,omitempty"`
	// Async returns 202 as soon as the change is queued.
	Async bool `json:"async,omitempty"`
}

// QualityRequest is the body of PUT /quality.
type QualityRequest struct {
	Quality domain.Quality `json:"quality"`
}

// GraphNode is one component of the affects graph.
type GraphNode struct {
	Name    string   `json:"name"`
	Role    string   `json:"role"`
	Affects []string `json:"affects"`
	Axes    []string `json:"axes,omitempty"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "optpath-http",
		"version": strings.TrimSpace(optpath.Version),
		"family":  string(s.Manager.Table().Family),
	})
}

// ListModes handles the GET /modes request.
func (s *Server) ListModes(w http.ResponseWriter, r *http.Request) {
	current := s.Manager.State().LastMode
	table := s.Manager.Table()
	out := make([]ModeInfo, 0, len(table.Modes))
	for _, m := range table.Modes {
		out = append(out, ModeInfo{
			Name:     m.Name,
			Detector: m.DetectorPattern,
			Align:    m.Align,
			Current:  m.Name == current,
			Roles:    m.Roles(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// ApplyMode handles the POST /modes/{mode} request.
func (s *Server) ApplyMode(w http.ResponseWriter, r *http.Request) {
	mode := chi.URLParam(r, "mode")

	var body ApplyRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			s.logger.Warn("ApplyMode: invalid request body", "err", err)
			return
		}
	}

	var detector domain.Component
	if body.Detector != "" {
		detector = s.component(body.Detector)
		if detector == nil {
			http.Error(w, fmt.Sprintf("Unknown detector %q", body.Detector), http.StatusNotFound)
			return
		}
	}

	fut := s.Manager.ApplyMode(mode, detector)
	if body.Async {
		writeJSON(w, http.StatusAccepted, map[string]string{"mode": mode, "status": "queued"})
		return
	}

	if err := fut.Wait(r.Context()); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// The client went away; the path change goes on without it.
			return
		}
		http.Error(w, fmt.Sprintf("Path change failed: %v", err), statusFor(err))
		s.logger.Error("ApplyMode failed", "mode", mode, "err", err)
		return
	}
	writeJSON(w, http.StatusOK, s.Manager.State())
}

func (s *Server) component(name string) domain.Component {
	for _, c := range s.Manager.Components() {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

// statusFor maps path errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnknownMode), errors.Is(err, domain.ErrComponentNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSuperseded), errors.Is(err, domain.ErrCancelled):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNoModeInferred), errors.Is(err, domain.ErrConflictingTarget):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrClosed):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// GetState handles the GET /state request.
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Manager.State())
}

// SetQuality handles the PUT /quality request.
func (s *Server) SetQuality(w http.ResponseWriter, r *http.Request) {
	var body QualityRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	switch body.Quality {
	case domain.QualityFast, domain.QualityBest:
	default:
		http.Error(w, fmt.Sprintf("Invalid quality %q", body.Quality), http.StatusBadRequest)
		return
	}
	s.Manager.SetAcquisitionQuality(body.Quality)
	w.WriteHeader(http.StatusNoContent)
}

// GetGraph handles the GET /graph request.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	components := s.Manager.Components()

	if r.URL.Query().Get("format") == "mermaid" {
		var overlay *graph.GraphOverlay
		if target := s.currentTarget(); target != "" {
			overlay = graph.PathOverlay(s.Manager.Graph(), components, target)
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, graph.GenerateMermaid(components, overlay))
		return
	}

	nodes := make([]GraphNode, 0, len(components))
	for _, c := range components {
		nodes = append(nodes, GraphNode{
			Name:    c.Name(),
			Role:    c.Role(),
			Affects: c.Affects(),
			Axes:    slices.Sorted(maps.Keys(c.Axes())),
		})
	}
	writeJSON(w, http.StatusOK, nodes)
}

// currentTarget returns the name of the detector of the last mode, or "".
func (s *Server) currentTarget() string {
	mode, ok := s.Manager.Table().Lookup(s.Manager.State().LastMode)
	if !ok {
		return ""
	}
	for _, c := range s.Manager.Components() {
		if domain.MatchRole(mode.DetectorPattern, c.Role()) {
			return c.Name()
		}
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}
