// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/attreval/internal/app"
	"github.com/okian/attreval/internal/domain/model"
	"github.com/okian/attreval/internal/domain/normalize"
)

const (
	defaultMaxRecords   = 1_000_000
	defaultMaxBodyBytes = 64 << 20
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	ScoreRecords(ctx context.Context, records []model.ValueRecord) service.Summary
}

// Summary mirrors the shape returned by POST /v1/score.
type Summary = service.Summary

// Server wires HTTP routes for the evaluation API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	scoreHandler     *ScoreHandler
	normalizeHandler *NormalizeHandler
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxRecords caps the number of records per score request.
func WithMaxRecords(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.scoreHandler.maxRecords = n
		}
	}
}

// WithMaxBodyBytes caps request body size.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.scoreHandler.maxBodyBytes = n
			s.normalizeHandler.maxBodyBytes = n
		}
	}
}

// WithNormalizer replaces the value normalizer.
func WithNormalizer(n normalize.Normalizer) Option {
	return func(s *Server) {
		if n != nil {
			s.normalizeHandler.normalizer = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		scoreHandler:     NewScoreHandler(deps),
		normalizeHandler: NewNormalizeHandler(normalize.Default{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/v1/score", MetricsMiddleware(s.scoreHandler.HandlePostScore, "score"))
	mux.HandleFunc("/v1/normalize", MetricsMiddleware(s.normalizeHandler.HandlePostNormalize, "normalize"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// allowMethod answers 405 unless r uses method.
func allowMethod(w http.ResponseWriter, r *http.Request, op, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", NewKind(op, ErrMethodNotAllowed))
	return false
}

// decodeJSON reads one JSON document of at most limit bytes into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeDecodeError answers 413 when the body hit the size limit and 400 for
// any other decode failure.
func writeDecodeError(w http.ResponseWriter, op string, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", WrapKind(op, ErrBodyTooLarge, err))
		return
	}
	writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
}
