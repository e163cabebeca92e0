// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/okian/valodds/internal/domain/model"
	"github.com/okian/valodds/internal/domain/types"
	"github.com/okian/valodds/pkg/logger"
)

const defaultMaxBodyBytes int64 = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	BetDependencies
	AverageDependencies
}

// BetScore mirrors the read shape returned by POST /calculate-performance.
type BetScore = types.BetScore

// AveragePerformance mirrors the read shape returned by POST /average-performance.
type AveragePerformance = types.AveragePerformance

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithLogger sets the logger used for server-side failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	maxBodyBytes int64
	logger       logger.Logger

	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	betHandler     *BetHandler
	averageHandler *AverageHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		maxBodyBytes: defaultMaxBodyBytes,
		logger:       logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.betHandler = NewBetHandler(deps, s.maxBodyBytes, s.logger)
	s.averageHandler = NewAverageHandler(deps, s.maxBodyBytes, s.logger)
	return s
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r *mux.Router) {
	r.Use(RequestIDMiddleware)

	r.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz")).Methods(http.MethodGet)
	r.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats")).Methods(http.MethodGet)
	r.HandleFunc("/calculate-performance", MetricsMiddleware(s.betHandler.HandleCalculate, "calculate_performance")).Methods(http.MethodPost)
	r.HandleFunc("/average-performance", MetricsMiddleware(s.averageHandler.HandleAverage, "average_performance")).Methods(http.MethodPost)

	r.NotFoundHandler = RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", nil)
	}))
	r.MethodNotAllowedHandler = RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	}))
}

// betRequest mirrors the OpenAPI schema for POST /calculate-performance.
type betRequest struct {
	UserID               string                      `json:"userId"`
	PredictedPerformance *model.PredictedPerformance `json:"predicted_performance"`
	Stake                *int                        `json:"stake,omitempty"`
	UseRankAdjustment    *bool                       `json:"use_rank_adjustment,omitempty"`
}

// userRequest mirrors the OpenAPI schema for POST /average-performance.
type userRequest struct {
	UserID string `json:"userId"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const encodeFailureBody = `{"code":"internal_error","message":"response encoding failed"}` + "\n"

// writeJSON encodes v before the status line goes out, so a value that
// cannot be encoded turns into a 500 instead of a truncated response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, encodeFailureBody)
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps an upstream failure to 400, 404 or 500. Details of
// internal failures are logged, not returned.
func writeServiceError(ctx context.Context, w http.ResponseWriter, l logger.Logger, op string, err error) {
	if isBadRequest(err) {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if isNotFound(err) {
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
		return
	}
	l.Error(ctx, "request failed", logger.String("op", op), logger.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", NewKind(op, ErrInternal))
}

// decodeJSON reads exactly one JSON object from the body. Unknown fields,
// trailing data and bodies over limit are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errors.New("request body too large")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// isNotFound translates upstream lookup misses to 404 without importing
// the packages that produce them.
func isNotFound(err error) bool {
	var nf interface{ NotFound() bool }
	if errors.As(err, &nf) {
		return nf.NotFound()
	}
	return errors.Is(err, ErrNotFound)
}

// isBadRequest picks out upstream errors caused by the caller's input.
func isBadRequest(err error) bool {
	var br interface{ BadRequest() bool }
	if errors.As(err, &br) {
		return br.BadRequest()
	}
	return errors.Is(err, ErrBadRequest)
}
