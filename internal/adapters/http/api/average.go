package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/valodds/pkg/logger"
)

// AverageDependencies defines the interface for history averages.
type AverageDependencies interface {
	AveragePerformance(ctx context.Context, userID string) (AveragePerformance, error)
}

// AverageHandler handles average performance requests.
type AverageHandler struct {
	deps         AverageDependencies
	maxBodyBytes int64
	logger       logger.Logger
}

// NewAverageHandler creates a new average handler.
func NewAverageHandler(deps AverageDependencies, maxBodyBytes int64, l logger.Logger) *AverageHandler {
	return &AverageHandler{deps: deps, maxBodyBytes: maxBodyBytes, logger: l}
}

// HandleAverage handles POST /average-performance requests.
func (h *AverageHandler) HandleAverage(w http.ResponseWriter, r *http.Request) {
	const op = "api.average_performance"

	var req userRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing userId")))
		return
	}

	res, err := h.deps.AveragePerformance(r.Context(), userID)
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
