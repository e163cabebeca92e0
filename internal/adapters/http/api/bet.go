package api

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/okian/valodds/internal/domain/model"
	"github.com/okian/valodds/pkg/logger"
)

// BetDependencies defines the interface for bet scoring.
type BetDependencies interface {
	ComputeBetScore(ctx context.Context, req model.BetRequest) (BetScore, error)
}

// BetHandler handles bet score requests.
type BetHandler struct {
	deps         BetDependencies
	maxBodyBytes int64
	logger       logger.Logger
}

// NewBetHandler creates a new bet handler.
func NewBetHandler(deps BetDependencies, maxBodyBytes int64, l logger.Logger) *BetHandler {
	return &BetHandler{deps: deps, maxBodyBytes: maxBodyBytes, logger: l}
}

// HandleCalculate handles POST /calculate-performance requests.
func (h *BetHandler) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	const op = "api.calculate_performance"

	var req betRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := h.deps.ComputeBetScore(r.Context(), model.BetRequest{
		UserID:            strings.TrimSpace(req.UserID),
		Predicted:         *req.PredictedPerformance,
		Stake:             req.Stake,
		UseRankAdjustment: req.UseRankAdjustment,
	})
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (b betRequest) validate() error {
	switch {
	case strings.TrimSpace(b.UserID) == "":
		return errors.New("missing userId")
	case b.PredictedPerformance == nil:
		return errors.New("missing predicted_performance")
	case b.Stake != nil && *b.Stake < 0:
		return errors.New("stake must not be negative")
	}
	for m, v := range b.PredictedPerformance.Values() {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("predicted_performance.%s must be a non-negative number", m)
		}
	}
	return nil
}
