// internal/api/handler/api/signal.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/quantumtrade/tradebot/internal/api/response"
	"github.com/quantumtrade/tradebot/internal/core"
	"github.com/quantumtrade/tradebot/internal/strategy"
)

// maxSignalBody caps the size of a posted price series.
const maxSignalBody = 1 << 20

// SignalHandler evaluates caller-supplied price series.
type SignalHandler struct {
	defaults strategy.Config
}

// NewSignalHandler creates a handler whose omitted windows fall back to
// defaults.
func NewSignalHandler(defaults strategy.Config) *SignalHandler {
	return &SignalHandler{defaults: defaults.WithDefaults()}
}

// SignalRequest is the request body for a one-shot evaluation.
type SignalRequest struct {
	Prices      []float64 `json:"prices"`
	ShortWindow *int      `json:"short_window,omitempty"`
	LongWindow  *int      `json:"long_window,omitempty"`
}

// SignalResponse reports the evaluation and the windows it used.
type SignalResponse struct {
	strategy.Evaluation
	ShortWindow int `json:"short_window"`
	LongWindow  int `json:"long_window"`
}

// Compute evaluates the posted series.
func (h *SignalHandler) Compute(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSignalBody)

	var req SignalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		response.Error(w, status,
			core.WrapError(core.ErrInvalidInput, fmt.Errorf("decoding request: %w", err)))
		return
	}

	cfg := h.defaults
	if req.ShortWindow != nil {
		cfg.ShortWindow = *req.ShortWindow
	}
	if req.LongWindow != nil {
		cfg.LongWindow = *req.LongWindow
	}

	engine, err := strategy.New(cfg)
	if err != nil {
		response.FromError(w, err)
		return
	}

	ev, err := engine.Evaluate(req.Prices)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, SignalResponse{
		Evaluation:  ev,
		ShortWindow: cfg.ShortWindow,
		LongWindow:  cfg.LongWindow,
	})
}
