// internal/api/handler/api/trades.go
package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/quantumtrade/tradebot/internal/api/response"
	"github.com/quantumtrade/tradebot/internal/core"
	"github.com/quantumtrade/tradebot/internal/storage/trade"
)

const (
	defaultTradeLimit = 50
	maxTradeLimit     = 500
)

// TradesHandler handles trade history API requests.
type TradesHandler struct {
	store trade.Store
}

// NewTradesHandler creates a new trades handler.
func NewTradesHandler(store trade.Store) *TradesHandler {
	return &TradesHandler{store: store}
}

// List returns trades matching query parameters.
func (h *TradesHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseTradeFilter(r.URL.Query())
	if err != nil {
		response.FromError(w, err)
		return
	}

	trades, err := h.store.List(r.Context(), filter)
	if err != nil {
		response.FromError(w, err)
		return
	}

	countFilter := filter
	countFilter.Limit, countFilter.Offset = 0, 0
	count, err := h.store.Count(r.Context(), countFilter)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"trades": trades,
		"total":  count,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// GetByID returns a single trade by ID.
func (h *TradesHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	t, err := h.store.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, t)
}

func parseTradeFilter(q url.Values) (trade.ListFilter, error) {
	filter := trade.ListFilter{
		Symbol: strings.ToUpper(strings.TrimSpace(q.Get("symbol"))),
		Limit:  defaultTradeLimit,
	}

	if v := q.Get("signal"); v != "" {
		sig, err := core.ParseSignal(v)
		if err != nil {
			return filter, core.WrapError(core.ErrInvalidInput, err)
		}
		filter.Signal = sig
	}

	var err error
	if filter.From, err = parseTime("from", q.Get("from")); err != nil {
		return filter, err
	}
	if filter.To, err = parseTime("to", q.Get("to")); err != nil {
		return filter, err
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return filter, core.WrapError(core.ErrInvalidInput, fmt.Errorf("limit must be a positive integer, got %q", v))
		}
		filter.Limit = min(n, maxTradeLimit)
	}

	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filter, core.WrapError(core.ErrInvalidInput, fmt.Errorf("offset must be a non-negative integer, got %q", v))
		}
		filter.Offset = n
	}

	return filter, nil
}

// parseTime accepts RFC 3339 timestamps or plain dates.
func parseTime(name, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, nil
	}
	return time.Time{}, core.WrapError(core.ErrInvalidInput, fmt.Errorf("%s: unrecognized time %q", name, v))
}
