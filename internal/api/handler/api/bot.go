// internal/api/handler/api/bot.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/quantumtrade/tradebot/internal/api/response"
	"github.com/quantumtrade/tradebot/internal/bot"
	"github.com/quantumtrade/tradebot/internal/core"
)

// BotService defines what the handlers need from bot.Bot.
type BotService interface {
	Statuses() []bot.Status
	Current(symbol string) (bot.Status, error)
	Prices(symbol string) ([]float64, error)
	Symbols() []string
	AddSymbol(symbol string) (bool, error)
	RemoveSymbol(symbol string) error
}

// BotHandler exposes the bot's live signals and its symbol list.
type BotHandler struct {
	bot BotService
}

// NewBotHandler creates a new bot handler.
func NewBotHandler(b BotService) *BotHandler {
	return &BotHandler{bot: b}
}

// SymbolRequest is the request body for adding a symbol.
type SymbolRequest struct {
	Symbol string `json:"symbol"`
}

// Signals returns the current signal of every tracked symbol.
func (h *BotHandler) Signals(w http.ResponseWriter, r *http.Request) {
	statuses := h.bot.Statuses()
	response.JSON(w, http.StatusOK, map[string]any{
		"signals": statuses,
		"count":   len(statuses),
	})
}

// Signal returns the current signal of one symbol with its price history.
func (h *BotHandler) Signal(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")

	st, err := h.bot.Current(symbol)
	if err != nil {
		response.FromError(w, err)
		return
	}
	prices, err := h.bot.Prices(symbol)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"status": st,
		"prices": prices,
	})
}

// Symbols lists the tracked symbols.
func (h *BotHandler) Symbols(w http.ResponseWriter, r *http.Request) {
	symbols := h.bot.Symbols()
	response.JSON(w, http.StatusOK, map[string]any{
		"symbols": symbols,
		"count":   len(symbols),
	})
}

// AddSymbol starts tracking a symbol.
func (h *BotHandler) AddSymbol(w http.ResponseWriter, r *http.Request) {
	var req SymbolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrInvalidInput, fmt.Errorf("decoding request: %w", err)))
		return
	}

	added, err := h.bot.AddSymbol(req.Symbol)
	if err != nil {
		response.FromError(w, err)
		return
	}

	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	response.JSON(w, status, map[string]any{
		"symbol": req.Symbol,
		"added":  added,
	})
}

// RemoveSymbol stops tracking a symbol.
func (h *BotHandler) RemoveSymbol(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	if err := h.bot.RemoveSymbol(symbol); err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"symbol":  symbol,
		"removed": true,
	})
}
