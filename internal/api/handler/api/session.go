// internal/api/handler/api/session.go
package api

import (
	"net/http"

	"github.com/quantumtrade/tradebot/internal/api/response"
	"github.com/quantumtrade/tradebot/internal/core"
	"github.com/quantumtrade/tradebot/internal/session"
)

// Session returns the caller's session.
func Session(w http.ResponseWriter, r *http.Request) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, core.ErrUnauthorized)
		return
	}
	response.JSON(w, http.StatusOK, s)
}
