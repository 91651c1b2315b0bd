// internal/api/handler/api/signal_test.go
package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/quantumtrade/tradebot/internal/api/response"
	"github.com/quantumtrade/tradebot/internal/strategy"
)

func postSignal(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	handler := NewSignalHandler(strategy.DefaultConfig())

	req := httptest.NewRequest("POST", "/api/v1/signal", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.Compute(w, req)
	return w
}

func decodeSignal(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp response.SuccessResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.Data.(map[string]any)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp response.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.Error.Code
}

func TestSignalHandler_WidgetFixture(t *testing.T) {
	w := postSignal(t, `{"prices":[100,102,101,105,110,108,112,115,117,120,119,121,123,125,127,130,128,129,131,133]}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	data := decodeSignal(t, w)
	if data["signal"] != "BUY" {
		t.Errorf("expected BUY, got %v", data["signal"])
	}
	if data["sufficient"] != true {
		t.Errorf("expected sufficient history")
	}
	if data["short_window"].(float64) != 5 || data["long_window"].(float64) != 20 {
		t.Errorf("expected default windows, got %v/%v", data["short_window"], data["long_window"])
	}
}

func TestSignalHandler_ShortHistoryHolds(t *testing.T) {
	w := postSignal(t, `{"prices":[1,2,3,4,5,6,7,8,9,10]}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	data := decodeSignal(t, w)
	if data["signal"] != "HOLD" {
		t.Errorf("expected HOLD, got %v", data["signal"])
	}
	if data["sufficient"] != false {
		t.Errorf("expected insufficient history")
	}
}

func TestSignalHandler_CustomWindows(t *testing.T) {
	w := postSignal(t, `{"prices":[10,9,8,7,6],"short_window":2,"long_window":5}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	data := decodeSignal(t, w)
	if data["signal"] != "SELL" {
		t.Errorf("expected SELL, got %v", data["signal"])
	}
}

func TestSignalHandler_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"inverted windows", `{"prices":[1,2,3],"short_window":20,"long_window":5}`, "CONFIG_INVALID"},
		{"equal windows", `{"prices":[1,2,3],"short_window":5,"long_window":5}`, "CONFIG_INVALID"},
		{"zero window", `{"prices":[1,2,3],"short_window":0}`, "CONFIG_INVALID"},
		{"negative price", `{"prices":[1,2,-3]}`, "INVALID_INPUT"},
		{"malformed json", `{"prices":[1,2,`, "INVALID_INPUT"},
		{"non numeric price", `{"prices":["a"]}`, "INVALID_INPUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postSignal(t, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
			if code := decodeError(t, w); code != tt.code {
				t.Errorf("expected %s, got %s", tt.code, code)
			}
		})
	}
}

func TestSignalHandler_HugePrices(t *testing.T) {
	prices := strings.Repeat("1,", 15) + strings.TrimSuffix(strings.Repeat("8e307,", 5), ",")
	w := postSignal(t, `{"prices":[`+prices+`]}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := decodeSignal(t, w)
	if data["signal"] != "BUY" {
		t.Errorf("expected BUY, got %v", data["signal"])
	}
}

func TestSignalHandler_BodyTooLarge(t *testing.T) {
	body := `{"prices":[` + strings.Repeat("100,", maxSignalBody/4) + `100]}`
	w := postSignal(t, body)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", w.Code)
	}
	if code := decodeError(t, w); code != "INVALID_INPUT" {
		t.Errorf("expected INVALID_INPUT, got %s", code)
	}
}
