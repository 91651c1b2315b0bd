// internal/api/server.go
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	apihandler "github.com/quantumtrade/tradebot/internal/api/handler/api"
	"github.com/quantumtrade/tradebot/internal/api/middleware"
	"github.com/quantumtrade/tradebot/internal/api/stream"
	"github.com/quantumtrade/tradebot/internal/config"
	"github.com/quantumtrade/tradebot/internal/metrics"
	"github.com/quantumtrade/tradebot/internal/storage/trade"
	"github.com/quantumtrade/tradebot/internal/strategy"
	"go.uber.org/zap"
)

// Server represents the HTTP server of the trading bot
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	handler    http.Handler
}

// Config holds server configuration
type Config struct {
	Host        string
	Port        int
	APIKeys     []config.APIKeyConfig
	MetricsPath string
}

// Dependencies holds the components the routes serve.
type Dependencies struct {
	Bot     apihandler.BotService
	Trades  trade.Store
	Hub     *stream.Hub
	Metrics *metrics.Registry
	Signal  strategy.Config
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()

	s := &Server{
		logger: logger,
		mux:    mux,
	}

	if err := s.setupRoutes(cfg, deps); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	var h http.Handler = metrics.LoggingMiddleware(logger)(mux)
	if deps.Metrics != nil {
		h = metrics.HTTPMiddleware(deps.Metrics)(h)
	}
	s.handler = h

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config, deps Dependencies) error {
	keys, err := middleware.NewKeyring(cfg.APIKeys)
	if err != nil {
		return err
	}
	if !keys.Enabled() {
		s.logger.Warn("no api keys configured, every caller is treated as admin")
	}
	auth := middleware.APIKeyAuth(keys)
	protect := func(h http.HandlerFunc) http.Handler { return auth(h) }
	admin := func(h http.HandlerFunc) http.Handler { return auth(middleware.RequireAdmin(h)) }

	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	signals := apihandler.NewSignalHandler(deps.Signal)
	s.mux.Handle("POST /api/v1/signal", protect(signals.Compute))
	s.mux.Handle("GET /api/v1/session", protect(apihandler.Session))

	if deps.Bot != nil {
		bot := apihandler.NewBotHandler(deps.Bot)
		s.mux.Handle("GET /api/v1/bot/signals", protect(bot.Signals))
		s.mux.Handle("GET /api/v1/bot/signals/{symbol}", protect(bot.Signal))
		s.mux.Handle("GET /api/v1/bot/symbols", protect(bot.Symbols))
		s.mux.Handle("POST /api/v1/bot/symbols", admin(bot.AddSymbol))
		s.mux.Handle("DELETE /api/v1/bot/symbols/{symbol}", admin(bot.RemoveSymbol))
	}

	if deps.Trades != nil {
		trades := apihandler.NewTradesHandler(deps.Trades)
		s.mux.Handle("GET /api/v1/trades", protect(trades.List))
		s.mux.Handle("GET /api/v1/trades/{id}", protect(trades.GetByID))
	}

	if deps.Hub != nil {
		s.mux.Handle("GET /ws/signals", protect(deps.Hub.ServeWs))
	}

	if deps.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		s.mux.Handle("GET "+path, deps.Metrics.Handler())
	}

	return nil
}

// Handler returns the root handler with middleware applied
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Run serves until ctx is cancelled, then shuts down within timeout.
func (s *Server) Run(ctx context.Context, timeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
