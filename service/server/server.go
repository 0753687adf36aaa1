package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/luokaci05/btctrack/service/config"
	"github.com/luokaci05/btctrack/service/explorer"
	"github.com/luokaci05/btctrack/service/metrics"
)

// Server represents the HTTP server for the tracker service. Every API
// request is a fresh fetch+filter pass; the server holds no record set
// between requests (no caching, no persistence).
type Server struct {
	addr     string
	cfg      *config.Config
	explorer *explorer.Client
	renderer *TemplateRenderer
	metrics  *metrics.Metrics
	logger   *slog.Logger
	server   *http.Server
}

// New creates a new HTTP server with the given dependencies.
// The metrics is optional - if nil, the metrics endpoint won't be available.
func New(addr string, cfg *config.Config, ec *explorer.Client, m *metrics.Metrics, logger *slog.Logger) *Server {
	return &Server{
		addr:     addr,
		cfg:      cfg,
		explorer: ec,
		metrics:  m,
		logger:   logger,
	}
}

// WithTemplates adds dashboard rendering support to the server using
// embedded files.
func (s *Server) WithTemplates() error {
	renderer, err := NewTemplateRenderer(s.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize templates: %w", err)
	}
	s.renderer = renderer
	s.logger.Info("HTML templates loaded from embedded files")
	return nil
}

// Handler builds the route table. Exposed separately from Start so tests
// can drive the full mux through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	withMetrics := func(name string, h http.Handler) http.Handler {
		return metrics.HTTPMetricsMiddleware(s.metrics, name)(h)
	}

	// Address query routes
	mux.Handle("GET /api/v1/address/{address}/transactions",
		withMetrics("/api/v1/address/transactions", handleListTransactions(s.explorer, s.cfg, s.logger)))
	mux.Handle("GET /api/v1/address/{address}/aggregate",
		withMetrics("/api/v1/address/aggregate", handleAggregate(s.explorer, s.cfg, s.logger)))
	mux.Handle("GET /api/v1/address/{address}/export.csv",
		withMetrics("/api/v1/address/export", handleExportCSV(s.explorer, s.cfg, s.logger)))

	// HTML dashboard (if template renderer is configured)
	if s.renderer != nil {
		mux.HandleFunc("GET /{$}", handleDashboardPage(s.renderer, s.cfg))
		s.logger.Info("HTML dashboard enabled")
	}

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus metrics endpoint (if metrics collector is configured)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
		s.logger.Info("Prometheus metrics endpoint enabled")
	}

	return corsMiddleware(mux)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting HTTP server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// corsMiddleware adds CORS headers to all responses and handles OPTIONS
// preflight requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
