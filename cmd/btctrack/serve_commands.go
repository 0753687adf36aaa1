package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/luokaci05/btctrack/service/config"
	"github.com/luokaci05/btctrack/service/explorer"
	"github.com/luokaci05/btctrack/service/metrics"
	"github.com/luokaci05/btctrack/service/server"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP server with the JSON API and the HTML dashboard",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "Listen address",
				EnvVars: []string{"SERVER_ADDR"},
			},
		},
		Action: runServer,
	}
}

func runServer(c *cli.Context) error {
	// Load and validate configuration from environment.
	// This fails fast if any value is malformed.
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if addr := c.String("addr"); addr != "" {
		cfg.ServerAddr = addr
	}
	if u := c.String("explorer-url"); u != "" {
		cfg.ExplorerBaseURL = u
	}

	logger := setupLogger(cfg.LogLevel)
	logger.Info("starting server",
		"addr", cfg.ServerAddr,
		"log_level", cfg.LogLevel,
		"explorer_url", cfg.ExplorerBaseURL,
	)

	m := metrics.NewMetrics(prometheus.NewRegistry())

	ec := explorer.NewClient(
		cfg.ExplorerBaseURL,
		&http.Client{Timeout: cfg.ExplorerTimeout},
		m,
		logger,
	)

	httpServer := server.New(cfg.ServerAddr, cfg, ec, m, logger)
	if err := httpServer.WithTemplates(); err != nil {
		logger.Error("failed to load templates", "error", err)
		return err
	}

	// Start HTTP server in background
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- httpServer.Start()
	}()

	// Wait for shutdown signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("server error", "error", err)
		return err
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())

		// Graceful shutdown with timeout
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown server gracefully", "error", err)
			return err
		}

		logger.Info("server shutdown complete")
	}
	return nil
}
