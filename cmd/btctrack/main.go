package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/luokaci05/btctrack/service/config"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	app := &cli.App{
		Name:  "btctrack",
		Usage: "Bitcoin address transaction tracker",
		Description: `Fetch, filter, aggregate, chart, and export the transaction history
of a Bitcoin address from a block explorer.

Run with no command to open the interactive terminal UI.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Commands: []*cli.Command{
			tuiCommand(),
			serveCommand(),
			fetchCommand(),
			exportCommand(),
			plotCommand(),
			queryCommands(),
			healthCommand(),
		},
		// Global flags available to all commands
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "explorer-url",
				Usage:   "Block explorer base URL",
				EnvVars: []string{"EXPLORER_BASE_URL"},
				Value:   "https://blockchain.info",
			},
			&cli.StringFlag{
				Name:    "server-url",
				Usage:   "btctrack server URL for query and health commands",
				EnvVars: []string{"BTCTRACK_SERVER_URL"},
				Value:   "http://localhost:8080",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "error",
			},
		},
		// No command opens the TUI.
		Action: func(c *cli.Context) error {
			return runTUI(c)
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// setupLogger creates a structured logger with the given log level.
func setupLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

func defaultAddressArg(c *cli.Context) string {
	if c.NArg() >= 1 {
		return c.Args().Get(0)
	}
	return config.DefaultAddress
}
