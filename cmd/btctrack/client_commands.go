package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/luokaci05/btctrack/client"
)

func queryOptsFromCLI(c *cli.Context) client.QueryOpts {
	return client.QueryOpts{
		Period: c.String("period"),
		Search: c.String("search"),
		Min:    c.String("min"),
		Max:    c.String("max"),
	}
}

func queryCommands() *cli.Command {
	return &cli.Command{
		Name:  "query",
		Usage: "Query a running btctrack server over HTTP",
		Subcommands: []*cli.Command{
			queryTransactionsCommand(),
			queryAggregateCommand(),
		},
	}
}

func queryTransactionsCommand() *cli.Command {
	return &cli.Command{
		Name:      "transactions",
		Aliases:   []string{"tx"},
		Usage:     "List filtered transactions for an address (outputs JSON by default)",
		ArgsUsage: "[BITCOIN_ADDRESS]",
		Flags: append(filterFlags(),
			&cli.BoolFlag{
				Name:    "table",
				Aliases: []string{"t"},
				Usage:   "Output as human-readable list instead of JSON",
			},
			&cli.StringFlag{
				Name:  "jq",
				Usage: "jq expression applied to the JSON record list",
			},
		),
		Action: func(c *cli.Context) error {
			address := defaultAddressArg(c)
			logger := setupLogger(c.String("log-level"))

			cl := client.NewClient(c.String("server-url"), nil, logger)

			txns, warnings, err := cl.ListTransactions(context.Background(), address, queryOptsFromCLI(c))
			if err != nil {
				return fmt.Errorf("failed to list transactions: %w", err)
			}
			for _, w := range warnings {
				fmt.Fprintf(os.Stderr, "warning: %s\n", w)
			}

			if expr := c.String("jq"); expr != "" {
				return printWithJQ(txns, expr)
			}

			if !c.Bool("table") {
				data, _ := json.MarshalIndent(txns, "", "  ")
				fmt.Println(string(data))
				return nil
			}

			if len(txns) == 0 {
				fmt.Println("No transactions found")
				return nil
			}
			fmt.Printf("Found %d transaction(s) for address %s:\n\n", len(txns), address)
			for i, txn := range txns {
				fmt.Printf("[%d] Hash:   %s\n", i+1, txn.Hash)
				fmt.Printf("    Time:   %s\n", txn.TimeDisplay)
				fmt.Printf("    Amount: %.8f BTC\n", txn.Amount)
				fmt.Println()
			}
			return nil
		},
	}
}

func queryAggregateCommand() *cli.Command {
	return &cli.Command{
		Name:      "aggregate",
		Aliases:   []string{"agg"},
		Usage:     "Aggregate filtered transactions into buckets (outputs JSON by default)",
		ArgsUsage: "[BITCOIN_ADDRESS]",
		Flags: append(filterFlags(),
			&cli.StringFlag{
				Name:    "group",
				Aliases: []string{"g", "granularity"},
				Value:   "Month",
				Usage:   "Grouping granularity: Day, Week, Month, Year, Weekday, or Histogram",
			},
			&cli.StringFlag{
				Name:    "mode",
				Aliases: []string{"m"},
				Value:   "count",
				Usage:   "count or volume",
			},
			&cli.BoolFlag{
				Name:    "table",
				Aliases: []string{"t"},
				Usage:   "Output as human-readable list instead of JSON",
			},
		),
		Action: func(c *cli.Context) error {
			address := defaultAddressArg(c)
			logger := setupLogger(c.String("log-level"))

			cl := client.NewClient(c.String("server-url"), nil, logger)

			buckets, err := cl.Aggregate(context.Background(), address, c.String("group"), c.String("mode"), queryOptsFromCLI(c))
			if err != nil {
				return fmt.Errorf("failed to aggregate: %w", err)
			}

			if !c.Bool("table") {
				data, _ := json.MarshalIndent(buckets, "", "  ")
				fmt.Println(string(data))
				return nil
			}

			for _, b := range buckets {
				fmt.Printf("%-16s %v\n", b.Label, b.Value)
			}
			return nil
		},
	}
}

func healthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check the health of a running btctrack server",
		Action: func(c *cli.Context) error {
			url := c.String("server-url") + "/health"

			httpClient := &http.Client{Timeout: 5 * time.Second}
			resp, err := httpClient.Get(url)
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("server unhealthy: status %d: %s", resp.StatusCode, string(body))
			}

			fmt.Printf("✓ Server healthy: %s\n", string(body))
			return nil
		},
	}
}
