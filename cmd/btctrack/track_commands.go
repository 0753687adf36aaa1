package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/itchyny/gojq"
	"github.com/urfave/cli/v2"

	"github.com/luokaci05/btctrack/service/aggregate"
	"github.com/luokaci05/btctrack/service/config"
	"github.com/luokaci05/btctrack/service/explorer"
	"github.com/luokaci05/btctrack/service/export"
	"github.com/luokaci05/btctrack/service/tracker"
	"github.com/luokaci05/btctrack/service/txfilter"
	"github.com/luokaci05/btctrack/tui"
)

// filterFlags are the filter parameters shared by fetch, export, and plot.
func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "period",
			Aliases: []string{"p"},
			Value:   string(txfilter.AllTime),
			Usage:   `Time window ("All time", "Last 7 days", "Last 30 days", "Last 90 days", "Year to date", "Last 1 year")`,
		},
		&cli.StringFlag{
			Name:  "search",
			Usage: "Keep only transactions whose hash contains this substring",
		},
		&cli.StringFlag{
			Name:  "min",
			Usage: "Minimum amount in BTC (inclusive)",
		},
		&cli.StringFlag{
			Name:  "max",
			Usage: "Maximum amount in BTC (inclusive)",
		},
	}
}

// explorerFlags extends filterFlags for the commands that hit the block
// explorer directly instead of a running server.
func explorerFlags() []cli.Flag {
	return append(filterFlags(), &cli.StringFlag{
		Name:  "amount-mode",
		Value: "sum-outputs",
		Usage: "Amount semantics: sum-outputs or net-result",
	})
}

// fetchFiltered runs the whole pipeline for one-shot commands: explorer
// fetch, parse, then filter. Malformed bounds are reported on stderr and
// ignored, same as the interactive surfaces.
func fetchFiltered(c *cli.Context, address string) ([]explorer.Transaction, error) {
	logger := setupLogger(c.String("log-level"))
	mode := explorer.ParseAmountMode(c.String("amount-mode"))

	ec := explorer.NewClient(c.String("explorer-url"), nil, nil, logger)

	ctx, cancel := context.WithTimeout(c.Context, explorer.DefaultTimeout)
	defer cancel()

	raw, err := ec.FetchAddress(ctx, address)
	if err != nil {
		return nil, err
	}
	records := explorer.ParseTransactions(raw, mode)

	criteria := txfilter.Criteria{
		Period: txfilter.ParsePeriod(c.String("period")),
		Search: c.String("search"),
	}
	if min, err := txfilter.ParseBound("min", c.String("min")); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	} else {
		criteria.MinAmount = min
	}
	if max, err := txfilter.ParseBound("max", c.String("max")); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	} else {
		criteria.MaxAmount = max
	}

	return txfilter.Apply(records, criteria, time.Now()), nil
}

func tuiCommand() *cli.Command {
	return &cli.Command{
		Name:      "tui",
		Usage:     "Open the interactive terminal UI (the default command)",
		ArgsUsage: "[BITCOIN_ADDRESS]",
		Action:    runTUI,
	}
}

func runTUI(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if u := c.String("explorer-url"); u != "" {
		cfg.ExplorerBaseURL = u
	}

	logger := setupLogger(c.String("log-level"))
	mode := explorer.ParseAmountMode(cfg.AmountMode)

	ec := explorer.NewClient(cfg.ExplorerBaseURL, &http.Client{Timeout: cfg.ExplorerTimeout}, nil, logger)
	tr := tracker.New(ec, mode, nil, logger)

	address := cfg.DefaultAddress
	if c.NArg() >= 1 {
		address = c.Args().Get(0)
	}

	return tui.Run(tui.New(tr, address))
}

func fetchCommand() *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Aliases:   []string{"transactions", "tx"},
		Usage:     "Fetch and print the transactions of an address",
		ArgsUsage: "[BITCOIN_ADDRESS]",
		Flags: append(explorerFlags(),
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output as JSON",
			},
			&cli.StringFlag{
				Name:  "jq",
				Usage: "jq expression applied to the JSON record list",
			},
		),
		Action: func(c *cli.Context) error {
			address := defaultAddressArg(c)

			records, err := fetchFiltered(c, address)
			if err != nil {
				return err
			}

			if expr := c.String("jq"); expr != "" {
				return printWithJQ(records, expr)
			}

			if c.Bool("json") {
				data, _ := json.MarshalIndent(records, "", "  ")
				fmt.Println(string(data))
				return nil
			}

			if len(records) == 0 {
				fmt.Println("No transactions found")
				return nil
			}
			fmt.Printf("Found %d transaction(s) for address %s:\n\n", len(records), address)
			for i, r := range records {
				fmt.Printf("[%d] Hash:   %s\n", i+1, r.HashFull)
				fmt.Printf("    Time:   %s\n", r.TimeDisplay())
				fmt.Printf("    Amount: %s BTC\n", export.FormatAmount(r.Amount))
				fmt.Println()
			}
			return nil
		},
	}
}

// printWithJQ marshals v, runs the compiled jq expression over it, and
// prints every result as a JSON line.
func printWithJQ(v any, expr string) error {
	query, err := gojq.Parse(expr)
	if err != nil {
		return fmt.Errorf("failed to parse jq expression %q: %w", expr, err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return fmt.Errorf("failed to compile jq expression %q: %w", expr, err)
	}

	// Round-trip through JSON so jq sees plain maps and slices.
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var input any
	if err := json.Unmarshal(data, &input); err != nil {
		return err
	}

	iter := code.Run(input)
	for {
		out, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := out.(error); isErr {
			return fmt.Errorf("jq evaluation failed: %w", err)
		}
		line, err := json.Marshal(out)
		if err != nil {
			return err
		}
		fmt.Println(string(line))
	}
	return nil
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Fetch an address and write the filtered transactions to a CSV file",
		ArgsUsage: "[BITCOIN_ADDRESS]",
		Flags: append(explorerFlags(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o", "out"},
				Usage:   "Output file path (default: transactions-<timestamp>.csv)",
			},
		),
		Action: func(c *cli.Context) error {
			address := defaultAddressArg(c)

			records, err := fetchFiltered(c, address)
			if err != nil {
				return err
			}

			path := c.String("output")
			if path == "" {
				path = fmt.Sprintf("transactions-%s.csv", time.Now().Format("20060102-150405"))
			}

			if err := export.ExportFile(path, export.Rows(records)); err != nil {
				return fmt.Errorf("failed to export CSV: %w", err)
			}
			fmt.Printf("Exported %d transaction(s) to %s\n", len(records), path)
			return nil
		},
	}
}

func plotCommand() *cli.Command {
	return &cli.Command{
		Name:      "plot",
		Aliases:   []string{"chart"},
		Usage:     "Fetch an address and draw an aggregation chart in the terminal",
		ArgsUsage: "[BITCOIN_ADDRESS]",
		Flags: append(explorerFlags(),
			&cli.StringFlag{
				Name:    "group",
				Aliases: []string{"g", "granularity"},
				Value:   string(aggregate.Month),
				Usage:   "Grouping granularity: Day, Week, Month, Year, or Weekday",
			},
			&cli.StringFlag{
				Name:    "mode",
				Aliases: []string{"m"},
				Value:   string(aggregate.Count),
				Usage:   "count (number of transactions) or volume (total BTC)",
			},
			&cli.BoolFlag{
				Name:  "histogram",
				Usage: "Draw an amount distribution histogram instead",
			},
			&cli.IntFlag{
				Name:  "width",
				Value: 100,
				Usage: "Chart width in columns",
			},
		),
		Action: func(c *cli.Context) error {
			address := defaultAddressArg(c)

			records, err := fetchFiltered(c, address)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println("No data after filtering.")
				return nil
			}

			period := txfilter.ParsePeriod(c.String("period"))
			width := c.Int("width")

			if c.Bool("histogram") {
				buckets := aggregate.Histogram(records, 10)
				suffix := "All"
				if period != txfilter.AllTime {
					suffix = string(period)
				}
				title := fmt.Sprintf("Amount Distribution (BTC) - Period: %s", suffix)
				fmt.Println(tui.RenderBars(buckets, title, width))
				return nil
			}

			g := aggregate.ParseGranularity(c.String("group"))
			mode := aggregate.ParseMode(c.String("mode"))

			buckets := aggregate.Aggregate(records, g, mode)

			measure := "Transactions"
			if mode == aggregate.Volume {
				measure = "Volume (BTC)"
			}
			fmt.Println(tui.RenderChart(buckets, tui.ChartTitle(measure, g, period), g, width))
			return nil
		},
	}
}
