package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/luokaci05/btctrack/service/aggregate"
	"github.com/luokaci05/btctrack/service/config"
	"github.com/luokaci05/btctrack/service/explorer"
	"github.com/luokaci05/btctrack/service/export"
	"github.com/luokaci05/btctrack/service/txfilter"
)

const (
	// Bitcoin addresses top out well below this; give buffer for bech32.
	maxAddressLength = 100
)

var (
	// Base58 and bech32 characters cover every address format the
	// explorer accepts.
	validAddressRegex = regexp.MustCompile(`^[0-9A-Za-z]+$`)
)

// validateAddress validates a bitcoin address for basic format and length.
func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("address is required")
	}
	if len(address) > maxAddressLength {
		return fmt.Errorf("address too long: maximum %d characters", maxAddressLength)
	}
	if !validAddressRegex.MatchString(address) {
		return fmt.Errorf("address contains invalid characters")
	}
	return nil
}

// criteriaFromQuery reads filter criteria from query parameters. Non-numeric
// amount bounds are not hard failures; they come back as warning strings and
// the bound is left unconstrained.
func criteriaFromQuery(r *http.Request) (txfilter.Criteria, []string) {
	q := r.URL.Query()

	c := txfilter.Criteria{
		Period: txfilter.ParsePeriod(q.Get("period")),
		Search: q.Get("search"),
	}

	var warnings []string
	min, err := txfilter.ParseBound("min", q.Get("min"))
	if err != nil {
		warnings = append(warnings, err.Error())
	}
	c.MinAmount = min

	max, err := txfilter.ParseBound("max", q.Get("max"))
	if err != nil {
		warnings = append(warnings, err.Error())
	}
	c.MaxAmount = max

	return c, warnings
}

// fetchFiltered runs the fetch+parse+filter pipeline for a request. The
// error, if any, has already been written to w.
func fetchFiltered(w http.ResponseWriter, r *http.Request, ec *explorer.Client, cfg *config.Config, logger *slog.Logger) ([]explorer.Transaction, txfilter.Criteria, []string, bool) {
	address := r.PathValue("address")

	if err := validateAddress(address); err != nil {
		logger.Debug("invalid address", "address", address, "error", err)
		writeError(w, err.Error(), http.StatusBadRequest)
		return nil, txfilter.Criteria{}, nil, false
	}

	criteria, warnings := criteriaFromQuery(r)

	raw, err := ec.FetchAddress(r.Context(), address)
	if err != nil {
		logger.Warn("fetch failed", "address", address, "error", err)
		status := http.StatusBadGateway
		if explorer.IsNotFound(err) {
			status = http.StatusNotFound
		}
		writeError(w, err.Error(), status)
		return nil, txfilter.Criteria{}, nil, false
	}

	records := explorer.ParseTransactions(raw, explorer.ParseAmountMode(cfg.AmountMode))
	filtered := txfilter.Apply(records, criteria, time.Now())
	return filtered, criteria, warnings, true
}

// transactionResponse is the JSON response format for a transaction row.
type transactionResponse struct {
	Hash        string    `json:"hash"`
	HashDisplay string    `json:"hash_display"`
	Time        time.Time `json:"time"`
	TimeDisplay string    `json:"time_display"`
	Amount      float64   `json:"amount"`
}

func transactionToResponse(t explorer.Transaction) transactionResponse {
	return transactionResponse{
		Hash:        t.HashFull,
		HashDisplay: t.HashDisplay(),
		Time:        t.Time,
		TimeDisplay: t.TimeDisplay(),
		Amount:      t.Amount,
	}
}

// handleListTransactions returns a handler that fetches, parses, and filters
// the transactions for an address.
// GET /api/v1/address/{address}/transactions?period=&search=&min=&max=
func handleListTransactions(ec *explorer.Client, cfg *config.Config, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		filtered, criteria, warnings, ok := fetchFiltered(w, r, ec, cfg, logger)
		if !ok {
			return
		}

		resp := make([]transactionResponse, len(filtered))
		for i, t := range filtered {
			resp[i] = transactionToResponse(t)
		}

		logger.Debug("transactions listed",
			"address", r.PathValue("address"),
			"period", criteria.Period,
			"count", len(resp),
		)

		writeJSON(w, map[string]interface{}{
			"address":      r.PathValue("address"),
			"transactions": resp,
			"count":        len(resp),
			"warnings":     warnings,
		}, http.StatusOK)
	})
}

// bucketResponse is the JSON response format for one aggregation bucket.
type bucketResponse struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// handleAggregate returns a handler that buckets the filtered transactions
// for charting.
// GET /api/v1/address/{address}/aggregate?granularity=&mode=&period=&search=&min=&max=
func handleAggregate(ec *explorer.Client, cfg *config.Config, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		filtered, _, warnings, ok := fetchFiltered(w, r, ec, cfg, logger)
		if !ok {
			return
		}

		granularity := aggregate.ParseGranularity(r.URL.Query().Get("granularity"))
		mode := aggregate.ParseMode(r.URL.Query().Get("mode"))

		var buckets []aggregate.Bucket
		if r.URL.Query().Get("granularity") == "Histogram" {
			buckets = aggregate.Histogram(filtered, 10)
		} else {
			buckets = aggregate.Aggregate(filtered, granularity, mode)
		}

		resp := make([]bucketResponse, len(buckets))
		for i, b := range buckets {
			resp[i] = bucketResponse{Label: b.Label, Value: b.Value}
		}

		writeJSON(w, map[string]interface{}{
			"address":     r.PathValue("address"),
			"granularity": string(granularity),
			"mode":        string(mode),
			"buckets":     resp,
			"warnings":    warnings,
		}, http.StatusOK)
	})
}

// handleExportCSV returns a handler that serves the filtered rows as a CSV
// attachment, exactly as the table displays them.
// GET /api/v1/address/{address}/export.csv?period=&search=&min=&max=
func handleExportCSV(ec *explorer.Client, cfg *config.Config, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		filtered, _, _, ok := fetchFiltered(w, r, ec, cfg, logger)
		if !ok {
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
		if err := export.WriteCSV(w, export.Rows(filtered)); err != nil {
			// Headers are already sent; all we can do is log.
			logger.Error("failed to stream CSV export", "error", err)
		}
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
