// Package tracker holds the application state: the current record set, the
// current filter criteria, and the fetch state machine. A Tracker is owned
// by a single goroutine (the UI event loop or an HTTP handler); background
// fetch work never touches it directly. BeginFetch hands out a closure that
// only computes a FetchResult value, and the owner applies that value with
// CompleteFetch. That hand-off is the only point where data crosses
// goroutines, so the Tracker needs no locks.
package tracker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/luokaci05/btctrack/service/aggregate"
	"github.com/luokaci05/btctrack/service/explorer"
	"github.com/luokaci05/btctrack/service/export"
	"github.com/luokaci05/btctrack/service/metrics"
	"github.com/luokaci05/btctrack/service/txfilter"
)

// State is the fetch state machine's state.
type State int

const (
	// Idle means no fetch is in flight; all interactions are allowed.
	Idle State = iota

	// Fetching means exactly one background fetch is in flight. The
	// fetch trigger is disabled; a fetch cannot be cancelled and a new
	// one cannot start until the current one completes.
	Fetching
)

var (
	// ErrEmptyAddress rejects a fetch submitted with a blank address.
	// It is raised synchronously, before any network call.
	ErrEmptyAddress = errors.New("please enter a bitcoin address")

	// ErrFetchInFlight rejects a fetch while another is in flight.
	ErrFetchInFlight = errors.New("a fetch is already in progress")
)

// Fetcher is the subset of the explorer client the tracker needs.
type Fetcher interface {
	FetchAddress(ctx context.Context, address string) ([]explorer.RawTransaction, error)
}

// FetchResult is the value a background fetch hands back to the owning
// loop. Either Records or Err is set.
type FetchResult struct {
	Address string
	Records []explorer.Transaction
	Err     error
}

// Tracker is the single application-state object. The record set and the
// filter criteria live here as explicit fields rather than ambient globals.
type Tracker struct {
	fetcher Fetcher
	mode    explorer.AmountMode
	logger  *slog.Logger
	metrics *metrics.Metrics

	state    State
	records  []explorer.Transaction
	criteria txfilter.Criteria
}

// New creates a Tracker in the Idle state with an empty record set and
// unconstrained criteria.
func New(fetcher Fetcher, mode explorer.AmountMode, m *metrics.Metrics, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Tracker{
		fetcher:  fetcher,
		mode:     mode,
		logger:   logger,
		metrics:  m,
		state:    Idle,
		criteria: txfilter.Criteria{Period: txfilter.AllTime},
	}
}

// State returns the current fetch state.
func (t *Tracker) State() State { return t.state }

// Records returns the full current record set.
func (t *Tracker) Records() []explorer.Transaction { return t.records }

// Criteria returns the current filter criteria.
func (t *Tracker) Criteria() txfilter.Criteria { return t.criteria }

// SetCriteria replaces the current filter criteria. Criteria are read fresh
// on every filter application, so there is nothing else to invalidate.
func (t *Tracker) SetCriteria(c txfilter.Criteria) { t.criteria = c }

// BeginFetch validates the address and transitions Idle -> Fetching.
// On success it returns a closure that performs the fetch+parse off the
// owning loop and returns a FetchResult value; the owner must pass that
// value to CompleteFetch. The closure touches no Tracker state.
func (t *Tracker) BeginFetch(address string) (func(ctx context.Context) FetchResult, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, ErrEmptyAddress
	}
	if t.state == Fetching {
		return nil, ErrFetchInFlight
	}

	t.state = Fetching
	t.logger.Info("fetch started", "address", address)

	fetcher := t.fetcher
	mode := t.mode
	return func(ctx context.Context) FetchResult {
		raw, err := fetcher.FetchAddress(ctx, address)
		if err != nil {
			return FetchResult{Address: address, Err: err}
		}
		return FetchResult{Address: address, Records: explorer.ParseTransactions(raw, mode)}
	}, nil
}

// CompleteFetch applies a fetch result on the owning loop and returns the
// tracker to Idle. A successful fetch replaces the record set wholesale; a
// failed fetch leaves the prior record set untouched.
func (t *Tracker) CompleteFetch(res FetchResult) {
	t.state = Idle
	if res.Err != nil {
		t.logger.Warn("fetch failed", "address", res.Address, "error", res.Err)
		return
	}
	t.records = res.Records
	t.logger.Info("fetch completed", "address", res.Address, "count", len(res.Records))
}

// ApplyFilters filters the current record set with the current criteria,
// evaluated against now. The result is a derived view; the record set is
// never mutated.
func (t *Tracker) ApplyFilters(now time.Time) []explorer.Transaction {
	if t.metrics != nil {
		t.metrics.RecordFilterApplication(string(t.criteria.Period))
	}
	return txfilter.Apply(t.records, t.criteria, now)
}

// Aggregate buckets a displayed subset for charting.
func (t *Tracker) Aggregate(displayed []explorer.Transaction, g aggregate.Granularity, m aggregate.Mode) []aggregate.Bucket {
	if t.metrics != nil {
		t.metrics.RecordAggregation(string(g), string(m))
	}
	return aggregate.Aggregate(displayed, g, m)
}

// Export writes the currently displayed rows to a CSV file at path.
func (t *Tracker) Export(path string, displayed []explorer.Transaction) error {
	err := export.ExportFile(path, export.Rows(displayed))
	if t.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		t.metrics.RecordExport(status)
	}
	if err != nil {
		t.logger.Error("export failed", "path", path, "error", err)
		return err
	}
	t.logger.Info("exported displayed rows", "path", path, "rows", len(displayed))
	return nil
}
