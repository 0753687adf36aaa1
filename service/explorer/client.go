package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/luokaci05/btctrack/service/metrics"
)

// DefaultBaseURL is the public blockchain.info explorer endpoint.
const DefaultBaseURL = "https://blockchain.info"

// DefaultTimeout is the fixed per-request timeout. There are no retries and
// no caching; one user-initiated query maps to exactly one HTTP request.
const DefaultTimeout = 10 * time.Second

// ErrorKind classifies fetch failures.
type ErrorKind string

const (
	// KindNetwork covers transport-level failures (timeout, DNS,
	// connection refused) before an HTTP status was received.
	KindNetwork ErrorKind = "network"

	// KindNotFound covers non-200 responses from the explorer. The API
	// does not distinguish an unknown address from an outage, so neither
	// do we.
	KindNotFound ErrorKind = "not_found_or_unavailable"
)

// FetchError is the uniform error condition for a failed explorer query.
type FetchError struct {
	Kind ErrorKind
	msg  string
	err  error
}

func (e *FetchError) Error() string { return e.msg }
func (e *FetchError) Unwrap() error { return e.err }

// IsNotFound reports whether err is a FetchError caused by a non-200
// explorer response.
func IsNotFound(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == KindNotFound
}

// Doer is the subset of http.Client the explorer client needs.
// This allows us to mock the HTTP layer in tests without hitting the real
// explorer API.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches raw transaction lists from the blockchain explorer API.
type Client struct {
	baseURL string
	http    Doer
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewClient creates a new explorer client. If httpClient is nil, a default
// client with the fixed 10 second timeout is used. If m is nil, no metrics
// are recorded.
func NewClient(baseURL string, httpClient Doer, m *metrics.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		logger:  logger,
		metrics: m,
	}
}

// FetchAddress performs one GET against /rawaddr/{address} and returns the
// raw transaction objects from the response. A missing "txs" field decodes
// to an empty list. Failures are always a *FetchError.
func (c *Client) FetchAddress(ctx context.Context, address string) ([]RawTransaction, error) {
	u := fmt.Sprintf("%s/rawaddr/%s", c.baseURL, url.PathEscape(address))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &FetchError{Kind: KindNetwork, msg: fmt.Sprintf("network error: %v", err), err: err}
	}

	c.logger.DebugContext(ctx, "fetching address transactions", "address", address, "url", u)

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start).Seconds()

	status := "success"
	if err != nil {
		status = "error"
	} else if resp.StatusCode != http.StatusOK {
		status = fmt.Sprintf("http_%d", resp.StatusCode)
	}
	if c.metrics != nil {
		c.metrics.RecordExplorerCall("rawaddr", status, duration)
	}

	if err != nil {
		c.logger.ErrorContext(ctx, "explorer request failed", "address", address, "error", err)
		return nil, &FetchError{Kind: KindNetwork, msg: fmt.Sprintf("network error: %v", err), err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.WarnContext(ctx, "explorer returned non-200 status",
			"address", address,
			"status", resp.StatusCode,
		)
		return nil, &FetchError{
			Kind: KindNotFound,
			msg:  "bitcoin address not found or explorer API is not responding",
		}
	}

	var body rawAddressResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.logger.ErrorContext(ctx, "failed to decode explorer response", "address", address, "error", err)
		return nil, &FetchError{Kind: KindNetwork, msg: fmt.Sprintf("network error: %v", err), err: err}
	}

	c.logger.InfoContext(ctx, "fetched address transactions",
		"address", address,
		"count", len(body.Txs),
	)
	if c.metrics != nil {
		c.metrics.RecordTransactionsFetched(address, len(body.Txs))
	}

	return body.Txs, nil
}
