// Package client is the Go client for the btctrack HTTP API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Transaction is one displayed transaction row returned by the server.
type Transaction struct {
	Hash        string    `json:"hash"`
	HashDisplay string    `json:"hash_display"`
	Time        time.Time `json:"time"`
	TimeDisplay string    `json:"time_display"`
	Amount      float64   `json:"amount"`
}

// Bucket is one aggregation bucket returned by the server.
type Bucket struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// QueryOpts are the filter parameters accepted by every address endpoint.
// Zero values mean unconstrained.
type QueryOpts struct {
	Period string
	Search string
	Min    string
	Max    string
}

func (o QueryOpts) values() url.Values {
	v := url.Values{}
	if o.Period != "" {
		v.Set("period", o.Period)
	}
	if o.Search != "" {
		v.Set("search", o.Search)
	}
	if o.Min != "" {
		v.Set("min", o.Min)
	}
	if o.Max != "" {
		v.Set("max", o.Max)
	}
	return v
}

// Client is the HTTP client for the btctrack service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new tracker service client.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// ListTransactions retrieves the filtered transaction rows for an address.
// Warnings report non-numeric amount bounds that were ignored server-side.
func (c *Client) ListTransactions(ctx context.Context, address string, opts QueryOpts) ([]Transaction, []string, error) {
	u := fmt.Sprintf("%s/api/v1/address/%s/transactions?%s",
		c.baseURL, url.PathEscape(address), opts.values().Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, c.parseErrorResponse(resp)
	}

	var response struct {
		Transactions []Transaction `json:"transactions"`
		Warnings     []string      `json:"warnings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug("transactions listed", "address", address, "count", len(response.Transactions))
	return response.Transactions, response.Warnings, nil
}

// Aggregate retrieves a bucketed series for an address. Granularity is one
// of Day/Week/Month/Year/Weekday/Histogram; mode is count or volume.
func (c *Client) Aggregate(ctx context.Context, address, granularity, mode string, opts QueryOpts) ([]Bucket, error) {
	v := opts.values()
	v.Set("granularity", granularity)
	v.Set("mode", mode)
	u := fmt.Sprintf("%s/api/v1/address/%s/aggregate?%s",
		c.baseURL, url.PathEscape(address), v.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	var response struct {
		Buckets []Bucket `json:"buckets"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug("aggregate fetched", "address", address, "granularity", granularity, "buckets", len(response.Buckets))
	return response.Buckets, nil
}

// parseErrorResponse attempts to parse an error response from the server.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	var errResp struct {
		Error string `json:"error"`
	}

	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return fmt.Errorf("request failed: %s", errResp.Error)
}
