package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestQueryTransactionsCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/address/test-address/transactions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if got := r.URL.Query().Get("period"); got != "Last 30 days" {
			t.Errorf("unexpected period: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"address": "test-address",
			"count":   1,
			"transactions": []map[string]any{
				{
					"hash":         "aaaa1111bbbb2222cccc",
					"hash_display": "aaaa1111bbbb222...",
					"time":         "2024-03-01T10:00:00Z",
					"time_display": "2024-03-01 10:00",
					"amount":       0.5,
				},
			},
		})
	}))
	defer server.Close()

	app := testApp(queryCommands())
	output, err := captureStdout(t, func() error {
		return app.Run([]string{"test", "--server-url", server.URL,
			"query", "transactions", "--period", "Last 30 days", "test-address"})
	})
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}

	var txns []map[string]any
	if err := json.Unmarshal([]byte(output), &txns); err != nil {
		t.Fatalf("expected JSON output, got: %s", output)
	}
	if len(txns) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txns))
	}
	if txns[0]["hash"] != "aaaa1111bbbb2222cccc" {
		t.Errorf("unexpected hash: %v", txns[0]["hash"])
	}
}

func TestQueryAggregateCommand_Table(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/address/test-address/aggregate" {
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if got := r.URL.Query().Get("granularity"); got != "Weekday" {
			t.Errorf("unexpected granularity: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"buckets": []map[string]any{
				{"label": "Mon", "value": 3},
				{"label": "Tue", "value": 0},
			},
		})
	}))
	defer server.Close()

	app := testApp(queryCommands())
	output, err := captureStdout(t, func() error {
		return app.Run([]string{"test", "--server-url", server.URL,
			"query", "aggregate", "--group", "Weekday", "--table", "test-address"})
	})
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if !bytes.Contains([]byte(output), []byte("Mon")) {
		t.Errorf("expected bucket labels, got: %s", output)
	}
}

func TestHealthCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer server.Close()

	app := testApp(healthCommand())
	output, err := captureStdout(t, func() error {
		return app.Run([]string{"test", "--server-url", server.URL, "health"})
	})
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if !bytes.Contains([]byte(output), []byte("Server healthy")) {
		t.Errorf("expected health confirmation, got: %s", output)
	}
}

func TestHealthCommand_Unhealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	app := testApp(healthCommand())
	_, err := captureStdout(t, func() error {
		return app.Run([]string{"test", "--server-url", server.URL, "health"})
	})
	if err == nil {
		t.Fatal("expected error for unhealthy server")
	}
}
