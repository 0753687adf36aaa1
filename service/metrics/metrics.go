package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the application.
// Following the explicit dependency injection pattern, this struct
// is passed to all components that need to record metrics.
type Metrics struct {
	gatherer prometheus.Gatherer

	// Explorer API metrics
	explorerCallsTotal   *prometheus.CounterVec
	explorerCallDuration *prometheus.HistogramVec

	// Record pipeline metrics
	transactionsFetchedTotal *prometheus.CounterVec
	filterApplicationsTotal  *prometheus.CounterVec
	aggregationsTotal        *prometheus.CounterVec
	exportsTotal             *prometheus.CounterVec

	// HTTP metrics
	httpRequestDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	gatherer := prometheus.Gatherer(prometheus.DefaultGatherer)
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	} else if g, ok := registry.(prometheus.Gatherer); ok {
		gatherer = g
	}

	factory := promauto.With(registry)

	return &Metrics{
		gatherer: gatherer,
		explorerCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "explorer_api_calls_total",
				Help: "Total number of explorer API calls by method and status",
			},
			[]string{"method", "status"},
		),
		explorerCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "explorer_api_call_duration_seconds",
				Help:    "Duration of explorer API calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"method"},
		),
		transactionsFetchedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transactions_fetched_total",
				Help: "Total number of raw transactions fetched from the explorer",
			},
			[]string{"address"},
		),
		filterApplicationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filter_applications_total",
				Help: "Total number of filter applications over the record set",
			},
			[]string{"period"},
		),
		aggregationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aggregations_total",
				Help: "Total number of aggregations computed",
			},
			[]string{"granularity", "mode"},
		),
		exportsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "csv_exports_total",
				Help: "Total number of CSV exports by outcome",
			},
			[]string{"status"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by handler, method and status code",
			},
			[]string{"handler", "method", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"handler", "method"},
		),
	}
}

// Handler returns an HTTP handler exposing this instance's collectors,
// gathering from the same registry they were registered on.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// RecordExplorerCall records one explorer API call with its outcome and
// duration in seconds.
func (m *Metrics) RecordExplorerCall(method, status string, duration float64) {
	m.explorerCallsTotal.WithLabelValues(method, status).Inc()
	m.explorerCallDuration.WithLabelValues(method).Observe(duration)
}

// RecordTransactionsFetched records the number of raw transactions returned
// for an address.
func (m *Metrics) RecordTransactionsFetched(address string, count int) {
	m.transactionsFetchedTotal.WithLabelValues(address).Add(float64(count))
}

// RecordFilterApplication records one filter pass over the record set.
func (m *Metrics) RecordFilterApplication(period string) {
	m.filterApplicationsTotal.WithLabelValues(period).Inc()
}

// RecordAggregation records one aggregation computation.
func (m *Metrics) RecordAggregation(granularity, mode string) {
	m.aggregationsTotal.WithLabelValues(granularity, mode).Inc()
}

// RecordExport records one CSV export attempt.
func (m *Metrics) RecordExport(status string) {
	m.exportsTotal.WithLabelValues(status).Inc()
}

// RecordHTTPRequest records one HTTP request.
func (m *Metrics) RecordHTTPRequest(handler, method string, statusCode int, duration float64) {
	m.httpRequestsTotal.WithLabelValues(handler, method, statusLabel(statusCode)).Inc()
	m.httpRequestDuration.WithLabelValues(handler, method).Observe(duration)
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
