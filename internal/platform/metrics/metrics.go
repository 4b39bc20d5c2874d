package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the playlog pipeline.
type Metrics struct {
	registry                *prometheus.Registry
	requestsTotal           prometheus.Counter
	playsIngestedTotal      prometheus.Counter
	enrichmentRequestsTotal prometheus.Counter
	reportsWrittenTotal     prometheus.Counter
	trackedDays             prometheus.Gauge
	errorsTotal             prometheus.Counter
}

// New creates and registers Prometheus metrics for the pipeline.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "playlog_requests_total",
		Help: "Total number of HTTP requests received",
	})
	playsIngestedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "playlog_plays_ingested_total",
		Help: "Total number of play events folded into day snapshots",
	})
	enrichmentRequestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "playlog_enrichment_requests_total",
		Help: "Total number of audio-feature lookup calls issued",
	})
	reportsWrittenTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "playlog_reports_written_total",
		Help: "Total number of range reports rendered and persisted",
	})
	trackedDays := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "playlog_tracked_days",
		Help: "Number of calendar days with a persisted snapshot",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "playlog_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})

	registry.MustRegister(
		requestsTotal,
		playsIngestedTotal,
		enrichmentRequestsTotal,
		reportsWrittenTotal,
		trackedDays,
		errorsTotal,
	)

	return &Metrics{
		registry:                registry,
		requestsTotal:           requestsTotal,
		playsIngestedTotal:      playsIngestedTotal,
		enrichmentRequestsTotal: enrichmentRequestsTotal,
		reportsWrittenTotal:     reportsWrittenTotal,
		trackedDays:             trackedDays,
		errorsTotal:             errorsTotal,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// AddPlaysIngested adds n to the plays ingested counter.
func (m *Metrics) AddPlaysIngested(n int) {
	m.playsIngestedTotal.Add(float64(n))
}

// IncEnrichmentRequests increments the feature lookup counter.
func (m *Metrics) IncEnrichmentRequests() {
	m.enrichmentRequestsTotal.Inc()
}

// IncReportsWritten increments the reports written counter.
func (m *Metrics) IncReportsWritten() {
	m.reportsWrittenTotal.Inc()
}

// SetTrackedDays sets the tracked days gauge.
func (m *Metrics) SetTrackedDays(n int) {
	m.trackedDays.Set(float64(n))
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values
// (e.g. tracked days).
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
