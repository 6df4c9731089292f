// Package telemetry collects prometheus metrics for provider fan-out,
// extraction and analysis calls.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	ProviderRequests *prometheus.CounterVec
	ProviderDuration *prometheus.HistogramVec
	ExtractRequests  *prometheus.CounterVec
	AnalyzeRequests  *prometheus.CounterVec
	AnalyzeChunks    prometheus.Histogram
}

// NewMetrics registers all collectors on reg and returns them. Pass
// prometheus.NewRegistry() in tests to avoid global registration collisions.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "osint_provider_requests_total",
			Help: "Provider fetch attempts by source and outcome.",
		}, []string{"source", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "osint_provider_duration_seconds",
			Help:    "Provider fetch latency by source.",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		ExtractRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "osint_extract_requests_total",
			Help: "Full-text extraction attempts by outcome.",
		}, []string{"outcome"}),
		AnalyzeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "osint_analyze_requests_total",
			Help: "Analysis runs by model actually used and outcome.",
		}, []string{"model", "outcome"}),
		AnalyzeChunks: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "osint_analyze_chunks",
			Help:    "Number of chunks per analysis run.",
			Buckets: []float64{1, 2, 3, 5, 8, 13},
		}),
	}
	reg.MustRegister(m.ProviderRequests, m.ProviderDuration, m.ExtractRequests, m.AnalyzeRequests, m.AnalyzeChunks)
	return m
}

// Outcome labels.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

func (m *Metrics) ObserveProvider(source string, seconds float64, failed bool) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if failed {
		outcome = OutcomeError
	}
	m.ProviderRequests.WithLabelValues(source, outcome).Inc()
	m.ProviderDuration.WithLabelValues(source).Observe(seconds)
}

func (m *Metrics) ObserveExtract(failed bool) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if failed {
		outcome = OutcomeError
	}
	m.ExtractRequests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveAnalyze(model string, chunks int, failed bool) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if failed {
		outcome = OutcomeError
	}
	m.AnalyzeRequests.WithLabelValues(model, outcome).Inc()
	if !failed {
		m.AnalyzeChunks.Observe(float64(chunks))
	}
}
