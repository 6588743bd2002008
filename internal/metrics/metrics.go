package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nexusflow/pkg/model"
)

// Metrics holds all Prometheus metrics for the signal service. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	AnalysesTotal   *prometheus.CounterVec // labels: decision
	FetchFailures   *prometheus.CounterVec // labels: provider
	SkippedAnalyzer *prometheus.CounterVec // labels: analyzer
	ScanDuration    prometheus.Histogram
	LastScan        prometheus.Gauge // unix seconds of the latest completed scan
	WatchlistSize   prometheus.Gauge
}

// New creates the metrics on a private registry together with the Go
// runtime and process collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nexusflow_analyses_total",
			Help: "Completed instrument analyses by decision",
		}, []string{"decision"}),
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nexusflow_fetch_failures_total",
			Help: "Candle fetches that failed, by provider",
		}, []string{"provider"}),
		SkippedAnalyzer: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nexusflow_skipped_analyzers_total",
			Help: "Analyzers skipped for lack of data",
		}, []string{"analyzer"}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "nexusflow_scan_duration_seconds",
			Help:    "Wall time of a full watchlist scan",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		LastScan: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nexusflow_last_scan_timestamp_seconds",
			Help: "Completion time of the latest scan",
		}),
		WatchlistSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nexusflow_watchlist_size",
			Help: "Instruments on the watchlist",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.AnalysesTotal,
		m.FetchFailures,
		m.SkippedAnalyzer,
		m.ScanDuration,
		m.LastScan,
		m.WatchlistSize,
	)
	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveAnalysis counts one analysis and its skipped analyzers
func (m *Metrics) ObserveAnalysis(a *model.Analysis) {
	if m == nil || a == nil {
		return
	}
	m.AnalysesTotal.WithLabelValues(string(a.Decision)).Inc()
	for _, name := range a.Skipped {
		m.SkippedAnalyzer.WithLabelValues(name).Inc()
	}
}

// FetchFailed counts a failed fetch from the named provider
func (m *Metrics) FetchFailed(provider string) {
	if m == nil {
		return
	}
	m.FetchFailures.WithLabelValues(provider).Inc()
}

// ObserveScan records a completed scan
func (m *Metrics) ObserveScan(d time.Duration, finished time.Time) {
	if m == nil {
		return
	}
	m.ScanDuration.Observe(d.Seconds())
	m.LastScan.Set(float64(finished.Unix()))
}

// SetWatchlistSize records the number of watched instruments
func (m *Metrics) SetWatchlistSize(n int) {
	if m == nil {
		return
	}
	m.WatchlistSize.Set(float64(n))
}
