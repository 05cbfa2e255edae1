// Package metrics provides Prometheus metrics for the downloader.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the downloader.
type Metrics struct {
	// Task outcome metrics
	TasksCompleted *prometheus.CounterVec
	TasksSkipped   *prometheus.CounterVec
	TasksDeduped   *prometheus.CounterVec
	TasksFailed    *prometheus.CounterVec

	// Fetch metrics
	FetchDuration   *prometheus.HistogramVec
	BytesDownloaded *prometheus.CounterVec
	RetryAttempts   *prometheus.CounterVec

	// Dedup metrics
	DedupLinksCreated *prometheus.CounterVec

	// Run metrics
	LastRunTimestamp prometheus.Gauge
}

// Config holds metrics configuration.
type Config struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"` // e.g. ":9090"
}

var defaultMetrics *Metrics

// Init initializes the metrics package with global metrics.
// Call this once at startup.
func Init(namespace string) *Metrics {
	if namespace == "" {
		namespace = "woc_download"
	}

	sheetLabels := []string{"sheet"}

	m := &Metrics{
		TasksCompleted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tasks_completed_total",
				Help:      "Total number of tasks that produced a fresh download",
			},
			sheetLabels,
		),
		TasksSkipped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tasks_skipped_total",
				Help:      "Total number of tasks skipped via the completion store",
			},
			sheetLabels,
		),
		TasksDeduped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tasks_deduped_total",
				Help:      "Total number of tasks resolved as dedup links",
			},
			sheetLabels,
		),
		TasksFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tasks_failed_total",
				Help:      "Total number of tasks that failed",
			},
			sheetLabels,
		),
		FetchDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fetch_duration_seconds",
				Help:      "Duration of fetch attempts",
				Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
			},
			[]string{"kind"},
		),
		BytesDownloaded: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bytes_downloaded_total",
				Help:      "Total bytes written by fresh downloads",
			},
			sheetLabels,
		),
		RetryAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "retry_attempts_total",
				Help:      "Total number of fetch retry attempts",
			},
			[]string{"kind"},
		),
		DedupLinksCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dedup_links_created_total",
				Help:      "Total number of dedup links materialized",
			},
			[]string{"mode"},
		),
		LastRunTimestamp: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix timestamp of the last completed run",
			},
		),
	}

	defaultMetrics = m
	return m
}

// Get returns the global metrics instance, or nil when Init was not called.
func Get() *Metrics {
	return defaultMetrics
}

// MarkRunFinished records the completion time of a run.
func (m *Metrics) MarkRunFinished() {
	m.LastRunTimestamp.Set(float64(time.Now().Unix()))
}

// Serve starts the metrics HTTP server on the configured address.
// It blocks, so call it in a goroutine.
func Serve(cfg Config) error {
	if !cfg.Enabled {
		return nil
	}
	addr := cfg.Address
	if addr == "" {
		addr = ":9090"
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
