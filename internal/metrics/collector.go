// Package metrics exposes export outcomes as Prometheus metrics.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mrlokans/csvexport/internal/exporters"
)

// Config controls metric naming.
type Config struct {
	Enabled   bool
	Namespace string
	Subsystem string
}

// Collector records one observation set per export outcome.
//
// Metrics:
//   - csvexport_exports_total: outcomes by status and origin
//   - csvexport_build_duration_seconds: time spent building CSV text
//   - csvexport_export_duration_seconds: end-to-end request time
//   - csvexport_artifact_size_bytes: size of delivered CSV text
//   - csvexport_rows_total: data rows delivered
type Collector struct {
	config   Config
	registry *prometheus.Registry

	exportsTotal   *prometheus.CounterVec
	buildDuration  prometheus.Histogram
	exportDuration *prometheus.HistogramVec
	artifactSize   prometheus.Histogram
	rowsTotal      prometheus.Counter
}

// NewCollector registers export metrics with registry. A nil registry gets a
// fresh one.
func NewCollector(cfg Config, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "csvexport"
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
		exportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "exports_total",
				Help:      "Total number of export requests by outcome",
			},
			[]string{"status", "origin"},
		),
		buildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "build_duration_seconds",
				Help:      "Time spent loading and rendering datasets",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
		),
		exportDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "export_duration_seconds",
				Help:      "End-to-end duration of export requests",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
			},
			[]string{"status"},
		),
		artifactSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "artifact_size_bytes",
				Help:      "Size of delivered CSV text in bytes",
				Buckets:   prometheus.ExponentialBuckets(256, 4, 10), // 256B to 64MB
			},
		),
		rowsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rows_total",
				Help:      "Total number of data rows delivered",
			},
		),
	}

	registry.MustRegister(
		c.exportsTotal,
		c.buildDuration,
		c.exportDuration,
		c.artifactSize,
		c.rowsTotal,
	)

	return c
}

// Notify implements exporters.Notifier.
func (c *Collector) Notify(_ context.Context, outcome exporters.Outcome) {
	if !c.config.Enabled {
		return
	}

	origin := outcome.Origin
	if origin == "" {
		origin = "unknown"
	}
	c.exportsTotal.WithLabelValues(string(outcome.Status), origin).Inc()
	c.buildDuration.Observe(outcome.BuildDuration.Seconds())
	c.exportDuration.WithLabelValues(string(outcome.Status)).Observe(outcome.Duration.Seconds())

	if outcome.Status == exporters.StatusSuccess {
		c.artifactSize.Observe(float64(outcome.Bytes))
		c.rowsTotal.Add(float64(outcome.Rows))
	}
}

// Registry returns the registry the collector writes to.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

var _ exporters.Notifier = (*Collector)(nil)
