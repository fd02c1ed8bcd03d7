package utils

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	CollectRuns     *prometheus.CounterVec
	CollectDuration prometheus.Histogram
	ItemsScraped    prometheus.Counter
	ItemsSkipped    prometheus.Counter
	RowsDropped     *prometheus.CounterVec
	CleanRows       prometheus.Gauge
}

// NewMetrics registers the pipeline collectors on a private registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	m := &Metrics{
		registry: reg,
		CollectRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "growth_collect_runs_total",
			Help: "Collection runs by final status.",
		}, []string{"status"}),
		CollectDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "growth_collect_duration_seconds",
			Help:    "Wall time of a collection run.",
			Buckets: []float64{1, 5, 10, 20, 30, 60, 120},
		}),
		ItemsScraped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "growth_items_scraped_total",
			Help: "Listing items written to the raw store.",
		}),
		ItemsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "growth_items_skipped_total",
			Help: "Listing items where no selector matched.",
		}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "growth_rows_dropped_total",
			Help: "Raw rows dropped by the normalizer, by reason.",
		}, []string{"reason"}),
		CleanRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "growth_clean_rows",
			Help: "Rows in the clean store after the last normalizer run.",
		}),
	}

	reg.MustRegister(m.CollectRuns, m.CollectDuration, m.ItemsScraped,
		m.ItemsSkipped, m.RowsDropped, m.CleanRows)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
