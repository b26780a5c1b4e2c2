// Package metrics records per-run fetch statistics with Prometheus collectors.
//
// harbortags exits after one pass, so metrics are not served over HTTP. They
// can be written in the text exposition format for the node_exporter textfile
// collector (see --metrics-file).
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Fetch outcomes used as the "outcome" label value.
const (
	OutcomeOK     = "ok"
	OutcomeDenied = "denied"
	OutcomeFailed = "failed"
)

// Metrics holds the collectors for one run. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	fetches       *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	tagsReported  prometheus.Gauge
	projects      prometheus.Gauge
	lastRun       prometheus.Gauge
}

// New creates Metrics registered on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m, err := NewWithRegistry(reg, reg)
	if err != nil {
		// A fresh registry cannot hold duplicates.
		panic(err)
	}
	return m
}

// NewWithRegistry registers the collectors on registry. gatherer is used by
// WriteTextfile and may be nil when the caller exposes metrics elsewhere.
func NewWithRegistry(registry prometheus.Registerer, gatherer prometheus.Gatherer) (*Metrics, error) {
	m := &Metrics{
		gatherer: gatherer,
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "harbortags_fetches_total",
			Help: "Number of tag list requests by outcome",
		}, []string{"outcome"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "harbortags_fetch_duration_seconds",
			Help:    "Latency of tag list requests",
			Buckets: prometheus.DefBuckets,
		}),
		tagsReported: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "harbortags_tags_reported",
			Help: "Number of ranked tags included in the last report",
		}),
		projects: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "harbortags_projects_requested",
			Help: "Number of projects requested in the last run",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "harbortags_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
	}

	for _, c := range []prometheus.Collector{m.fetches, m.fetchDuration, m.tagsReported, m.projects, m.lastRun} {
		if err := registry.Register(c); err != nil {
			are := &prometheus.AlreadyRegisteredError{}
			if errors.As(err, &are) {
				return nil, fmt.Errorf("failed to register metric: %w", err)
			}
			return nil, err
		}
	}

	// Pre-create every outcome so all series appear even when zero.
	for _, o := range []string{OutcomeOK, OutcomeDenied, OutcomeFailed} {
		m.fetches.WithLabelValues(o)
	}

	return m, nil
}

func (m *Metrics) ObserveFetch(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(outcome).Inc()
	m.fetchDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) SetRun(projects, tags int, finished time.Time) {
	if m == nil {
		return
	}
	m.projects.Set(float64(projects))
	m.tagsReported.Set(float64(tags))
	m.lastRun.Set(float64(finished.Unix()))
}

// WriteTextfile atomically writes all gathered metrics to path.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if m.gatherer == nil {
		return errors.New("metrics: no gatherer configured")
	}
	if err := prometheus.WriteToTextfile(path, m.gatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
