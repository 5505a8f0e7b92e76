// Package metrics provides observability for sanctions list ingestion.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"sdnscreen/internal/sdn/models"
)

type Metrics struct {
	// Phase durations: decode, lookups, resolve, denormalize, publish
	PhaseDuration *prometheus.HistogramVec

	// Completed runs by outcome
	Runs *prometheus.CounterVec

	// Per-object resolution gaps by kind
	Warnings *prometheus.CounterVec

	RecordsPublished prometheus.Gauge
	LastSuccess      prometheus.Gauge
}

// New registers the ingestion metrics with reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		PhaseDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sdn_ingest_phase_duration_seconds",
			Help:    "Duration of each ingestion phase",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"phase"}),

		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sdn_ingest_runs_total",
			Help: "Total ingestion runs by outcome",
		}, []string{"outcome"}), // outcome: "published", "failed"

		Warnings: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sdn_ingest_warnings_total",
			Help: "Per-object resolution gaps by kind",
		}, []string{"kind"}),

		RecordsPublished: f.NewGauge(prometheus.GaugeOpts{
			Name: "sdn_ingest_records_published",
			Help: "Record count of the last published snapshot",
		}),

		LastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Name: "sdn_ingest_last_success_timestamp_seconds",
			Help: "Unix time of the last published snapshot",
		}),
	}
}

func (m *Metrics) ObservePhase(phase string, d time.Duration) {
	if m != nil {
		m.PhaseDuration.WithLabelValues(phase).Observe(d.Seconds())
	}
}

func (m *Metrics) RecordFailure() {
	if m != nil {
		m.Runs.WithLabelValues("failed").Inc()
	}
}

// RecordPublished records a successful run and its warning counts.
func (m *Metrics) RecordPublished(records int, warnings models.WarningCounts, at time.Time) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues("published").Inc()
	m.RecordsPublished.Set(float64(records))
	m.LastSuccess.Set(float64(at.Unix()))
	for kind, n := range warnings {
		m.Warnings.WithLabelValues(string(kind)).Add(float64(n))
	}
}
