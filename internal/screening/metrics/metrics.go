// Package metrics provides observability for name screening.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"sdnscreen/internal/sdn/models"
)

type Metrics struct {
	// Queries by operation ("screen", "document", "entry") and outcome
	Queries       *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
	Hits          prometheus.Histogram

	SnapshotRecords    prometheus.Gauge
	SnapshotNames      prometheus.Gauge
	SnapshotIngestedAt prometheus.Gauge
}

// New registers the screening metrics with reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Queries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sdn_screening_queries_total",
			Help: "Screening queries by operation and outcome",
		}, []string{"operation", "outcome"}),

		QueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sdn_screening_query_duration_seconds",
			Help:    "Screening query latency",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}),

		Hits: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "sdn_screening_hits",
			Help:    "Hits returned per name screened",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),

		SnapshotRecords: f.NewGauge(prometheus.GaugeOpts{
			Name: "sdn_screening_snapshot_records",
			Help: "Records in the loaded snapshot",
		}),

		SnapshotNames: f.NewGauge(prometheus.GaugeOpts{
			Name: "sdn_screening_snapshot_names",
			Help: "Indexed names in the loaded snapshot",
		}),

		SnapshotIngestedAt: f.NewGauge(prometheus.GaugeOpts{
			Name: "sdn_screening_snapshot_ingested_timestamp_seconds",
			Help: "Ingestion time of the loaded snapshot",
		}),
	}
}

// ObserveQuery records one finished operation. outcome is "ok" or an error code.
func (m *Metrics) ObserveQuery(operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Queries.WithLabelValues(operation, outcome).Inc()
	m.QueryDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *Metrics) ObserveHits(n int) {
	if m != nil {
		m.Hits.Observe(float64(n))
	}
}

func (m *Metrics) SnapshotLoaded(info models.SnapshotInfo, names int) {
	if m == nil {
		return
	}
	m.SnapshotRecords.Set(float64(info.RecordCount))
	m.SnapshotNames.Set(float64(names))
	m.SnapshotIngestedAt.Set(float64(info.IngestedAt.Unix()))
}
