package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "circle_catalog"

// Stage names used as the "stage" label of StageDuration.
const (
	StageFetch     = "fetch"
	StageExtract   = "extract"
	StageAssemble  = "assemble"
	StageOverrides = "overrides"
	StageReconcile = "reconcile"
)

// Metrics holds the collectors of one batch run. Each instance owns its
// registry, so tests and repeated runs never collide.
type Metrics struct {
	Registry *prometheus.Registry

	CirclesProcessed  prometheus.Counter
	OverridesApplied  prometheus.Counter
	OverridesMissing  prometheus.Counter
	OverridesMistyped prometheus.Counter
	SnapshotUpdates   prometheus.Counter
	SnapshotVersion   prometheus.Gauge
	LastRunTimestamp  prometheus.Gauge
	StageDuration     *prometheus.HistogramVec
}

// New registers the run collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		CirclesProcessed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "circles_processed_total",
			Help:      "Circle records assembled from the page state",
		}),
		OverridesApplied: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overrides_applied_total",
			Help:      "Override patches applied to a circle",
		}),
		OverridesMissing: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overrides_missing_total",
			Help:      "Override patches whose id matched no circle",
		}),
		OverridesMistyped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overrides_mistyped_total",
			Help:      "Override values stored verbatim because they do not fit the field type",
		}),
		SnapshotUpdates: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_updates_total",
			Help:      "Runs that wrote a new snapshot version",
		}),
		SnapshotVersion: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_version",
			Help:      "Version of the snapshot on disk after the run",
		}),
		LastRunTimestamp: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the run finished",
		}),
		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage in seconds",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"stage"}),
	}
}

// ObserveStage records the time elapsed since start for stage.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// WriteTextfile writes every collector in the node_exporter textfile
// format, for batch runs that have no scrape endpoint.
func (m *Metrics) WriteTextfile(path string) error {
	m.LastRunTimestamp.SetToCurrentTime()
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
