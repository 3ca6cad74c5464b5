package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline's prometheus collectors.
type Metrics struct {
	// Capture
	EventsCaptured prometheus.Counter
	EventsFiltered *prometheus.CounterVec
	CaptureErrors  prometheus.Counter

	// Retention
	SweepRuns      *prometheus.CounterVec
	RecordsDeleted prometheus.Counter

	// Reporter
	RollupCount   prometheus.Gauge
	IconFallbacks prometheus.Counter
}

// New creates the collectors and registers them on reg. A nil reg
// leaves them unregistered, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EventsCaptured: f.NewCounter(prometheus.CounterOpts{
			Namespace: "notistore",
			Subsystem: "capture",
			Name:      "events_captured_total",
			Help:      "Total number of notification events persisted",
		}),
		EventsFiltered: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "notistore",
			Subsystem: "capture",
			Name:      "events_filtered_total",
			Help:      "Total number of notification events dropped before insert",
		}, []string{"reason"}),
		CaptureErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: "notistore",
			Subsystem: "capture",
			Name:      "insert_errors_total",
			Help:      "Total number of failed notification inserts",
		}),
		SweepRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "notistore",
			Subsystem: "retention",
			Name:      "sweeps_total",
			Help:      "Total number of retention sweeps by outcome",
		}, []string{"result"}),
		RecordsDeleted: f.NewCounter(prometheus.CounterOpts{
			Namespace: "notistore",
			Subsystem: "retention",
			Name:      "records_deleted_total",
			Help:      "Total number of records removed by retention sweeps",
		}),
		RollupCount: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "notistore",
			Subsystem: "reporter",
			Name:      "rollup_notifications",
			Help:      "Notification count shown in the current status rollup",
		}),
		IconFallbacks: f.NewCounter(prometheus.CounterOpts{
			Namespace: "notistore",
			Subsystem: "reporter",
			Name:      "icon_fallbacks_total",
			Help:      "Total number of icon lookups that fell back to the placeholder",
		}),
	}
}
