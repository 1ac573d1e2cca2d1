package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FeedbackEventsTotal counts folded feedback events.
	// Labels: kind (accepted, rejected, ignored, delayed, modified)
	FeedbackEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prefd",
			Subsystem: "engine",
			Name:      "feedback_events_total",
			Help:      "Total feedback events folded into preference state, by kind",
		},
		[]string{"kind"},
	)

	// ValidationFailuresTotal counts events rejected at the facade boundary.
	ValidationFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "prefd",
			Subsystem: "engine",
			Name:      "validation_failures_total",
			Help:      "Total feedback events rejected by boundary validation",
		},
	)

	// AdaptationsTotal counts adapted recommendations.
	// Labels: result (shown, suppressed, neutral)
	AdaptationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prefd",
			Subsystem: "engine",
			Name:      "adaptations_total",
			Help:      "Total recommendation adaptations by outcome",
		},
		[]string{"result"},
	)

	// FoldDuration tracks how long a full fold takes, lock wait included.
	FoldDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "prefd",
			Subsystem: "engine",
			Name:      "fold_duration_seconds",
			Help:      "Duration of feedback folds including per-key lock contention",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		},
	)

	// ActiveKeys reports the number of preference keys with state.
	ActiveKeys = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "prefd",
			Subsystem: "engine",
			Name:      "active_keys",
			Help:      "Number of (agent, user, task-type) keys currently holding state",
		},
	)
)
