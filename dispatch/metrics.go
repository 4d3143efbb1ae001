package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/namezys/hass-home-script/metric"
)

// Metrics holds Prometheus metrics for the dispatch engine.
type Metrics struct {
	notificationsTotal prometheus.Counter
	matchesTotal       *prometheus.CounterVec
	preemptionsTotal   *prometheus.CounterVec
	evalErrorsTotal    prometheus.Counter
	registrations      prometheus.Gauge
	matchDuration      prometheus.Histogram
}

// newMetrics creates and registers dispatch metrics.
// Returns nil if no registry provided (nil input = nil feature pattern).
func newMetrics(registry *metric.Registry) *Metrics {
	if registry == nil {
		return nil
	}

	metrics := &Metrics{
		notificationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "dispatch",
			Name:      "notifications_total",
			Help:      "State-change notifications processed",
		}),

		matchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "dispatch",
			Name:      "matches_total",
			Help:      "Registrations matched by notifications",
		}, []string{"script"}),

		preemptionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "dispatch",
			Name:      "preemptions_total",
			Help:      "Preemption cycles triggered per script",
		}, []string{"script"}),

		evalErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "dispatch",
			Name:      "eval_errors_total",
			Help:      "Condition evaluation errors during matching",
		}),

		registrations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metric.Namespace,
			Subsystem: "dispatch",
			Name:      "registrations",
			Help:      "Registered (event, script, action) triples",
		}),

		matchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metric.Namespace,
			Subsystem: "dispatch",
			Name:      "match_duration_seconds",
			Help:      "Time spent matching and launching per notification",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
	}

	registry.MustRegister(
		metrics.notificationsTotal,
		metrics.matchesTotal,
		metrics.preemptionsTotal,
		metrics.evalErrorsTotal,
		metrics.registrations,
		metrics.matchDuration,
	)

	return metrics
}
