// Package metrics exposes detection pipeline counters in prometheus format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lixenwraith/rectlap/overlap"
)

const namespace = "rectlap"

// Error reasons used as the "reason" label of dispatch errors
const (
	ReasonClosed = "closed"
	ReasonSubmit = "submit"
	ReasonQueue  = "queue"
	ReasonBusy   = "busy"
)

// EngineDurationBuckets spans interactive workloads from 10us to 5s
var EngineDurationBuckets = []float64{
	0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5,
}

// Metrics groups the collectors of one pipeline
// A nil *Metrics is valid and records nothing
type Metrics struct {
	dispatches  prometheus.Counter
	errors      *prometheus.CounterVec
	stale       prometheus.Counter
	duration    prometheus.Histogram
	rectangles  prometheus.Gauge
	overlapping prometheus.Gauge
	maxActive   prometheus.Gauge
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		dispatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_total",
			Help:      "Detection passes submitted to the worker pool.",
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_errors_total",
			Help:      "Detection passes that could not be started or delivered, by reason.",
		}, []string{"reason"}),
		stale: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_stale_total",
			Help:      "Completed passes discarded because a newer pass was already published.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "engine_duration_seconds",
			Help:      "Wall time of one overlap engine pass.",
			Buckets:   EngineDurationBuckets,
		}),
		rectangles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rectangles",
			Help:      "Rectangles in the last published result.",
		}),
		overlapping: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "overlapping_rectangles",
			Help:      "Rectangles flagged as overlapping in the last published result.",
		}),
		maxActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "engine_max_active",
			Help:      "Largest active set of the last engine pass.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.dispatches, m.errors, m.stale, m.duration, m.rectangles, m.overlapping, m.maxActive)
	}
	return m
}

// Dispatched counts a submitted pass
func (m *Metrics) Dispatched() {
	if m == nil {
		return
	}
	m.dispatches.Inc()
}

// DispatchFailed counts a pass that failed with the given reason
func (m *Metrics) DispatchFailed(reason string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(reason).Inc()
}

// EngineRun records one engine pass
func (m *Metrics) EngineRun(stats overlap.Stats, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.duration.Observe(elapsed.Seconds())
	m.maxActive.Set(float64(stats.MaxActive))
}

// Stale counts a discarded out-of-order result
func (m *Metrics) Stale() {
	if m == nil {
		return
	}
	m.stale.Inc()
}

// Published records the contents of the result now visible to the presentation layer
func (m *Metrics) Published(total, overlapping int) {
	if m == nil {
		return
	}
	m.rectangles.Set(float64(total))
	m.overlapping.Set(float64(overlapping))
}
