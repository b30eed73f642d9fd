// Package metrics holds the Prometheus collectors for gameplay traffic.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label for accepted events; rejected events use the error code.
const ResultApplied = "applied"

// Run outcomes.
const (
	OutcomeCrashed   = "crashed"
	OutcomeCompleted = "completed"
)

// Metrics bundles the collectors registered on one registry.
type Metrics struct {
	registry *prometheus.Registry

	events         *prometheus.CounterVec
	eventDuration  *prometheus.HistogramVec
	runsFinished   *prometheus.CounterVec
	sessionsActive prometheus.Gauge
	sessionsSwept  prometheus.Counter
}

// New registers the collectors on a fresh registry together with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		events: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quest_events_total",
				Help: "Gameplay events received, by event kind and result",
			},
			[]string{"event", "result"},
		),
		eventDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quest_event_duration_seconds",
				Help:    "Time spent applying a gameplay event",
				Buckets: prometheus.ExponentialBuckets(0.00005, 4, 8),
			},
			[]string{"event"},
		),
		runsFinished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quest_runs_finished_total",
				Help: "Scenario runs that ended in a crash or completion",
			},
			[]string{"scenario", "outcome"},
		),
		sessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "quest_sessions_active",
				Help: "Sessions currently held in memory",
			},
		),
		sessionsSwept: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "quest_sessions_expired_total",
				Help: "Sessions evicted after sitting idle",
			},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveEvent(event, result string, took time.Duration) {
	m.events.WithLabelValues(event, result).Inc()
	m.eventDuration.WithLabelValues(event).Observe(took.Seconds())
}

func (m *Metrics) RunFinished(scenario, outcome string) {
	m.runsFinished.WithLabelValues(scenario, outcome).Inc()
}

func (m *Metrics) SetActiveSessions(n int) {
	m.sessionsActive.Set(float64(n))
}

func (m *Metrics) SessionsExpired(n int) {
	m.sessionsSwept.Add(float64(n))
}
