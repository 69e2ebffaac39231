package metrics

import (
	"net/http"

	"github.com/cargarage/execution-service/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	// Counters
	tasksCreated    prometheus.Counter
	transitions     *prometheus.CounterVec
	eventsReceived  *prometheus.CounterVec
	eventsPublished *prometheus.CounterVec

	// Gauges
	tasksByStatus *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		tasksCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "execution_tasks_created_total",
				Help: "Total number of execution tasks created",
			},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "execution_task_transitions_total",
				Help: "Total number of persisted status transitions",
			},
			[]string{"from", "to"},
		),
		eventsReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "execution_events_received_total",
				Help: "Total number of inbound events by type and routing outcome",
			},
			[]string{"event_type", "outcome"},
		),
		eventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "execution_events_published_total",
				Help: "Total number of outbound notifications by type, target and outcome",
			},
			[]string{"event_type", "target", "outcome"},
		),
		tasksByStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "execution_tasks",
				Help: "Current number of execution tasks per status",
			},
			[]string{"status"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.tasksCreated,
		m.transitions,
		m.eventsReceived,
		m.eventsPublished,
		m.tasksByStatus,
	)
	return m
}

func (m *Metrics) TaskCreated() {
	m.tasksCreated.Inc()
}

func (m *Metrics) TaskTransitioned(from, to domain.ExecutionStatus) {
	m.transitions.WithLabelValues(string(from), string(to)).Inc()
}

func (m *Metrics) EventReceived(eventType, outcome string) {
	m.eventsReceived.WithLabelValues(eventType, outcome).Inc()
}

func (m *Metrics) EventPublished(eventType, target, outcome string) {
	m.eventsPublished.WithLabelValues(eventType, target, outcome).Inc()
}

func (m *Metrics) SetTaskCount(status domain.ExecutionStatus, count int64) {
	m.tasksByStatus.WithLabelValues(string(status)).Set(float64(count))
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
