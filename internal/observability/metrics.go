package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors shared by the order flow.
type Metrics struct {
	ExecutionsTotal   *prometheus.CounterVec
	ExecutionDuration *prometheus.HistogramVec
	StateTransitions  *prometheus.CounterVec
	StateDuration     *prometheus.HistogramVec
	EventsPublished   *prometheus.CounterVec
	Deliveries        *prometheus.CounterVec
	RecordsWritten    *prometheus.CounterVec
	GatewayTimeouts   prometheus.Counter
}

// NewMetrics creates and registers all metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ExecutionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pizza_workflow_executions_total",
			Help: "Workflow executions by terminal status and error.",
		}, []string{"workflow", "status", "error"}),

		ExecutionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pizza_workflow_execution_duration_seconds",
			Help:    "Wall-clock time per workflow execution.",
			Buckets: prometheus.DefBuckets,
		}, []string{"workflow", "status"}),

		StateTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pizza_workflow_state_transitions_total",
			Help: "State exits by state and result.",
		}, []string{"workflow", "state", "result"}),

		StateDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pizza_workflow_state_duration_seconds",
			Help:    "Time spent per state.",
			Buckets: prometheus.DefBuckets,
		}, []string{"workflow", "state"}),

		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pizza_events_published_total",
			Help: "Order status events published.",
		}, []string{"status"}),

		Deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pizza_bus_deliveries_total",
			Help: "In-process topic deliveries by subscription and result.",
		}, []string{"subscription", "result"}),

		RecordsWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pizza_records_written_total",
			Help: "Persister outcomes by result.",
		}, []string{"result"}),

		GatewayTimeouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "pizza_gateway_timeouts_total",
			Help: "Requests answered with 504 before the workflow finished.",
		}),
	}
}
