package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/jhkiehna/pizza-tracker/internal/observability"
)

// PrometheusObserver feeds the shared Prometheus collectors.
type PrometheusObserver struct {
	NoopObserver
	Metrics *observability.Metrics
}

func NewPrometheusObserver(m *observability.Metrics) Observer {
	if m == nil {
		return nil
	}
	return &PrometheusObserver{Metrics: m}
}

func (o *PrometheusObserver) OnStateExit(_ context.Context, exec *Execution, state StateName, err error, d time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	o.Metrics.StateTransitions.WithLabelValues(exec.Workflow, string(state), result).Inc()
	o.Metrics.StateDuration.WithLabelValues(exec.Workflow, string(state)).Observe(d.Seconds())
}

func (o *PrometheusObserver) OnExecutionSucceeded(_ context.Context, exec *Execution) {
	o.record(exec)
}

func (o *PrometheusObserver) OnExecutionFailed(_ context.Context, exec *Execution) {
	o.record(exec)
}

func (o *PrometheusObserver) record(exec *Execution) {
	o.Metrics.ExecutionsTotal.WithLabelValues(exec.Workflow, string(exec.Status), exec.Error).Inc()
	o.Metrics.ExecutionDuration.WithLabelValues(exec.Workflow, string(exec.Status)).
		Observe(exec.StopDate.Sub(exec.StartDate).Seconds())
}

// MetricCounter publishes a single counter datum.
type MetricCounter interface {
	Count(ctx context.Context, name string, value float64, dimensions map[string]string) error
}

// CloudWatchObserver counts terminal executions through a MetricCounter.
// Publish errors are logged and never affect the execution.
type CloudWatchObserver struct {
	NoopObserver
	Counter MetricCounter
	Logger  *slog.Logger
}

func NewCloudWatchObserver(counter MetricCounter, logger *slog.Logger) Observer {
	if counter == nil {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudWatchObserver{Counter: counter, Logger: logger}
}

func (o *CloudWatchObserver) OnExecutionSucceeded(ctx context.Context, exec *Execution) {
	o.publish(ctx, exec)
}

func (o *CloudWatchObserver) OnExecutionFailed(ctx context.Context, exec *Execution) {
	o.publish(ctx, exec)
}

func (o *CloudWatchObserver) publish(ctx context.Context, exec *Execution) {
	dims := map[string]string{
		"Workflow": exec.Workflow,
		"Status":   string(exec.Status),
	}
	if exec.Error != "" {
		dims["Error"] = exec.Error
	}
	if err := o.Counter.Count(ctx, "Executions", 1, dims); err != nil {
		o.Logger.WarnContext(ctx, "failed to publish execution metric",
			slog.String("execution_id", exec.ID),
			slog.Any("error", err),
		)
	}
}
