package workflow

import (
	"context"
	"log/slog"
	"time"
)

// Observer receives execution lifecycle callbacks. Implementations must be
// fast; they run on the execution goroutine.
type Observer interface {
	OnExecutionStart(ctx context.Context, exec *Execution)
	OnStateEnter(ctx context.Context, exec *Execution, state StateName)
	// OnStateExit is called for successes and failures (err != nil).
	OnStateExit(ctx context.Context, exec *Execution, state StateName, err error, d time.Duration)
	OnExecutionSucceeded(ctx context.Context, exec *Execution)
	// OnExecutionFailed covers FAILED and TIMED_OUT.
	OnExecutionFailed(ctx context.Context, exec *Execution)
}

// NoopObserver does nothing.
type NoopObserver struct{}

func (NoopObserver) OnExecutionStart(context.Context, *Execution)        {}
func (NoopObserver) OnStateEnter(context.Context, *Execution, StateName) {}
func (NoopObserver) OnStateExit(context.Context, *Execution, StateName, error, time.Duration) {
}
func (NoopObserver) OnExecutionSucceeded(context.Context, *Execution) {}
func (NoopObserver) OnExecutionFailed(context.Context, *Execution)    {}

// CompositeObserver fans callbacks out to several observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver drops nil entries and collapses trivial cases.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	switch len(filtered) {
	case 0:
		return NoopObserver{}
	case 1:
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnExecutionStart(ctx context.Context, exec *Execution) {
	for _, o := range c.observers {
		o.OnExecutionStart(ctx, exec)
	}
}

func (c *CompositeObserver) OnStateEnter(ctx context.Context, exec *Execution, state StateName) {
	for _, o := range c.observers {
		o.OnStateEnter(ctx, exec, state)
	}
}

func (c *CompositeObserver) OnStateExit(ctx context.Context, exec *Execution, state StateName, err error, d time.Duration) {
	for _, o := range c.observers {
		o.OnStateExit(ctx, exec, state, err, d)
	}
}

func (c *CompositeObserver) OnExecutionSucceeded(ctx context.Context, exec *Execution) {
	for _, o := range c.observers {
		o.OnExecutionSucceeded(ctx, exec)
	}
}

func (c *CompositeObserver) OnExecutionFailed(ctx context.Context, exec *Execution) {
	for _, o := range c.observers {
		o.OnExecutionFailed(ctx, exec)
	}
}

// LoggingObserver logs every lifecycle event, including state input
// and output at debug level.
type LoggingObserver struct {
	Logger *slog.Logger
}

func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnExecutionStart(ctx context.Context, exec *Execution) {
	o.Logger.InfoContext(ctx, "execution_start",
		slog.String("workflow", exec.Workflow),
		slog.String("execution_id", exec.ID),
	)
}

func (o *LoggingObserver) OnStateEnter(ctx context.Context, exec *Execution, state StateName) {
	o.Logger.DebugContext(ctx, "state_enter",
		slog.String("workflow", exec.Workflow),
		slog.String("execution_id", exec.ID),
		slog.String("state", string(state)),
	)
}

func (o *LoggingObserver) OnStateExit(ctx context.Context, exec *Execution, state StateName, err error, d time.Duration) {
	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelError
	}
	o.Logger.Log(ctx, level, "state_exit",
		slog.String("workflow", exec.Workflow),
		slog.String("execution_id", exec.ID),
		slog.String("state", string(state)),
		slog.Duration("duration", d),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnExecutionSucceeded(ctx context.Context, exec *Execution) {
	o.Logger.InfoContext(ctx, "execution_succeeded",
		slog.String("workflow", exec.Workflow),
		slog.String("execution_id", exec.ID),
		slog.String("state", string(exec.State)),
		slog.Duration("duration", exec.StopDate.Sub(exec.StartDate)),
	)
}

func (o *LoggingObserver) OnExecutionFailed(ctx context.Context, exec *Execution) {
	o.Logger.WarnContext(ctx, "execution_failed",
		slog.String("workflow", exec.Workflow),
		slog.String("execution_id", exec.ID),
		slog.String("status", string(exec.Status)),
		slog.String("state", string(exec.State)),
		slog.String("error", exec.Error),
		slog.String("cause", exec.Cause),
	)
}
