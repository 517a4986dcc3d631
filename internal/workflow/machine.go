package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	DefaultTimeout        = 5 * time.Minute
	DefaultMaxTransitions = 100
)

// Machine executes a validated Definition synchronously.
type Machine struct {
	def            *Definition
	timeout        time.Duration
	maxTransitions int
	observer       Observer
	tracer         trace.Tracer
	arnPrefix      string
	newID          func() string
	now            func() time.Time
}

type Option func(*Machine)

func WithTimeout(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 {
			m.timeout = d
		}
	}
}

func WithMaxTransitions(n int) Option {
	return func(m *Machine) {
		if n > 0 {
			m.maxTransitions = n
		}
	}
}

func WithObserver(o Observer) Option {
	return func(m *Machine) {
		if o != nil {
			m.observer = o
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(m *Machine) {
		if t != nil {
			m.tracer = t
		}
	}
}

// WithARNPrefix sets the prefix of execution ARNs; the definition name and
// execution id are appended.
func WithARNPrefix(prefix string) Option {
	return func(m *Machine) { m.arnPrefix = prefix }
}

func WithIDFunc(fn func() string) Option {
	return func(m *Machine) { m.newID = fn }
}

// NewMachine validates def and returns a Machine for it.
func NewMachine(def *Definition, opts ...Option) (*Machine, error) {
	if def == nil {
		return nil, fmt.Errorf("%w: definition is nil", ErrInvalidDefinition)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	m := &Machine{
		def:            def,
		timeout:        DefaultTimeout,
		maxTransitions: DefaultMaxTransitions,
		observer:       NoopObserver{},
		tracer:         noop.NewTracerProvider().Tracer("workflow"),
		arnPrefix:      "arn:aws:states:local:000000000000:express",
		newID:          uuid.NewString,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Run executes the workflow for input. It always returns a terminal
// Execution; failures are reported through its Status, Error and Cause.
func (m *Machine) Run(ctx context.Context, input []byte) *Execution {
	id := m.newID()
	exec := &Execution{
		ID:        id,
		ARN:       fmt.Sprintf("%s:%s:%s", m.arnPrefix, m.def.Name, id),
		Name:      id,
		Workflow:  m.def.Name,
		StartDate: m.now(),
		Status:    StatusRunning,
	}

	ctx, span := m.tracer.Start(ctx, "workflow "+m.def.Name, trace.WithAttributes(
		attribute.String("workflow.name", m.def.Name),
		attribute.String("workflow.execution_id", id),
	))
	defer span.End()

	runCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	m.observer.OnExecutionStart(ctx, exec)

	m.execute(runCtx, exec, input)

	exec.StopDate = m.now()
	span.SetAttributes(attribute.String("workflow.status", string(exec.Status)))
	if exec.Status == StatusSucceeded {
		span.SetStatus(codes.Ok, "")
		m.observer.OnExecutionSucceeded(ctx, exec)
	} else {
		span.SetStatus(codes.Error, exec.Error)
		span.SetAttributes(attribute.String("workflow.error", exec.Error))
		m.observer.OnExecutionFailed(ctx, exec)
	}
	return exec
}

func (m *Machine) execute(ctx context.Context, exec *Execution, input []byte) {
	data, err := m.def.Decode(input)
	if err != nil {
		m.fail(exec, StatusFailed, ErrorRuntime, err.Error())
		return
	}

	current := m.def.StartAt
	for transitions := 0; ; transitions++ {
		exec.State = current

		if transitions >= m.maxTransitions {
			m.fail(exec, StatusFailed, ErrorRuntime, fmt.Sprintf("%s after %d transitions", ErrTransitionLimit, transitions))
			return
		}
		if err := ctx.Err(); err != nil {
			m.contextDone(exec, err)
			return
		}

		state, ok := m.def.States[current]
		if !ok {
			m.fail(exec, StatusFailed, ErrorRuntime, fmt.Sprintf("%s: %q", ErrUnknownState, current))
			return
		}

		switch s := state.(type) {
		case Succeed, *Succeed:
			m.record(exec, current, "", m.now(), 0, nil)
			output, err := data.Output()
			if err != nil {
				m.fail(exec, StatusFailed, ErrorRuntime, err.Error())
				return
			}
			exec.Status = StatusSucceeded
			exec.Output = output
			return
		case Fail:
			m.record(exec, current, "", m.now(), 0, nil)
			m.fail(exec, StatusFailed, s.Error, s.Cause)
			return
		case *Fail:
			m.record(exec, current, "", m.now(), 0, nil)
			m.fail(exec, StatusFailed, s.Error, s.Cause)
			return
		}

		next, err := m.step(ctx, exec, current, state, data)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				m.contextDone(exec, ctxErr)
				return
			}
			cause := err.Error()
			m.fail(exec, StatusFailed, ErrorTaskFailed, cause)
			return
		}
		current = next
	}
}

// step runs one non-terminal state, abandoning it when ctx ends first.
func (m *Machine) step(ctx context.Context, exec *Execution, name StateName, state State, data *Data) (StateName, error) {
	ctx, span := m.tracer.Start(ctx, "state "+string(name), trace.WithAttributes(
		attribute.String("workflow.state", string(name)),
	))
	defer span.End()

	m.observer.OnStateEnter(ctx, exec, name)
	entered := m.now()

	type result struct {
		next StateName
		err  error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("state %s panicked: %v", name, r)}
			}
		}()
		next, err := state.Execute(ctx, data)
		done <- result{next: next, err: err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		res = result{err: ctx.Err()}
	}

	d := m.now().Sub(entered)
	if res.err != nil {
		span.RecordError(res.err)
		span.SetStatus(codes.Error, res.err.Error())
	}
	m.observer.OnStateExit(ctx, exec, name, res.err, d)
	m.record(exec, name, res.next, entered, d, res.err)
	return res.next, res.err
}

func (m *Machine) record(exec *Execution, name, next StateName, entered time.Time, d time.Duration, err error) {
	t := Transition{State: name, Next: next, Entered: entered, Duration: d}
	if err != nil {
		t.Err = err.Error()
	}
	exec.History = append(exec.History, t)
}

func (m *Machine) contextDone(exec *Execution, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		m.fail(exec, StatusTimedOut, ErrorTimeout, fmt.Sprintf("execution exceeded %s", m.timeout))
		return
	}
	m.fail(exec, StatusFailed, ErrorRuntime, err.Error())
}

func (m *Machine) fail(exec *Execution, status Status, errName, cause string) {
	exec.Status = status
	exec.Error = errName
	exec.Cause = cause
}
