package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/jhkiehna/pizza-tracker/internal/bus"
	"github.com/jhkiehna/pizza-tracker/internal/observability"
)

type published struct {
	Payload    string
	Attributes map[string]string
}

type recordingPublisher struct {
	mu    sync.Mutex
	calls []published
	err   error
}

func (p *recordingPublisher) Publish(ctx context.Context, payload []byte, attrs map[string]string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.calls = append(p.calls, published{Payload: string(payload), Attributes: attrs})
	return "msg-1", nil
}

// blockingPublisher ignores ctx and waits for release.
type blockingPublisher struct {
	release chan struct{}
}

func (p *blockingPublisher) Publish(ctx context.Context, payload []byte, attrs map[string]string) (string, error) {
	<-p.release
	return "late", nil
}

func newOrderMachine(t *testing.T, pub bus.Publisher, opts ...Option) *Machine {
	t.Helper()
	m, err := NewMachine(NewOrderPizza(pub, nil), opts...)
	require.NoError(t, err)
	return m
}

func TestOrderPizza_Accepted(t *testing.T) {
	pub := &recordingPublisher{}
	m := newOrderMachine(t, pub)

	input := `{"flavour":"Pepperoni","size":"Large","quantity":1}`
	exec := m.Run(context.Background(), []byte(input))

	require.Equal(t, StatusSucceeded, exec.Status)
	assert.Equal(t, StateMakePizza, exec.State)
	assert.Empty(t, exec.Error)
	assert.Empty(t, exec.Cause)

	require.Len(t, pub.calls, 1)
	assert.Equal(t, input, pub.calls[0].Payload)
	assert.Equal(t, map[string]string{bus.AttrOrderStatus: "Accepted"}, pub.calls[0].Attributes)

	var out struct {
		Order             map[string]any `json:"order"`
		PineappleAnalysis struct {
			ContainsPineapple bool `json:"containsPineapple"`
		} `json:"pineappleAnalysis"`
		Status    string `json:"status"`
		MessageID string `json:"messageId"`
	}
	require.NoError(t, json.Unmarshal(exec.Output, &out))
	assert.Equal(t, "Pepperoni", out.Order["flavour"])
	assert.False(t, out.PineappleAnalysis.ContainsPineapple)
	assert.Equal(t, "Accepted", out.Status)
	assert.Equal(t, "msg-1", out.MessageID)

	var states []StateName
	for _, tr := range exec.History {
		states = append(states, tr.State)
	}
	assert.Equal(t, []StateName{StateCheckFlavour, StateWithPineapple, StatePublishAccepted, StateMakePizza}, states)
}

func TestOrderPizza_Rejected(t *testing.T) {
	for _, flavour := range []string{"Hawaiian", "PINEAPPLE", "pineapple"} {
		t.Run(flavour, func(t *testing.T) {
			pub := &recordingPublisher{}
			m := newOrderMachine(t, pub)

			input := `{"flavour":"` + flavour + `","size":"Medium","quantity":2}`
			exec := m.Run(context.Background(), []byte(input))

			require.Equal(t, StatusFailed, exec.Status)
			assert.Equal(t, StatePineappleDetected, exec.State)
			assert.Equal(t, ErrorFailedToMakePizza, exec.Error)
			assert.Equal(t, CausePineapple, exec.Cause)
			assert.Nil(t, exec.Output)

			require.Len(t, pub.calls, 1)
			assert.Equal(t, input, pub.calls[0].Payload)
			assert.Equal(t, "Rejected", pub.calls[0].Attributes[bus.AttrOrderStatus])
		})
	}
}

func TestOrderPizza_SubstringIsNotPineapple(t *testing.T) {
	pub := &recordingPublisher{}
	exec := newOrderMachine(t, pub).Run(context.Background(), []byte(`{"flavour":"Pineapple Pepperoni"}`))

	require.Equal(t, StatusSucceeded, exec.Status)
	require.Len(t, pub.calls, 1)
	assert.Equal(t, "Accepted", pub.calls[0].Attributes[bus.AttrOrderStatus])
}

func TestOrderPizza_InvalidInput(t *testing.T) {
	for _, input := range []string{``, `not json`, `{"size":"Large"}`, `{"flavour":7}`, `["Hawaiian"]`} {
		pub := &recordingPublisher{}
		exec := newOrderMachine(t, pub).Run(context.Background(), []byte(input))

		assert.Equal(t, StatusFailed, exec.Status, "input %q", input)
		assert.Equal(t, ErrorRuntime, exec.Error, "input %q", input)
		assert.NotEmpty(t, exec.Cause)
		assert.Empty(t, pub.calls, "input %q must not publish", input)
	}
}

func TestOrderPizza_PublishFailure(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("topic unavailable")}
	exec := newOrderMachine(t, pub).Run(context.Background(), []byte(`{"flavour":"Pepperoni"}`))

	require.Equal(t, StatusFailed, exec.Status)
	assert.Equal(t, ErrorTaskFailed, exec.Error)
	assert.Contains(t, exec.Cause, "topic unavailable")
	assert.Equal(t, StatePublishAccepted, exec.State)
}

func TestOrderPizza_Timeout(t *testing.T) {
	pub := &blockingPublisher{release: make(chan struct{})}
	defer close(pub.release)

	m := newOrderMachine(t, pub, WithTimeout(20*time.Millisecond))
	exec := m.Run(context.Background(), []byte(`{"flavour":"Pepperoni"}`))

	require.Equal(t, StatusTimedOut, exec.Status)
	assert.Equal(t, ErrorTimeout, exec.Error)
	assert.Equal(t, StatePublishAccepted, exec.State)
}

func TestOrderPizza_EventsPublishedMetric(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	m, err := NewMachine(NewOrderPizza(&recordingPublisher{}, metrics))
	require.NoError(t, err)

	m.Run(context.Background(), []byte(`{"flavour":"Hawaiian"}`))
	m.Run(context.Background(), []byte(`{"flavour":"Margherita"}`))
	m.Run(context.Background(), []byte(`{"flavour":"Veggie"}`))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EventsPublished.WithLabelValues("Rejected")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.EventsPublished.WithLabelValues("Accepted")))
}

func TestExecution_Result(t *testing.T) {
	m := newOrderMachine(t, &recordingPublisher{},
		WithIDFunc(func() string { return "exec-1" }),
		WithARNPrefix("arn:aws:states:eu-west-1:123456789012:express"),
	)
	exec := m.Run(context.Background(), []byte(`{"flavour":"Hawaiian"}`))

	raw, err := json.Marshal(exec.Result())
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "arn:aws:states:eu-west-1:123456789012:express:OrderPizza:exec-1", doc["executionArn"])
	assert.Equal(t, "exec-1", doc["name"])
	assert.Equal(t, "FAILED", doc["status"])
	assert.Equal(t, "Failed To Make Pizza", doc["error"])
	assert.Equal(t, "They asked for Pineapple", doc["cause"])
	assert.NotContains(t, doc, "output")
	assert.Greater(t, doc["startDate"].(float64), 0.0)
	assert.GreaterOrEqual(t, doc["stopDate"].(float64), doc["startDate"].(float64))
}

func TestMachine_Tracing(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	m := newOrderMachine(t, &recordingPublisher{}, WithTracer(tp.Tracer("test")))
	m.Run(context.Background(), []byte(`{"flavour":"Pepperoni"}`))

	names := map[string]bool{}
	for _, s := range rec.Ended() {
		names[s.Name()] = true
	}
	assert.True(t, names["workflow OrderPizza"])
	assert.True(t, names["state CheckFlavour"])
	assert.True(t, names["state PublishAccepted"])
}
