package bus

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhkiehna/pizza-tracker/internal/observability"
)

type recorder struct {
	mu   sync.Mutex
	msgs []Message
	err  error
}

func (r *recorder) HandleMessages(ctx context.Context, msgs []Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msgs...)
	return r.err
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

func TestFilterPolicy_Matches(t *testing.T) {
	p := FilterPolicy{AttrOrderStatus: {"Accepted"}}
	assert.True(t, p.Matches(map[string]string{AttrOrderStatus: "Accepted"}))
	assert.False(t, p.Matches(map[string]string{AttrOrderStatus: "Rejected"}))
	assert.False(t, p.Matches(nil))

	both := FilterPolicy{AttrOrderStatus: {"Accepted", "Rejected"}}
	assert.True(t, both.Matches(map[string]string{AttrOrderStatus: "Rejected", "other": "x"}))

	assert.True(t, FilterPolicy(nil).Matches(nil))
}

func newTestTopic(opts ...Option) *Topic {
	n := 0
	var mu sync.Mutex
	opts = append(opts, WithIDFunc(func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return "msg-" + string(rune('0'+n))
	}))
	return NewTopic(opts...)
}

func TestTopic_FansOutByStatus(t *testing.T) {
	topic := newTestTopic()
	persist, notify, email := &recorder{}, &recorder{}, &recorder{}

	require.NoError(t, topic.Subscribe("insert-order", FilterPolicy{AttrOrderStatus: {"Accepted"}}, persist))
	require.NoError(t, topic.Subscribe("notify-customer", FilterPolicy{AttrOrderStatus: {"Accepted", "Rejected"}}, notify))
	require.NoError(t, topic.Subscribe("email", FilterPolicy{AttrOrderStatus: {"Rejected", "Accepted"}}, email))

	ctx := context.Background()
	d := topic.Deliver(ctx, []byte(`{"flavour":"Pepperoni"}`), map[string]string{AttrOrderStatus: "Accepted"})
	assert.Equal(t, "msg-1", d.MessageID)
	assert.Len(t, d.Results, 3)
	assert.Empty(t, d.Failed())

	id, err := topic.Publish(ctx, []byte(`{"flavour":"Hawaiian"}`), map[string]string{AttrOrderStatus: "Rejected"})
	require.NoError(t, err)
	assert.Equal(t, "msg-2", id)

	assert.Equal(t, 1, persist.count())
	assert.Equal(t, 2, notify.count())
	assert.Equal(t, 2, email.count())

	got := persist.msgs[0]
	assert.Equal(t, "msg-1", got.ID)
	assert.Equal(t, `{"flavour":"Pepperoni"}`, got.Body)
	assert.Equal(t, "Accepted", got.Attributes[AttrOrderStatus])
}

func TestTopic_FailingSubscriberIsolated(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	topic := newTestTopic(WithMetrics(metrics))

	ok := &recorder{}
	bad := &recorder{err: errors.New("table missing")}
	panicky := HandlerFunc(func(context.Context, []Message) error { panic("boom") })

	require.NoError(t, topic.Subscribe("ok", nil, ok))
	require.NoError(t, topic.Subscribe("bad", nil, bad))
	require.NoError(t, topic.Subscribe("panicky", nil, panicky))

	d := topic.Deliver(context.Background(), []byte(`{}`), map[string]string{AttrOrderStatus: "Accepted"})
	failed := d.Failed()
	require.Len(t, failed, 2)
	assert.Equal(t, 1, ok.count())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Deliveries.WithLabelValues("ok", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Deliveries.WithLabelValues("bad", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Deliveries.WithLabelValues("panicky", "error")))
}

func TestTopic_Subscribe_Validation(t *testing.T) {
	topic := NewTopic()
	assert.Error(t, topic.Subscribe("", nil, &recorder{}))
	assert.Error(t, topic.Subscribe("x", nil, nil))
	require.NoError(t, topic.Subscribe("x", nil, &recorder{}))
	assert.ErrorIs(t, topic.Subscribe("x", nil, &recorder{}), ErrDuplicateSubscription)
}

func TestTopic_NoMatchingSubscribers(t *testing.T) {
	topic := NewTopic()
	require.NoError(t, topic.Subscribe("accepted-only", FilterPolicy{AttrOrderStatus: {"Accepted"}}, &recorder{}))

	d := topic.Deliver(context.Background(), []byte(`{}`), nil)
	assert.NotEmpty(t, d.MessageID)
	assert.Empty(t, d.Results)
}

func TestSNSEvent_RoundTrip(t *testing.T) {
	in := Message{ID: "m-1", Body: `{"flavour":"Pepperoni","size":"Large","quantity":1}`, Attributes: map[string]string{AttrOrderStatus: "Accepted"}}
	ev := NewSNSEvent("arn:aws:sns:us-east-1:000000000000:PizzaTrackerTopic", in)
	require.Len(t, ev.Records, 1)
	assert.Equal(t, "aws:sns", ev.Records[0].EventSource)

	out := FromSNSEvent(ev)
	require.Len(t, out, 1)
	assert.Equal(t, in, out[0])
}

func TestFromSNSEvent_IgnoresNonStringAttributes(t *testing.T) {
	ev := NewSNSEvent("arn")
	ev.Records = append(ev.Records, NewSNSEvent("arn", Message{ID: "a", Body: "{}"}).Records...)
	ev.Records[0].SNS.MessageAttributes = map[string]interface{}{
		AttrOrderStatus: map[string]interface{}{"Type": "String", "Value": "Rejected"},
		"blob":          map[string]interface{}{"Type": "Binary", "Value": "AAEC"},
		"broken":        "not-a-map",
	}

	out := FromSNSEvent(ev)
	require.Len(t, out, 1)
	assert.Equal(t, map[string]string{AttrOrderStatus: "Rejected"}, out[0].Attributes)
}
