package bus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/jhkiehna/pizza-tracker/internal/observability"
)

// ErrDuplicateSubscription is returned when a subscription name is reused.
var ErrDuplicateSubscription = errors.New("subscription already exists")

type subscription struct {
	name    string
	policy  FilterPolicy
	handler Handler
}

// DeliveryResult is the outcome of handing one message to one subscription.
type DeliveryResult struct {
	Subscription string
	Err          error
}

// Delivery describes a published message and where it went.
type Delivery struct {
	MessageID string
	Results   []DeliveryResult
}

// Failed returns the results whose handler returned an error.
func (d Delivery) Failed() []DeliveryResult {
	var out []DeliveryResult
	for _, r := range d.Results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// Topic is an in-process publish/subscribe topic with attribute filtering.
// It stands in for the SNS topic when the stack runs in a single process.
type Topic struct {
	mu      sync.RWMutex
	subs    []subscription
	logger  *slog.Logger
	metrics *observability.Metrics
	newID   func() string
}

// Option configures a Topic.
type Option func(*Topic)

// WithLogger sets the topic logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Topic) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithMetrics records deliveries on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(t *Topic) { t.metrics = m }
}

// WithIDFunc overrides message id generation.
func WithIDFunc(fn func() string) Option {
	return func(t *Topic) { t.newID = fn }
}

// NewTopic returns an empty topic.
func NewTopic(opts ...Option) *Topic {
	t := &Topic{
		logger: slog.Default(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Subscribe registers h under name; it receives every message matching policy.
func (t *Topic) Subscribe(name string, policy FilterPolicy, h Handler) error {
	if name == "" {
		return errors.New("subscription name is required")
	}
	if h == nil {
		return fmt.Errorf("subscription %q: nil handler", name)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range t.subs {
		if s.name == name {
			return fmt.Errorf("%w: %s", ErrDuplicateSubscription, name)
		}
	}
	t.subs = append(t.subs, subscription{name: name, policy: policy, handler: h})
	return nil
}

// Publish implements Publisher.
func (t *Topic) Publish(ctx context.Context, payload []byte, attributes map[string]string) (string, error) {
	d := t.Deliver(ctx, payload, attributes)
	return d.MessageID, nil
}

// Deliver hands the message to every matching subscription concurrently and
// waits for all of them. A failing subscription never affects the others.
func (t *Topic) Deliver(ctx context.Context, payload []byte, attributes map[string]string) Delivery {
	msg := Message{
		ID:         t.newID(),
		Body:       string(payload),
		Attributes: copyAttributes(attributes),
	}

	t.mu.RLock()
	matched := make([]subscription, 0, len(t.subs))
	for _, s := range t.subs {
		if s.policy.Matches(msg.Attributes) {
			matched = append(matched, s)
		}
	}
	t.mu.RUnlock()

	results := make([]DeliveryResult, len(matched))
	var wg sync.WaitGroup
	for i, s := range matched {
		wg.Add(1)
		go func(i int, s subscription) {
			defer wg.Done()
			err := safeHandle(ctx, s.handler, msg)
			results[i] = DeliveryResult{Subscription: s.name, Err: err}
		}(i, s)
	}
	wg.Wait()

	for _, r := range results {
		result := "ok"
		if r.Err != nil {
			result = "error"
			t.logger.ErrorContext(ctx, "delivery failed",
				"subscription", r.Subscription, "message_id", msg.ID, "error", r.Err)
		} else {
			t.logger.DebugContext(ctx, "delivered",
				"subscription", r.Subscription, "message_id", msg.ID)
		}
		if t.metrics != nil {
			t.metrics.Deliveries.WithLabelValues(r.Subscription, result).Inc()
		}
	}

	return Delivery{MessageID: msg.ID, Results: results}
}

// safeHandle converts a handler panic into a delivery error.
func safeHandle(ctx context.Context, h Handler, msg Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	// each subscriber gets its own copy of the attribute map
	m := msg
	m.Attributes = copyAttributes(msg.Attributes)
	return h.HandleMessages(ctx, []Message{m})
}

func copyAttributes(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
