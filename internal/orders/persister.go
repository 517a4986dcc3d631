package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jhkiehna/pizza-tracker/internal/bus"
	"github.com/jhkiehna/pizza-tracker/internal/observability"
)

const defaultConcurrency = 16

// Result classifies what happened to one message.
type Result string

const (
	ResultWritten Result = "written"
	ResultSkipped Result = "skipped" // duplicate delivery already recorded
	ResultFailed  Result = "failed"
)

// Outcome is the per-message result of Persister.Handle.
type Outcome struct {
	MessageID string
	RecordID  string
	Result    Result
	Err       error
}

// RecordWriter persists a single record.
type RecordWriter interface {
	Put(ctx context.Context, rec Record) error
}

// Ledger claims message ids so redelivered messages are written once.
type Ledger interface {
	CreateIfNotExists(ctx context.Context, key, recordID string) (bool, error)
	MarkDone(ctx context.Context, key string) error
	MarkFailed(ctx context.Context, key, note string) error
}

// Persister writes one record per delivered accepted order.
type Persister struct {
	store       RecordWriter
	ledger      Ledger
	logger      *slog.Logger
	metrics     *observability.Metrics
	newID       func() string
	concurrency int
}

// PersisterOption configures a Persister.
type PersisterOption func(*Persister)

// WithLedger enables duplicate-delivery detection keyed by message id.
func WithLedger(l Ledger) PersisterOption {
	return func(p *Persister) { p.ledger = l }
}

// WithLogger sets the persister logger.
func WithLogger(l *slog.Logger) PersisterOption {
	return func(p *Persister) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMetrics records outcomes on m.
func WithMetrics(m *observability.Metrics) PersisterOption {
	return func(p *Persister) { p.metrics = m }
}

// WithIDFunc overrides record id generation.
func WithIDFunc(fn func() string) PersisterOption {
	return func(p *Persister) { p.newID = fn }
}

// WithConcurrency bounds the number of in-flight writes per batch.
func WithConcurrency(n int) PersisterOption {
	return func(p *Persister) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// NewPersister returns a Persister writing through store.
func NewPersister(store RecordWriter, opts ...PersisterOption) *Persister {
	p := &Persister{
		store:       store,
		logger:      slog.Default(),
		newID:       uuid.NewString,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handle writes every message of the batch concurrently. A failed write
// never cancels the others; all writes are awaited. The returned slice is
// index-aligned with msgs.
func (p *Persister) Handle(ctx context.Context, msgs []bus.Message) []Outcome {
	p.logger.InfoContext(ctx, "received batch", "records", len(msgs))

	outcomes := make([]Outcome, len(msgs))
	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, msg := range msgs {
		i, msg := i, msg
		g.Go(func() error {
			outcomes[i] = p.persist(ctx, msg)
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range outcomes {
		if p.metrics != nil {
			p.metrics.RecordsWritten.WithLabelValues(string(o.Result)).Inc()
		}
		if o.Err != nil {
			p.logger.ErrorContext(ctx, "persist order failed",
				"message_id", o.MessageID, "uuid", o.RecordID, "error", o.Err)
		}
	}
	return outcomes
}

func (p *Persister) persist(ctx context.Context, msg bus.Message) Outcome {
	out := Outcome{MessageID: msg.ID, RecordID: p.newID()}

	var order interface{}
	if err := json.Unmarshal([]byte(msg.Body), &order); err != nil {
		out.Result = ResultFailed
		out.Err = fmt.Errorf("decode order: %w", err)
		return out
	}

	if p.ledger != nil && msg.ID != "" {
		created, err := p.ledger.CreateIfNotExists(ctx, msg.ID, out.RecordID)
		if err != nil {
			out.Result = ResultFailed
			out.Err = fmt.Errorf("claim delivery: %w", err)
			return out
		}
		if !created {
			p.logger.InfoContext(ctx, "duplicate delivery skipped", "message_id", msg.ID)
			out.Result = ResultSkipped
			return out
		}
	}

	err := p.store.Put(ctx, Record{UUID: out.RecordID, Order: order})
	if err != nil {
		out.Result = ResultFailed
		out.Err = err
		if p.ledger != nil && msg.ID != "" {
			if lerr := p.ledger.MarkFailed(ctx, msg.ID, err.Error()); lerr != nil {
				out.Err = errors.Join(err, fmt.Errorf("mark delivery failed: %w", lerr))
			}
		}
		return out
	}

	out.Result = ResultWritten
	if p.ledger != nil && msg.ID != "" {
		if err := p.ledger.MarkDone(ctx, msg.ID); err != nil {
			// the record exists; a stale IN_PROGRESS claim only blocks redelivery
			p.logger.WarnContext(ctx, "mark delivery done failed", "message_id", msg.ID, "error", err)
		}
	}
	p.logger.DebugContext(ctx, "order persisted", "message_id", msg.ID, "uuid", out.RecordID)
	return out
}

// Failed returns the outcomes with Result == ResultFailed.
func Failed(outcomes []Outcome) []Outcome {
	var out []Outcome
	for _, o := range outcomes {
		if o.Result == ResultFailed {
			out = append(out, o)
		}
	}
	return out
}
