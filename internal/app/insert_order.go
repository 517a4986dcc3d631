package app

import (
	"context"
	"log/slog"

	"github.com/jhkiehna/pizza-tracker/internal/bus"
	"github.com/jhkiehna/pizza-tracker/internal/orders"
)

// QueueSender sends one message to a queue.
type QueueSender interface {
	SendMessage(ctx context.Context, body string, attrs map[string]string) error
}

// InsertOrderHandler persists accepted orders and parks failed messages on
// an optional dead-letter queue. It never returns an error, so a partially
// written batch is not redelivered.
type InsertOrderHandler struct {
	Persister *orders.Persister
	DLQ       QueueSender // optional
	Logger    *slog.Logger
}

func (h *InsertOrderHandler) HandleMessages(ctx context.Context, msgs []bus.Message) error {
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}

	outcomes := h.Persister.Handle(ctx, msgs)
	failed := orders.Failed(outcomes)
	if len(failed) == 0 {
		return nil
	}
	logger.WarnContext(ctx, "batch partially persisted", "failed", len(failed), "total", len(outcomes))

	if h.DLQ == nil {
		return nil
	}
	for i, o := range outcomes {
		if o.Result != orders.ResultFailed {
			continue
		}
		msg := msgs[i]
		attrs := map[string]string{
			"message_id": msg.ID,
			"error":      o.Err.Error(),
		}
		if status := msg.Attributes[bus.AttrOrderStatus]; status != "" {
			attrs[bus.AttrOrderStatus] = status
		}
		if err := h.DLQ.SendMessage(ctx, msg.Body, attrs); err != nil {
			logger.ErrorContext(ctx, "dead-letter send failed", "message_id", msg.ID, "error", err)
		}
	}
	return nil
}
