package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/jhkiehna/pizza-tracker/internal/bus"
)

// CustomerNotifier tells customers about their order status.
// Only logging is implemented.
type CustomerNotifier struct {
	logger *slog.Logger
}

// NewCustomerNotifier returns a notifier logging to logger (slog.Default when nil).
func NewCustomerNotifier(logger *slog.Logger) *CustomerNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &CustomerNotifier{logger: logger}
}

// HandleMessages logs every message and never fails.
func (n *CustomerNotifier) HandleMessages(ctx context.Context, msgs []bus.Message) error {
	for _, m := range msgs {
		// TODO: deliver through a customer-facing channel once orders carry contact details.
		n.logger.InfoContext(ctx, "order status",
			"message_id", m.ID,
			"status", m.Attributes[bus.AttrOrderStatus],
			"order", orderValue(m.Body),
		)
	}
	return nil
}

// orderValue logs JSON bodies as structured values and anything else as text.
func orderValue(body string) any {
	if json.Valid([]byte(body)) {
		return json.RawMessage(body)
	}
	return body
}
