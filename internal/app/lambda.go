package app

import (
	"context"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jhkiehna/pizza-tracker/internal/bus"
)

// SNSHandler adapts a bus.Handler to an SNS-triggered Lambda.
type SNSHandler struct {
	Handler bus.Handler
	Logger  *slog.Logger
}

func (h *SNSHandler) Handle(ctx context.Context, ev events.SNSEvent) error {
	msgs := bus.FromSNSEvent(ev)
	if h.Logger != nil {
		h.Logger.InfoContext(ctx, "received SNS event", "records", len(msgs))
	}
	return h.Handler.HandleMessages(ctx, msgs)
}
