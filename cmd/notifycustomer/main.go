package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/jhkiehna/pizza-tracker/internal/app"
	"github.com/jhkiehna/pizza-tracker/internal/bus"
	"github.com/jhkiehna/pizza-tracker/internal/notify"
	"github.com/jhkiehna/pizza-tracker/internal/observability"
)

func main() {
	logger := observability.NewLogger("notifycustomer", observability.ParseLogLevel(os.Getenv("LOG_LEVEL")))
	h := &app.SNSHandler{Handler: notify.NewCustomerNotifier(logger), Logger: logger}

	// If RUN_LOCAL=true, simulate one SNS delivery from LOCAL_SNS_BODY and LOCAL_ORDER_STATUS.
	if os.Getenv("RUN_LOCAL") == "true" {
		body := os.Getenv("LOCAL_SNS_BODY")
		if body == "" {
			body = `{"flavour":"Hawaiian","size":"Medium","quantity":2}`
		}
		status := os.Getenv("LOCAL_ORDER_STATUS")
		if status == "" {
			status = "Rejected"
		}
		ev := bus.NewSNSEvent(os.Getenv("TOPIC_ARN"), bus.Message{
			ID:         "local-message-1",
			Body:       body,
			Attributes: map[string]string{bus.AttrOrderStatus: status},
		})
		if err := h.Handle(context.Background(), ev); err != nil {
			log.Fatalf("local handler error: %v", err)
		}
		return
	}

	lambda.Start(h.Handle)
}
