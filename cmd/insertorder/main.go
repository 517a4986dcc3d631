package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhkiehna/pizza-tracker/internal/app"
	"github.com/jhkiehna/pizza-tracker/internal/aws"
	"github.com/jhkiehna/pizza-tracker/internal/bus"
	"github.com/jhkiehna/pizza-tracker/internal/config"
	"github.com/jhkiehna/pizza-tracker/internal/observability"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := observability.NewLogger("insertorder", observability.ParseLogLevel(cfg.LogLevel))
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	clients, err := aws.NewAWSClients(ctx)
	if err != nil {
		log.Fatalf("failed to init aws clients: %v", err)
	}

	persister, err := app.NewPersister(cfg, clients.DynamoDB, logger, metrics)
	if err != nil {
		log.Fatalf("failed to init persister: %v", err)
	}
	insert := &app.InsertOrderHandler{Persister: persister, Logger: logger}
	if cfg.DLQURL != "" {
		insert.DLQ = aws.NewQueuePublisher(clients.SQS, cfg.DLQURL)
	}
	h := &app.SNSHandler{Handler: insert, Logger: logger}

	// If RUN_LOCAL=true, simulate one accepted order delivered by SNS.
	if cfg.RunLocal {
		body := os.Getenv("LOCAL_SNS_BODY")
		if body == "" {
			body = `{"flavour":"Pepperoni","size":"Large","quantity":1}`
		}
		ev := bus.NewSNSEvent(cfg.TopicARN, bus.Message{
			ID:         "local-message-1",
			Body:       body,
			Attributes: map[string]string{bus.AttrOrderStatus: "Accepted"},
		})
		if err := h.Handle(ctx, ev); err != nil {
			log.Fatalf("local handler error: %v", err)
		}
		return
	}

	lambda.Start(h.Handle)
}
