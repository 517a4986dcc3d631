package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/jhkiehna/pizza-tracker/internal/observability"
	"github.com/jhkiehna/pizza-tracker/internal/orders"
)

type checker struct {
	logger *slog.Logger
}

// Handle receives the bare flavour string and reports whether it is pineapple.
func (c *checker) Handle(ctx context.Context, flavour string) (orders.PineappleAnalysis, error) {
	c.logger.InfoContext(ctx, "checking flavour", "flavour", flavour)
	return orders.Analyse(flavour), nil
}

func main() {
	c := &checker{logger: observability.NewLogger("checkflavour", observability.ParseLogLevel(os.Getenv("LOG_LEVEL")))}

	// If RUN_LOCAL=true, check LOCAL_FLAVOUR once and print the result.
	if os.Getenv("RUN_LOCAL") == "true" {
		flavour := os.Getenv("LOCAL_FLAVOUR")
		if flavour == "" {
			flavour = "Hawaiian"
		}
		res, err := c.Handle(context.Background(), flavour)
		if err != nil {
			log.Fatalf("local handler error: %v", err)
		}
		out, _ := json.Marshal(res)
		log.Printf("%s", out)
		return
	}

	lambda.Start(c.Handle)
}
