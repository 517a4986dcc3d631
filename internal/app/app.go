// Package app wires the order flow components for the binaries under cmd/.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/jhkiehna/pizza-tracker/internal/aws"
	"github.com/jhkiehna/pizza-tracker/internal/bus"
	"github.com/jhkiehna/pizza-tracker/internal/config"
	"github.com/jhkiehna/pizza-tracker/internal/idempotency"
	"github.com/jhkiehna/pizza-tracker/internal/observability"
	"github.com/jhkiehna/pizza-tracker/internal/orders"
	"github.com/jhkiehna/pizza-tracker/internal/workflow"
)

// MachineConfig holds what the order workflow needs besides its publisher.
type MachineConfig struct {
	Timeout time.Duration
	Logger  *slog.Logger
	Metrics *observability.Metrics // optional
	Tracer  trace.Tracer           // optional
	Counter workflow.MetricCounter // optional, CloudWatch in Lambda mode

	// Region and AccountID name the execution ARNs. Executions keep the
	// local placeholder ARN when Region is empty.
	Region    string
	AccountID string
}

const placeholderAccount = "000000000000"

// ExecutionARNPrefix is the express state machine ARN prefix for region and
// account. An empty account uses the placeholder account id.
func ExecutionARNPrefix(region, accountID string) string {
	if accountID == "" {
		accountID = placeholderAccount
	}
	return fmt.Sprintf("arn:aws:states:%s:%s:express", region, accountID)
}

// NewOrderMachine builds the order workflow publishing on pub, with every
// configured observer attached.
func NewOrderMachine(pub bus.Publisher, cfg MachineConfig) (*workflow.Machine, error) {
	observer := workflow.NewCompositeObserver(
		workflow.NewLoggingObserver(cfg.Logger),
		workflow.NewPrometheusObserver(cfg.Metrics),
		workflow.NewCloudWatchObserver(cfg.Counter, cfg.Logger),
	)

	opts := []workflow.Option{
		workflow.WithTimeout(cfg.Timeout),
		workflow.WithObserver(observer),
		workflow.WithTracer(cfg.Tracer),
	}
	if cfg.Region != "" {
		opts = append(opts, workflow.WithARNPrefix(ExecutionARNPrefix(cfg.Region, cfg.AccountID)))
	}

	m, err := workflow.NewMachine(workflow.NewOrderPizza(pub, cfg.Metrics), opts...)
	if err != nil {
		return nil, fmt.Errorf("build order workflow: %w", err)
	}
	return m, nil
}

// NewPersister builds the orders persister for cfg. The delivery ledger is
// attached only when an idempotency table is configured.
func NewPersister(cfg *config.Config, client aws.DynamoDBAPI, logger *slog.Logger, metrics *observability.Metrics) (*orders.Persister, error) {
	if cfg.OrdersTable == "" {
		return nil, errors.New("TABLE_NAME is required")
	}

	opts := []orders.PersisterOption{
		orders.WithLogger(logger),
		orders.WithMetrics(metrics),
	}
	if cfg.IdempotencyTable != "" {
		ledger := idempotency.NewStore(client, cfg.IdempotencyTable, cfg.IdempotencyTTL)
		opts = append(opts, orders.WithLedger(ledger))
	}
	return orders.NewPersister(orders.NewStore(client, cfg.OrdersTable), opts...), nil
}
