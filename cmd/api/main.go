package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/propagation"

	"github.com/jhkiehna/pizza-tracker/internal/app"
	"github.com/jhkiehna/pizza-tracker/internal/aws"
	"github.com/jhkiehna/pizza-tracker/internal/bus"
	"github.com/jhkiehna/pizza-tracker/internal/config"
	"github.com/jhkiehna/pizza-tracker/internal/handlers"
	"github.com/jhkiehna/pizza-tracker/internal/notify"
	"github.com/jhkiehna/pizza-tracker/internal/observability"
)

func setupRouter(cfg handlers.HandlerConfig, prop propagation.TextMapPropagator, metricsHandler http.Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(handlers.TraceContext(prop))

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if metricsHandler != nil {
		r.GET("/metrics", gin.WrapH(metricsHandler))
	}

	handlers.RegisterOrdersRoutes(r, cfg)

	return r
}

// newPublisher returns the SNS topic when TOPIC_ARN is set. Otherwise the
// subscribers run in-process behind a local topic.
func newPublisher(cfg *config.Config, clients *aws.AWSClients, logger *slog.Logger, metrics *observability.Metrics) (bus.Publisher, error) {
	if cfg.TopicARN != "" {
		return aws.NewTopicPublisher(clients.SNS, cfg.TopicARN), nil
	}

	persister, err := app.NewPersister(cfg, clients.DynamoDB, logger, metrics)
	if err != nil {
		return nil, err
	}
	insert := &app.InsertOrderHandler{Persister: persister, Logger: logger}
	if cfg.DLQURL != "" {
		insert.DLQ = aws.NewQueuePublisher(clients.SQS, cfg.DLQURL)
	}

	topo, err := cfg.Topology()
	if err != nil {
		return nil, err
	}
	return app.BuildTopic(topo, app.Subscribers{
		InsertOrder:    insert,
		NotifyCustomer: notify.NewCustomerNotifier(logger),
		Mailer:         notify.LogMailer{Logger: logger},
	}, bus.WithLogger(logger), bus.WithMetrics(metrics))
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := observability.NewLogger("api", observability.ParseLogLevel(cfg.LogLevel))

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	tr, err := observability.InitTracing(ctx, observability.GetTracingConfig("pizza-tracker-api"), logger)
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}
	defer func() { _ = tr.Shutdown(ctx) }()

	clients, err := aws.NewAWSClients(ctx)
	if err != nil {
		log.Fatalf("failed to init aws clients: %v", err)
	}

	pub, err := newPublisher(cfg, clients, logger, metrics)
	if err != nil {
		log.Fatalf("failed to init publisher: %v", err)
	}

	machineCfg := app.MachineConfig{
		Timeout: cfg.WorkflowTimeout,
		Logger:  logger,
		Metrics: metrics,
		Tracer:  tr.Tracer,
	}
	if !cfg.RunLocal {
		machineCfg.Counter = aws.NewMetricsPublisher(clients.CloudWatch, cfg.MetricsNamespace)
		machineCfg.Region = clients.Region
		machineCfg.AccountID = cfg.AccountID
	}
	machine, err := app.NewOrderMachine(pub, machineCfg)
	if err != nil {
		log.Fatalf("failed to build workflow: %v", err)
	}

	handlerCfg := handlers.HandlerConfig{
		Runner:         machine,
		GatewayTimeout: cfg.GatewayTimeout,
		Logger:         logger,
		Metrics:        metrics,
	}

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if cfg.RunLocal {
		r := setupRouter(handlerCfg, tr.Propagator, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		addr := ":" + cfg.Port
		logger.Info("running local server", "addr", addr)
		if err := r.Run(addr); err != nil {
			log.Fatalf("failed to run local server: %v", err)
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(setupRouter(handlerCfg, tr.Propagator, nil))

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
