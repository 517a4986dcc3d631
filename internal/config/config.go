package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultWorkflowTimeout = 5 * time.Minute
	DefaultGatewayTimeout  = 10 * time.Second
	DefaultIdempotencyTTL  = 48 * time.Hour
	DefaultPort            = "8080"
)

// Subscription protocols understood by the topology.
const (
	ProtocolLambda = "lambda"
	ProtocolEmail  = "email"
)

// Handler endpoints for ProtocolLambda subscriptions.
const (
	EndpointInsertOrder    = "insert-order"
	EndpointNotifyCustomer = "notify-customer"
)

// Config is the process configuration, read once at start-up.
type Config struct {
	RunLocal bool
	Port     string
	LogLevel string

	OrdersTable      string
	IdempotencyTable string
	IdempotencyTTL   time.Duration
	TopicARN         string
	DLQURL           string
	EmailAddress     string

	WorkflowTimeout time.Duration
	GatewayTimeout  time.Duration

	MetricsNamespace string
	TopologyFile     string

	// AccountID names execution ARNs; the region comes from the AWS config.
	AccountID string
}

// Topology declares the subscriptions of the order status topic.
type Topology struct {
	Subscriptions []SubscriptionConfig `yaml:"subscriptions"`
}

// SubscriptionConfig is one topic subscription.
type SubscriptionConfig struct {
	Name         string              `yaml:"name"`
	Protocol     string              `yaml:"protocol"`
	Endpoint     string              `yaml:"endpoint"`
	FilterPolicy map[string][]string `yaml:"filterPolicy"`
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		RunLocal:         os.Getenv("RUN_LOCAL") == "true",
		Port:             getEnv("PORT", DefaultPort),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		OrdersTable:      getEnv("TABLE_NAME", os.Getenv("ORDERS_TABLE")),
		IdempotencyTable: os.Getenv("IDEMPOTENCY_TABLE"),
		TopicARN:         os.Getenv("TOPIC_ARN"),
		DLQURL:           os.Getenv("DLQ_URL"),
		EmailAddress:     os.Getenv("EMAIL_ADDRESS"),
		MetricsNamespace: os.Getenv("CLOUDWATCH_NAMESPACE"),
		TopologyFile:     os.Getenv("TOPOLOGY_FILE"),
		AccountID:        os.Getenv("AWS_ACCOUNT_ID"),
	}

	var err error
	if cfg.WorkflowTimeout, err = durationEnv("WORKFLOW_TIMEOUT", DefaultWorkflowTimeout); err != nil {
		return nil, err
	}
	if cfg.GatewayTimeout, err = durationEnv("GATEWAY_TIMEOUT", DefaultGatewayTimeout); err != nil {
		return nil, err
	}
	if cfg.IdempotencyTTL, err = durationEnv("IDEMPOTENCY_TTL", DefaultIdempotencyTTL); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Topology returns the topology from TopologyFile, or DefaultTopology when unset.
func (c *Config) Topology() (*Topology, error) {
	if c.TopologyFile == "" {
		return DefaultTopology(c.EmailAddress), nil
	}
	return LoadTopology(c.TopologyFile)
}

// DefaultTopology mirrors the deployed topic: the persister only sees
// accepted orders, the notifier and the email address see both outcomes.
// The email subscription is omitted when email is empty.
func DefaultTopology(email string) *Topology {
	both := []string{"Accepted", "Rejected"}
	t := &Topology{
		Subscriptions: []SubscriptionConfig{
			{
				Name:         EndpointInsertOrder,
				Protocol:     ProtocolLambda,
				Endpoint:     EndpointInsertOrder,
				FilterPolicy: map[string][]string{"OrderStatus": {"Accepted"}},
			},
			{
				Name:         EndpointNotifyCustomer,
				Protocol:     ProtocolLambda,
				Endpoint:     EndpointNotifyCustomer,
				FilterPolicy: map[string][]string{"OrderStatus": both},
			},
		},
	}
	if email != "" {
		t.Subscriptions = append(t.Subscriptions, SubscriptionConfig{
			Name:         "order-status-email",
			Protocol:     ProtocolEmail,
			Endpoint:     email,
			FilterPolicy: map[string][]string{"OrderStatus": both},
		})
	}
	return t
}

// LoadTopology reads and validates a YAML topology file.
func LoadTopology(path string) (*Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read topology %s: %w", path, err)
	}
	return ParseTopology(data)
}

// ParseTopology decodes and validates a YAML topology document.
func ParseTopology(data []byte) (*Topology, error) {
	var t Topology
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse topology: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks names are unique and every subscription is routable.
func (t *Topology) Validate() error {
	seen := make(map[string]bool, len(t.Subscriptions))
	for i, s := range t.Subscriptions {
		if s.Name == "" {
			return fmt.Errorf("subscription %d: name is required", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("subscription %q: duplicate name", s.Name)
		}
		seen[s.Name] = true

		switch s.Protocol {
		case ProtocolLambda:
			if s.Endpoint != EndpointInsertOrder && s.Endpoint != EndpointNotifyCustomer {
				return fmt.Errorf("subscription %q: unknown lambda endpoint %q", s.Name, s.Endpoint)
			}
		case ProtocolEmail:
			if s.Endpoint == "" {
				return fmt.Errorf("subscription %q: email endpoint is required", s.Name)
			}
		default:
			return fmt.Errorf("subscription %q: unsupported protocol %q", s.Name, s.Protocol)
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, v)
	}
	return d, nil
}
