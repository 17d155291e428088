package cfg

import (
	"errors"
	"flag"
	"fmt"
)

// Bus modes select how forwarded incidents reach the processing pipeline.
const (
	BusLocal       = "local"
	BusKafka       = "kafka"
	BusEventBridge = "eventbridge"
)

// Config holds all service configuration. Fields are populated from flags and
// environment via go-core's cfg loader.
type Config struct {
	DrainSeconds          int
	ShutdownBudgetSeconds int
	APIPort               int
	APIToken              string

	DedupWindowMinutes  int
	ConfidenceThreshold float64
	AgentTimeoutSeconds int

	ClaudeAPIKey string
	ClaudeModel  string

	DatabaseURL    string
	DynamoTable    string
	DynamoEndpoint string

	LokiEndpoint string
	LokiTenantID string
	LokiSelector string

	SlackWebhookURL string
	SNSTopicARN     string
	S3Bucket        string

	BusMode      string
	KafkaBrokers string
	KafkaTopic   string
	KafkaGroupID string
	EventBusName string
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")
	fs.StringVar(&c.APIToken, "api-token", "", "bearer token required on API requests (empty = auth disabled)")
	fs.IntVar(&c.DedupWindowMinutes, "dedup-window-minutes", 15, "suppression window for repeated alarms (1..1440)")
	fs.Float64Var(&c.ConfidenceThreshold, "confidence-threshold", 0.5, "agent confidence below which a human is notified (0..1)")
	fs.IntVar(&c.AgentTimeoutSeconds, "agent-timeout-seconds", 60, "hard deadline for one agent invocation (1..600)")
	fs.StringVar(&c.ClaudeAPIKey, "claude-api-key", "", "API key for the Claude reasoning agent (empty = rule-based fallback only)")
	fs.StringVar(&c.ClaudeModel, "claude-model", "", "Claude model to use (empty = provider default)")
	fs.StringVar(&c.DatabaseURL, "database-url", "", "PostgreSQL connection URL for the incident store")
	fs.StringVar(&c.DynamoTable, "dynamo-table", "", "DynamoDB table for the incident store (takes effect when DATABASE_URL is empty)")
	fs.StringVar(&c.DynamoEndpoint, "dynamo-endpoint", "", "DynamoDB endpoint override for local development")
	fs.StringVar(&c.LokiEndpoint, "loki-endpoint", "", "Loki endpoint for context log collection")
	fs.StringVar(&c.LokiTenantID, "loki-tenant-id", "", "Loki tenant ID for multi-tenant setups")
	fs.StringVar(&c.LokiSelector, "loki-selector", `{job="app"}`, "LogQL stream selector scoping context log queries")
	fs.StringVar(&c.SlackWebhookURL, "slack-webhook-url", "", "Slack webhook URL for escalation notifications")
	fs.StringVar(&c.SNSTopicARN, "sns-topic-arn", "", "SNS topic ARN for escalation notifications")
	fs.StringVar(&c.S3Bucket, "s3-bucket", "", "S3 bucket for incident context archives")
	fs.StringVar(&c.BusMode, "bus-mode", BusLocal, "incident forwarding bus: local, kafka, or eventbridge")
	fs.StringVar(&c.KafkaBrokers, "kafka-brokers", "", "comma-separated Kafka broker addresses")
	fs.StringVar(&c.KafkaTopic, "kafka-topic", "warden.incidents", "Kafka topic carrying forwarded incidents")
	fs.StringVar(&c.KafkaGroupID, "kafka-group-id", "warden", "Kafka consumer group for the processing pipeline")
	fs.StringVar(&c.EventBusName, "event-bus-name", "", "EventBridge bus name for forwarded incidents")
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	// Drain and shutdown budgets
	if c.DrainSeconds <= 0 || c.DrainSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DRAIN_SECONDS %d (must be 1..300)", c.DrainSeconds))
	}
	if c.ShutdownBudgetSeconds <= 0 || c.ShutdownBudgetSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_BUDGET_SECONDS %d (must be 1..300)", c.ShutdownBudgetSeconds))
	}

	// Shutdown budget must be greater than drain time
	if c.ShutdownBudgetSeconds <= c.DrainSeconds {
		errs = append(errs, fmt.Errorf("SHUTDOWN_BUDGET_SECONDS %d must be greater than DRAIN_SECONDS %d", c.ShutdownBudgetSeconds, c.DrainSeconds))
	}

	// API port must be valid TCP port number
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.APIPort))
	}

	if c.DedupWindowMinutes <= 0 || c.DedupWindowMinutes > 1440 {
		errs = append(errs, fmt.Errorf("invalid DEDUP_WINDOW_MINUTES %d (must be 1..1440)", c.DedupWindowMinutes))
	}
	if c.ConfidenceThreshold <= 0 || c.ConfidenceThreshold > 1 {
		errs = append(errs, fmt.Errorf("invalid CONFIDENCE_THRESHOLD %g (must be in (0..1])", c.ConfidenceThreshold))
	}
	if c.AgentTimeoutSeconds <= 0 || c.AgentTimeoutSeconds > 600 {
		errs = append(errs, fmt.Errorf("invalid AGENT_TIMEOUT_SECONDS %d (must be 1..600)", c.AgentTimeoutSeconds))
	}

	switch c.BusMode {
	case BusLocal:
	case BusKafka:
		if c.KafkaBrokers == "" {
			errs = append(errs, errors.New("KAFKA_BROKERS is required when BUS_MODE=kafka"))
		}
		if c.KafkaTopic == "" {
			errs = append(errs, errors.New("KAFKA_TOPIC is required when BUS_MODE=kafka"))
		}
	case BusEventBridge:
		if c.EventBusName == "" {
			errs = append(errs, errors.New("EVENT_BUS_NAME is required when BUS_MODE=eventbridge"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid BUS_MODE %q (must be local, kafka, or eventbridge)", c.BusMode))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
