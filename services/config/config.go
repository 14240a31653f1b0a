// Package config resolves the daemon's environment-variable configuration
// surface. All keys are prefixed AEGISD_ and documented on the struct
// tags below; Load never reads a file, matching the minimal CLI surface
// the process exposes.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the full environment-resolved configuration surface.
type Config struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogDir   string `envconfig:"LOG_DIR"`

	StorePath string `envconfig:"STORE_PATH" default:"aegisd.db"`

	LLMModel  string `envconfig:"LLM_MODEL" default:"gpt-4o-mini"`
	LLMAPIKey string `envconfig:"LLM_API_KEY"`

	WeaviateURL string `envconfig:"WEAVIATE_URL"`

	GatewayHost   string `envconfig:"GATEWAY_HOST" default:"0.0.0.0"`
	GatewayPort   int    `envconfig:"GATEWAY_PORT" default:"8088"`
	GatewaySecret string `envconfig:"GATEWAY_SECRET"`

	OTLPEndpoint string `envconfig:"OTLP_ENDPOINT" default:"localhost:4317"`
	OTLPInsecure bool   `envconfig:"OTLP_INSECURE" default:"true"`
	TraceSampler string `envconfig:"TRACE_SAMPLER" default:"always"`

	SchedulerWorkerCount int           `envconfig:"SCHEDULER_WORKERS" default:"1"`
	SchedulerHeartbeat   time.Duration `envconfig:"SCHEDULER_HEARTBEAT" default:"10s"`

	HealingCheckInterval    time.Duration `envconfig:"HEALING_CHECK_INTERVAL" default:"30s"`
	HealingFailureThreshold int           `envconfig:"HEALING_FAILURE_THRESHOLD" default:"3"`
	HealingMemoryCeilingMB  int64         `envconfig:"HEALING_MEMORY_CEILING_MB" default:"512"`

	GovernanceOverridePath string `envconfig:"GOVERNANCE_OVERRIDE_PATH"`

	MessagingAPIKey string `envconfig:"MESSAGING_API_KEY"`
	PaymentsAPIKey  string `envconfig:"PAYMENTS_API_KEY"`
	BankingAPIKey   string `envconfig:"BANKING_API_KEY"`
	TradingAPIKey   string `envconfig:"TRADING_API_KEY"`
}

// Load resolves Config from the process environment, prefixed AEGISD_.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("AEGISD", &cfg); err != nil {
		return nil, fmt.Errorf("config: process environment: %w", err)
	}
	return &cfg, nil
}
