package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"hermes/pkg/errors"
)

type Config struct {
	App           AppConfig
	Advisor       AdvisorConfig
	ErrorTracking ErrorTrackingConfig
	Metrics       MetricsConfig
	Batch         BatchConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"hermes"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

// AdvisorConfig controls the optional LLM-backed offer advisor.
// When disabled (or when no API key is set) negotiations run purely
// on the formulaic concession policy.
type AdvisorConfig struct {
	Enabled        bool          `envconfig:"ADVISOR_ENABLED" default:"false"`
	OpenAIKey      string        `envconfig:"OPENAI_API_KEY"`
	Model          string        `envconfig:"ADVISOR_MODEL" default:"gpt-4o-mini"`
	RequestTimeout time.Duration `envconfig:"ADVISOR_REQUEST_TIMEOUT" default:"10s"`
	RequestsPerMin int           `envconfig:"ADVISOR_REQUESTS_PER_MINUTE" default:"60"`
	Temperature    float64       `envconfig:"ADVISOR_TEMPERATURE" default:"0.2"`
	MaxTokens      int           `envconfig:"ADVISOR_MAX_TOKENS" default:"256"`
}

// Active reports whether the advisor should actually be wired in.
func (c AdvisorConfig) Active() bool {
	return c.Enabled && c.OpenAIKey != ""
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
	Provider    string `envconfig:"ERROR_TRACKING_PROVIDER" default:"sentry"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

type MetricsConfig struct {
	Enabled    bool   `envconfig:"METRICS_ENABLED" default:"false"`
	ListenAddr string `envconfig:"METRICS_LISTEN_ADDR" default:":9090"`
}

// BatchConfig holds defaults for batch simulation runs. Both values
// can be overridden per invocation from the command line.
type BatchConfig struct {
	Runs           int `envconfig:"BATCH_RUNS" default:"100"`
	MaxConcurrency int `envconfig:"BATCH_MAX_CONCURRENCY" default:"8"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, nil
}
