package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/hugolhafner/avro-enricher/logger"
)

type Mode string

const (
	ModeLambda Mode = "lambda"
	ModeLocal  Mode = "local"
)

type DLQConfig struct {
	// Either an SQS queue URL or kafka://broker1,broker2/topic.
	URL          string        `env:"URL"`
	MaxAttempts  int           `env:"MAX_ATTEMPTS" envDefault:"1"`
	RetryBackoff time.Duration `env:"RETRY_BACKOFF" envDefault:"200ms"`
}

type RegistryConfig struct {
	SecretName string        `env:"CONFLUENT_SCHEMA_REGISTRY_SECRET_NAME"`
	Timeout    time.Duration `env:"SCHEMA_REGISTRY_TIMEOUT" envDefault:"10s"`
}

type AWSConfig struct {
	Region          string `env:"REGION"`
	EndpointURL     string `env:"ENDPOINT_URL"`
	AccessKeyID     string `env:"ACCESS_KEY_ID"`
	SecretAccessKey string `env:"SECRET_ACCESS_KEY"`
	SessionToken    string `env:"SESSION_TOKEN"`
}

type ObservabilityConfig struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"avro-enricher"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	// e.g. "otel-collector:4317". Empty disables export.
	OtelEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

type Config struct {
	Mode          Mode   `env:"ENRICHER_MODE" envDefault:"lambda"`
	LocalAddr     string `env:"LOCAL_ADDR" envDefault:":8080"`
	KafkaClientID string `env:"KAFKA_CLIENT_ID" envDefault:"avro-enricher"`

	DLQ           DLQConfig      `envPrefix:"DLQ_"`
	Registry      RegistryConfig
	AWS           AWSConfig      `envPrefix:"AWS_"`
	Observability ObservabilityConfig
}

// Level returns the parsed log level. Load has already validated it.
func (c *Config) Level() logger.LogLevel {
	l, _ := logger.ParseLevel(c.Observability.LogLevel)
	return l
}

// ConfigError lists every configuration problem found in one pass.
type ConfigError struct {
	Missing []string
	Invalid []string
}

func (e *ConfigError) Error() string {
	parts := make([]string, 0, 2)
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required variables: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid values: "+strings.Join(e.Invalid, "; "))
	}
	return "config: " + strings.Join(parts, "; ")
}

func AsConfigError(err error) (*ConfigError, bool) {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return load(env.Options{})
}

// LoadFrom reads the configuration from the given variables only.
func LoadFrom(environ map[string]string) (*Config, error) {
	return load(env.Options{Environment: environ})
}

func load(opts env.Options) (*Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return nil, &ConfigError{Invalid: []string{err.Error()}}
	}

	if ce := cfg.validate(); ce != nil {
		return nil, ce
	}
	return &cfg, nil
}

func (c *Config) validate() *ConfigError {
	ce := &ConfigError{}

	if strings.TrimSpace(c.DLQ.URL) == "" {
		ce.Missing = append(ce.Missing, "DLQ_URL")
	}
	if strings.TrimSpace(c.Registry.SecretName) == "" {
		ce.Missing = append(ce.Missing, "CONFLUENT_SCHEMA_REGISTRY_SECRET_NAME")
	}

	if c.Mode != ModeLambda && c.Mode != ModeLocal {
		ce.Invalid = append(ce.Invalid, fmt.Sprintf("ENRICHER_MODE=%q (want lambda or local)", c.Mode))
	}
	if c.DLQ.MaxAttempts < 1 {
		ce.Invalid = append(ce.Invalid, fmt.Sprintf("DLQ_MAX_ATTEMPTS=%d (want >= 1)", c.DLQ.MaxAttempts))
	}
	if c.DLQ.RetryBackoff < 0 {
		ce.Invalid = append(ce.Invalid, fmt.Sprintf("DLQ_RETRY_BACKOFF=%s (want >= 0)", c.DLQ.RetryBackoff))
	}
	if c.Registry.Timeout <= 0 {
		ce.Invalid = append(ce.Invalid, fmt.Sprintf("SCHEMA_REGISTRY_TIMEOUT=%s (want > 0)", c.Registry.Timeout))
	}
	if _, err := logger.ParseLevel(c.Observability.LogLevel); err != nil {
		ce.Invalid = append(ce.Invalid, "LOG_LEVEL: "+err.Error())
	}
	if (c.AWS.AccessKeyID == "") != (c.AWS.SecretAccessKey == "") {
		ce.Invalid = append(ce.Invalid, "AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set together")
	}

	if len(ce.Missing) == 0 && len(ce.Invalid) == 0 {
		return nil
	}
	return ce
}
