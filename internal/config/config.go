// Package config defines the FloatDeck process configuration. It is loaded
// once at startup and immutable thereafter, with values resolved through a
// priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> AWS SSM Parameter Store (Lowest)
//
// A missing required value or invalid format aborts startup.
package config

import (
	"time"

	"floatdeck/internal/types"
)

// SecretString aliases types.SecretString so secret config values are
// redacted when logged or marshalled.
type SecretString = types.SecretString

// Config is the top-level configuration struct. Sub-components receive only
// the subsets they need, never the whole struct.
type Config struct {
	Environment string `envconfig:"APP_ENV" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"floatdeck-api"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	Server        ServerConfig
	Database      DatabaseConfig
	AWS           AWSConfig
	DataSource    DataSourceConfig
	Summarizer    SummarizerConfig
	Viewport      ViewportConfig
	Security      SecurityConfig
	Observability ObservabilityConfig

	// Build metadata is injected via ldflags, not the environment.
	Build BuildInfo
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"15s"`
}

// DatabaseConfig holds connection and pool tuning parameters.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL" validate:"required,url"`

	MaxConns          int           `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns          int           `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	AcquireTimeout    time.Duration `envconfig:"DB_ACQUIRE_TIMEOUT" default:"2s"`
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"`
}

// AWSConfig holds AWS resource identifiers and regional settings.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`

	IngestQueueURL string `envconfig:"SQS_INGEST_QUEUE" validate:"required,url"`
	IngestDlqURL   string `envconfig:"SQS_INGEST_DLQ"`

	// LocalStack support, empty in prod.
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// DataSourceConfig holds settings for the upstream float-profile data source.
type DataSourceConfig struct {
	BaseURL     string        `envconfig:"DATA_SOURCE_URL" validate:"required,url"`
	APIKey      SecretString  `envconfig:"DATA_SOURCE_API_KEY"`
	Timeout     time.Duration `envconfig:"DATA_SOURCE_TIMEOUT" default:"15s"`
	MaxRetries  int           `envconfig:"DATA_SOURCE_MAX_RETRIES" default:"3"`
	MaxPageSize int           `envconfig:"DATA_SOURCE_MAX_PAGE_SIZE" default:"5000"`
}

// SummarizerConfig holds settings for the chat summarization backend.
type SummarizerConfig struct {
	BaseURL string        `envconfig:"SUMMARIZER_URL" validate:"required,url"`
	APIKey  SecretString  `envconfig:"SUMMARIZER_API_KEY"`
	Model   string        `envconfig:"SUMMARIZER_MODEL" default:"llama3-8b-8192"`
	Timeout time.Duration `envconfig:"SUMMARIZER_TIMEOUT" default:"20s"`
}

// ViewportConfig tunes the map-view fetch path.
type ViewportConfig struct {
	// CacheCapacity bounds the viewport cache. Zero keeps the unbounded
	// process-lifetime cache.
	CacheCapacity int `envconfig:"VIEWPORT_CACHE_CAPACITY" default:"0" validate:"gte=0"`
}

// SecurityConfig holds CORS settings for browser clients.
type SecurityConfig struct {
	CorsAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// ObservabilityConfig holds telemetry settings.
type ObservabilityConfig struct {
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"FloatDeck"`
	EnableMetrics   bool   `envconfig:"ENABLE_METRICS" default:"true"`
}

// BuildInfo holds build-time metadata injected via ldflags.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures.
type ConfigErrorType string

const (
	// ErrSSMResolution indicates a failure fetching secrets from AWS SSM.
	ErrSSMResolution ConfigErrorType = "SSM_FAILURE"
	// ErrValidation indicates the configuration failed struct validation.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates environment values could not be parsed into
	// their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
