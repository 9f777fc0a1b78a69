package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Environment string `env:"APP_ENV" envDefault:"development"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	DatabaseDriver string `env:"DB_DRIVER" envDefault:"sqlite"`
	DatabaseDSN    string `env:"DB_DSN" envDefault:"file:socialwall.db?cache=shared"`

	// JWTSecret is the single shared symmetric signing key. Fixed at process
	// start; rotation is not supported.
	JWTSecret                 string        `env:"JWT_SECRET"`
	TokenValidity             time.Duration `env:"TOKEN_VALIDITY" envDefault:"24h"`
	VerificationTokenValidity time.Duration `env:"VERIFICATION_TOKEN_VALIDITY" envDefault:"24h"`
	TokenJanitorInterval      time.Duration `env:"TOKEN_JANITOR_INTERVAL" envDefault:"1h"`

	RedisAddr        string `env:"REDIS_ADDR"`
	AuthRateLimitRPM int    `env:"AUTH_RATE_LIMIT_RPM" envDefault:"30"`
	APIRateLimitRPM  int    `env:"API_RATE_LIMIT_RPM" envDefault:"300"`

	StorageDir string `env:"STORAGE_DIR" envDefault:"data/files"`

	MailEnabled  bool   `env:"MAIL_ENABLED" envDefault:"false"`
	SMTPAddr     string `env:"SMTP_ADDR" envDefault:"localhost:587"`
	SMTPFrom     string `env:"SMTP_FROM" envDefault:"no-reply@socialwall.local"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`

	OTELServiceName           string        `env:"OTEL_SERVICE_NAME" envDefault:"socialwall"`
	OTELEnvironment           string        `env:"OTEL_ENVIRONMENT" envDefault:"development"`
	OTELExporterOTLPEndpoint  string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	OTELExporterOTLPInsecure  bool          `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	OTELMetricsEnabled        bool          `env:"OTEL_METRICS_ENABLED" envDefault:"false"`
	OTELTracesEnabled         bool          `env:"OTEL_TRACES_ENABLED" envDefault:"false"`
	OTELLogsEnabled           bool          `env:"OTEL_LOGS_ENABLED" envDefault:"false"`
	OTELMetricsExportInterval time.Duration `env:"OTEL_METRICS_EXPORT_INTERVAL" envDefault:"15s"`
	EnableOTelHTTP            bool          `env:"OTEL_HTTP_ENABLED" envDefault:"false"`
}

// Load reads .env (when present) and the process environment, then
// validates. A load or validation failure is recorded before returning.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		err = fmt.Errorf("parse env: %w", err)
		recordLoad(context.Background(), "", "error", err)
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		err = fmt.Errorf("validate config: %w", err)
		recordLoad(context.Background(), cfg.Environment, "error", err)
		return nil, err
	}
	recordLoad(context.Background(), cfg.Environment, "success", nil)
	return cfg, nil
}

func (c *Config) Validate() error {
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes, got %d", len(c.JWTSecret))
	}
	if c.TokenValidity <= 0 {
		return fmt.Errorf("TOKEN_VALIDITY must be positive, got %s", c.TokenValidity)
	}
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DatabaseDriver)
	}
	return nil
}
