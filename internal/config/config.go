package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/utafrali/AccountsGo/pkg/config"
)

const defaultJWTSecret = "change-this-to-a-secure-secret"

// Config holds all configuration for the accounts service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"ACCOUNTS_HTTP_PORT" envDefault:"8001"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"accounts"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"accounts_secret"`
	PostgresDB   string `env:"ACCOUNTS_DB_NAME" envDefault:"accounts_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Redis session-revocation list; empty address disables revocation.
	RedisAddr string `env:"REDIS_ADDR" envDefault:""`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// JWT and verification windows
	JWTSecret      string        `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	SessionTTL     time.Duration `env:"SESSION_TOKEN_TTL" envDefault:"720h"`
	SignupCodeTTL  time.Duration `env:"SIGNUP_CODE_TTL" envDefault:"48h"`
	ResetCodeTTL   time.Duration `env:"RESET_CODE_TTL" envDefault:"15m"`
	VerifyBaseURL  string        `env:"VERIFY_BASE_URL" envDefault:"http://localhost:8001"`

	// Mail
	SMTPHost string `env:"SMTP_HOST" envDefault:""`
	SMTPPort int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser string `env:"SMTP_USERNAME" envDefault:""`
	SMTPPass string `env:"SMTP_PASSWORD" envDefault:""`
	MailFrom string `env:"MAIL_FROM" envDefault:"no-reply@accounts.local"`

	// Tracing
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"0.1"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load accounts config: %w", err)
	}
	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid HTTP port: %d", cfg.HTTPPort)
	}
	if cfg.SessionTTL <= 0 || cfg.SignupCodeTTL <= 0 || cfg.ResetCodeTTL <= 0 {
		return nil, fmt.Errorf("token and code TTLs must be positive")
	}

	// In non-development environments, require an explicitly set, strong JWT secret.
	if cfg.Environment != "development" {
		if cfg.JWTSecret == defaultJWTSecret {
			return nil, fmt.Errorf("JWT_SECRET must be explicitly set via environment variable in %q mode", cfg.Environment)
		}
		if len(cfg.JWTSecret) < 32 {
			return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(cfg.JWTSecret))
		}
	}

	return cfg, nil
}

// UsingDefaultJWTSecret reports whether tokens would be signed with the
// placeholder development secret. Load rejects this outside development;
// in development the caller should at least log it loudly.
func (c *Config) UsingDefaultJWTSecret() bool {
	return c.JWTSecret == defaultJWTSecret
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}
