package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Env      string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	Port     string `env:"PORT" envDefault:"8080" validate:"required"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`

	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`
	RedisURL    string `env:"REDIS_URL"` // empty disables per-user locking

	JWTSecret string `env:"JWT_SECRET,required" validate:"required,min=32"`

	MailProvider string `env:"MAIL_PROVIDER" envDefault:"log" validate:"oneof=log resend ses"`
	MailFrom     string `env:"MAIL_FROM"     validate:"required_unless=MailProvider log"`
	MailSubject  string `env:"MAIL_SUBJECT"  envDefault:"A message about your account"`
	ResendAPIKey string `env:"RESEND_API_KEY" validate:"required_if=MailProvider resend"`

	// Verification emails link here with ?token=.
	VerifyURL      string        `env:"VERIFY_URL"       envDefault:"http://localhost:3000/verify-email" validate:"required,url"`
	VerifyTokenTTL time.Duration `env:"VERIFY_TOKEN_TTL" envDefault:"15m" validate:"gt=0"`

	AWSRegion          string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`

	// SMS goes through a Twilio-compatible Messages API. Empty SID = log only.
	SMSBaseURL    string `env:"SMS_BASE_URL" envDefault:"https://api.twilio.com"`
	SMSAccountSID string `env:"SMS_ACCOUNT_SID"`
	SMSAuthToken  string `env:"SMS_AUTH_TOKEN" validate:"required_with=SMSAccountSID"`
	SMSFrom       string `env:"SMS_FROM"       validate:"required_with=SMSAccountSID"`

	PayPalBaseURL      string `env:"PAYPAL_BASE_URL" envDefault:"https://api-m.sandbox.paypal.com"`
	PayPalClientID     string `env:"PAYPAL_CLIENT_ID"`
	PayPalClientSecret string `env:"PAYPAL_CLIENT_SECRET" validate:"required_with=PayPalClientID"`

	StripeSecretKey string `env:"STRIPE_SECRET_KEY"`

	DefaultCurrency string `env:"DEFAULT_CURRENCY" envDefault:"USD" validate:"len=3"`
}

// Load reads .env (if present), then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
