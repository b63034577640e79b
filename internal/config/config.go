package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`

	StripeSecretKey          string `env:"STRIPE_SECRET_KEY,required" validate:"required"`
	StripeWebhookSecret      string `env:"STRIPE_WEBHOOK_SECRET,required" validate:"required"`
	StripeConnectedAccountID string `env:"STRIPE_CONNECTED_ACCOUNT_ID"`

	// PlatformFeeCents is deducted from the merchant's settlement, never
	// added to the customer-facing total.
	PlatformFeeCents  int64   `env:"PLATFORM_FEE_CENTS" envDefault:"50" validate:"min=0"`
	TaxRate           float64 `env:"TAX_RATE" envDefault:"0.10" validate:"gte=0,lt=1"`
	MinimumOrderCents int64   `env:"MINIMUM_ORDER_CENTS" envDefault:"0" validate:"min=0"`

	// BaseURL is where the hosted checkout redirects back to.
	BaseURL string `env:"BASE_URL" envDefault:"https://alscarryout.com" validate:"required,url"`

	CacheProvider         string `env:"CACHE_PROVIDER" envDefault:"memory" validate:"omitempty,oneof=memory redis"`
	RedisConnectionString string `env:"REDIS_CONNECTION_STRING" envDefault:"redis://localhost:6379/0" validate:"required_if=CacheProvider redis"`

	SentryDSN string `env:"SENTRY_DSN"`

	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat string     `env:"LOG_FORMAT" envDefault:"text" validate:"omitempty,oneof=text json"`
	Port      string     `env:"PORT" envDefault:"8080"`
}

var configValidator = validator.New()

func Load() (*Config, error) {
	var cfg Config

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if err := configValidator.Struct(c); err != nil {
		return err
	}

	baseURL := strings.TrimSpace(c.BaseURL)
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Hostname() == "" {
		return fmt.Errorf("BASE_URL must be a valid absolute URL")
	}
	if !isLocalHost(parsed.Hostname()) && !strings.EqualFold(parsed.Scheme, "https") {
		return fmt.Errorf("BASE_URL must use https outside local development")
	}

	return nil
}

func isLocalHost(host string) bool {
	switch strings.ToLower(strings.TrimSpace(host)) {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}
