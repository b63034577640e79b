// Package cache provides short-lived key/value storage used for webhook
// event deduplication and kiosk cart persistence.
package cache

import (
	"context"
	"fmt"
	"time"
)

type Provider interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

type Config struct {
	Provider              string
	RedisConnectionString string
}

func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "memory", "":
		return NewMemoryProvider()
	case "redis":
		return NewRedisProvider(cfg.RedisConnectionString)
	default:
		return nil, fmt.Errorf("unsupported cache provider: %s", cfg.Provider)
	}
}

// WebhookKey namespaces processor event IDs for idempotent delivery handling.
func WebhookKey(source, eventID string) string {
	return fmt.Sprintf("webhook:%s:%s", source, eventID)
}

// CartKey namespaces persisted kiosk carts.
func CartKey(cartID string) string {
	return fmt.Sprintf("cart:%s", cartID)
}
