package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/seung7-arch/als-deli-website/internal/cache"
)

const defaultCartTTL = 24 * time.Hour

// Store persists serialized carts by key on top of a cache provider, so an
// abandoned kiosk session can be resumed on the same device.
type Store struct {
	provider cache.Provider
	ttl      time.Duration
}

func NewStore(provider cache.Provider, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultCartTTL
	}
	return &Store{provider: provider, ttl: ttl}
}

// Load returns the cart stored under cartID. An absent or corrupted entry
// yields an empty cart, never an error the kiosk has to handle.
func (s *Store) Load(ctx context.Context, cartID string) (*Cart, error) {
	raw, err := s.provider.Get(ctx, cache.CartKey(cartID))
	if errors.Is(err, cache.ErrNotFound) {
		return &Cart{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	var c Cart
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return &Cart{}, nil
	}
	return &c, nil
}

func (s *Store) Save(ctx context.Context, cartID string, c *Cart) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := s.provider.Set(ctx, cache.CartKey(cartID), string(raw), s.ttl); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, cartID string) error {
	return s.provider.Delete(ctx, cache.CartKey(cartID))
}
