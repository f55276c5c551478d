package hotmartwebhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmeister/storefront-backend/pkg/redis"
)

const guardScope = "hotmart"

// ReplayGuard remembers transaction IDs so retried webhook deliveries do not
// produce duplicate purchase events.
type ReplayGuard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

func NewReplayGuard(store redis.IdempotencyStore, ttl time.Duration) (*ReplayGuard, error) {
	if store == nil {
		return nil, errors.New("replay guard store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &ReplayGuard{store: store, ttl: ttl}, nil
}

// CheckAndMark records the transaction and reports whether it was already
// seen within the guard window.
func (g *ReplayGuard) CheckAndMark(ctx context.Context, transactionID string) (bool, error) {
	if transactionID == "" {
		return false, errors.New("transaction id is required")
	}
	key := g.store.IdempotencyKey(guardScope, transactionID)
	set, err := g.store.SetNX(ctx, key, "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set replay key: %w", err)
	}
	return !set, nil
}

// Delete forgets a transaction, letting the next delivery process again.
func (g *ReplayGuard) Delete(ctx context.Context, transactionID string) error {
	if transactionID == "" {
		return errors.New("transaction id is required")
	}
	return g.store.Del(ctx, g.store.IdempotencyKey(guardScope, transactionID))
}
