package webhooks

import (
	"context"
	"fmt"
	"time"

	"github.com/shalom-garden/storefront-backend/pkg/redis"
)

const guardScope = "webhook"

// IdempotencyGuard suppresses redelivered webhook events. The gateway retries
// aggressively on anything but a fast 2xx, so each payment entity id is
// claimed before processing and released again only when processing failed.
type IdempotencyGuard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

// NewIdempotencyGuard builds a guard with the configured claim TTL.
func NewIdempotencyGuard(store redis.IdempotencyStore, ttl time.Duration) (*IdempotencyGuard, error) {
	if store == nil {
		return nil, fmt.Errorf("idempotency store required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("idempotency ttl must be positive")
	}
	return &IdempotencyGuard{store: store, ttl: ttl}, nil
}

// CheckAndMark claims the event. Returns false when another delivery already
// holds the claim.
func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, eventName, paymentID string) (bool, error) {
	key := g.store.IdempotencyKey(guardScope, eventName+":"+paymentID)
	return g.store.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), g.ttl)
}

// Release frees the claim so the gateway's retry can be processed after a
// handler failure.
func (g *IdempotencyGuard) Release(ctx context.Context, eventName, paymentID string) error {
	key := g.store.IdempotencyKey(guardScope, eventName+":"+paymentID)
	return g.store.Del(ctx, key)
}
