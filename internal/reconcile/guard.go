package reconcile

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/redis"
)

// Guard filters duplicate webhook deliveries before they reach the queue.
// Paystack deliveries carry no unique event id, so the key is a digest of
// the raw payload; the ledger's compare-and-set transitions remain the
// real idempotency boundary when the guard misses (restart, TTL lapse).
type Guard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

// NewGuard builds a replay guard with the given retention window.
func NewGuard(store redis.IdempotencyStore, ttl time.Duration) (*Guard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl <= 0 {
		return nil, errors.New("ttl must be positive")
	}
	return &Guard{store: store, ttl: ttl}, nil
}

// CheckAndMark returns true when this exact payload was already seen, and
// otherwise records it for the configured TTL.
func (g *Guard) CheckAndMark(ctx context.Context, payload []byte) (bool, error) {
	set, err := g.store.SetNX(ctx, g.key(payload), "1", g.ttl)
	if err != nil {
		return false, err
	}
	return !set, nil
}

// Delete forgets a payload so a failed hand-off can be retried by the
// provider's next delivery attempt.
func (g *Guard) Delete(ctx context.Context, payload []byte) error {
	return g.store.Del(ctx, g.key(payload))
}

func (g *Guard) key(payload []byte) string {
	sum := sha256.Sum256(payload)
	return g.store.IdempotencyKey("webhook:paystack", hex.EncodeToString(sum[:]))
}
