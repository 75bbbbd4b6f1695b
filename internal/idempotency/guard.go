// Package idempotency implements the claim-once guard: a conditional put
// against a key-value store with TTL, keyed on (repo, pr, head_sha).
package idempotency

import (
	"context"
	"time"
)

// Guard claims a dedup key exactly once within its TTL window.
type Guard interface {
	// Claim inserts {key, created_at=now, expires_at=now+ttl} only if
	// absent. It returns (true, nil) on first success, (false, nil) on a
	// conflict (already claimed). Any other error is returned as-is and
	// the caller must treat it as retryable.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// DefaultTTL matches the original system's 7-day idempotency window.
const DefaultTTL = 7 * 24 * time.Hour
