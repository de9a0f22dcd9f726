// Package ratelimit provides the sliding-window attempt limiter guarding
// anonymous tracking lookups and verification-code redemptions.
package ratelimit

import "context"

// Limiter records one attempt for a key and reports whether the key is
// still within its window ceiling. Recording happens before the check so
// denied attempts still count; implementations must be safe under
// concurrent calls for the same key without undercounting.
type Limiter interface {
	RecordAndCheck(ctx context.Context, key string) (bool, error)
}
