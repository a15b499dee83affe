// Package ratelimit enforces fixed-window request caps per user and per
// client IP. The two dimensions are metered independently; either one
// can reject a request on its own.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/chronoverse/chronoverse/internal/store"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

// Kind names a metered identity dimension.
type Kind string

const (
	KindUser Kind = "user"
	KindIP   Kind = "ip"
)

// Counter TTL outlives the 60s window so clock skew between instances
// cannot expire a window early.
const counterTTL = 120 * time.Second

// Limiter counts requests in per-minute windows over the shared store.
type Limiter struct {
	store store.Store
	now   func() time.Time
}

// NewLimiter creates a limiter backed by the given store.
func NewLimiter(s store.Store) *Limiter {
	return &Limiter{store: s, now: time.Now}
}

// Allow increments the window counter for (kind, value) and reports
// whether the request is within the limit. Store failures fail open:
// an unreachable backend never blocks poem serving.
func (l *Limiter) Allow(ctx context.Context, kind Kind, value string, limit int) bool {
	if value == "" || limit <= 0 {
		return true
	}

	bucket := l.now().UTC().Unix() / 60
	key := fmt.Sprintf("cv:rl:%s:%s:%d", kind, value, bucket)

	count, err := l.store.Increment(ctx, key, counterTTL)
	if err != nil {
		fiberlog.Warnf("rate limit check failed for %s=%s, allowing request: %v", kind, value, err)
		return true
	}

	return count <= int64(limit)
}
