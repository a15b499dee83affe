package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chronoverse/chronoverse/internal/store"

	"github.com/stretchr/testify/assert"
)

type failingStore struct {
	store.Store
}

func (f *failingStore) Increment(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("connection refused")
}

func TestAllowWithinLimit(t *testing.T) {
	l := NewLimiter(store.NewMemoryStore())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow(ctx, KindUser, "u1", 3))
	}
	assert.False(t, l.Allow(ctx, KindUser, "u1", 3))
}

func TestAllowDimensionsIndependent(t *testing.T) {
	l := NewLimiter(store.NewMemoryStore())
	ctx := context.Background()

	// Exhaust the user window; the IP window is untouched
	assert.True(t, l.Allow(ctx, KindUser, "u1", 1))
	assert.False(t, l.Allow(ctx, KindUser, "u1", 1))
	assert.True(t, l.Allow(ctx, KindIP, "203.0.113.7", 1))

	// Different users do not share a window
	assert.True(t, l.Allow(ctx, KindUser, "u2", 1))
}

func TestAllowWindowRotates(t *testing.T) {
	l := NewLimiter(store.NewMemoryStore())
	ctx := context.Background()

	now := time.Date(2026, 3, 14, 9, 41, 59, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow(ctx, KindUser, "u1", 1))
	assert.False(t, l.Allow(ctx, KindUser, "u1", 1))

	// Next minute opens a fresh window
	now = now.Add(time.Second)
	assert.True(t, l.Allow(ctx, KindUser, "u1", 1))
}

func TestAllowFailsOpen(t *testing.T) {
	l := NewLimiter(&failingStore{})
	assert.True(t, l.Allow(context.Background(), KindIP, "203.0.113.7", 1))
}

func TestAllowSkipsEmptyValue(t *testing.T) {
	l := NewLimiter(store.NewMemoryStore())
	assert.True(t, l.Allow(context.Background(), KindUser, "", 1))
	assert.True(t, l.Allow(context.Background(), KindUser, "", 1))
}
