package minutecache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chronoverse/chronoverse/internal/models"
	"github.com/chronoverse/chronoverse/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache() *Cache {
	return New(store.NewMemoryStore(), models.CacheConfig{
		TTLSeconds:  75,
		LockWaitMs:  2000,
		LockLeaseMs: 5000,
	})
}

func okEntry(poem string) *models.CacheEntry {
	return &models.CacheEntry{
		Poem:        poem,
		Model:       "openai:gpt-5-mini",
		GeneratedAt: time.Now().UTC(),
		Status:      models.StatusOK,
	}
}

func TestKey(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)
	local := time.Date(2026, 3, 14, 9, 41, 30, 0, loc)

	key := Key(local, "Europe/Paris", models.ToneNoir, "openai:gpt-5-mini")
	assert.Equal(t, "2026-03-14T09:41|Europe/Paris|Noir|openai:gpt-5-mini", key)

	// Seconds never leak into the key
	later := local.Add(20 * time.Second)
	assert.Equal(t, key, Key(later, "Europe/Paris", models.ToneNoir, "openai:gpt-5-mini"))
}

func TestGetOrGenerateMissThenHit(t *testing.T) {
	c := newTestCache()
	ctx := context.Background()

	var calls atomic.Int32
	generate := func(context.Context) (*models.CacheEntry, error) {
		calls.Add(1)
		return okEntry("first"), nil
	}

	entry, cached, err := c.GetOrGenerate(ctx, "k", false, generate)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "first", entry.Poem)

	entry, cached, err = c.GetOrGenerate(ctx, "k", false, generate)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, "first", entry.Poem)

	assert.Equal(t, int32(1), calls.Load())
}

func TestGetOrGenerateFallbackNotCached(t *testing.T) {
	c := newTestCache()
	ctx := context.Background()

	var calls atomic.Int32
	generate := func(context.Context) (*models.CacheEntry, error) {
		calls.Add(1)
		return &models.CacheEntry{Poem: "fallback poem", Status: models.StatusFallback}, nil
	}

	entry, cached, err := c.GetOrGenerate(ctx, "k", false, generate)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, models.StatusFallback, entry.Status)

	// A second call generates again; the fallback was never stored
	_, cached, err = c.GetOrGenerate(ctx, "k", false, generate)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetOrGenerateBypassRegenerates(t *testing.T) {
	c := newTestCache()
	ctx := context.Background()

	_, _, err := c.GetOrGenerate(ctx, "k", false, func(context.Context) (*models.CacheEntry, error) {
		return okEntry("stale"), nil
	})
	require.NoError(t, err)

	entry, cached, err := c.GetOrGenerate(ctx, "k", true, func(context.Context) (*models.CacheEntry, error) {
		return okEntry("fresh"), nil
	})
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "fresh", entry.Poem)

	// The bypass result replaced the stored entry
	entry, cached, err = c.GetOrGenerate(ctx, "k", false, func(context.Context) (*models.CacheEntry, error) {
		t.Fatal("should have hit the cache")
		return nil, nil
	})
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, "fresh", entry.Poem)
}

func TestGetOrGenerateCoalescesConcurrentCallers(t *testing.T) {
	c := newTestCache()
	ctx := context.Background()

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	generate := func(context.Context) (*models.CacheEntry, error) {
		calls.Add(1)
		close(started)
		<-release
		return okEntry("shared"), nil
	}

	var wg sync.WaitGroup
	results := make([]*models.CacheEntry, 5)
	cachedFlags := make([]bool, 5)

	wg.Add(1)
	go func() {
		defer wg.Done()
		entry, cached, err := c.GetOrGenerate(ctx, "k", false, generate)
		assert.NoError(t, err)
		results[0] = entry
		cachedFlags[0] = cached
	}()

	<-started
	for i := 1; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entry, cached, err := c.GetOrGenerate(ctx, "k", false, func(context.Context) (*models.CacheEntry, error) {
				calls.Add(1)
				return okEntry("late"), nil
			})
			assert.NoError(t, err)
			results[i] = entry
			cachedFlags[i] = cached
		}(i)
	}

	// Give the late callers time to join the in-flight generation
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, entry := range results {
		require.NotNil(t, entry)
		assert.Equal(t, "shared", entry.Poem)
	}

	// Only the caller that ran the generation reports cached=false; the
	// accounting downstream relies on that to bill exactly one row.
	uncached := 0
	for _, cached := range cachedFlags {
		if !cached {
			uncached++
		}
	}
	assert.Equal(t, 1, uncached)
}

func TestGetOrGenerateBypassCallersCoalesce(t *testing.T) {
	c := newTestCache()
	ctx := context.Background()

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	generate := func(context.Context) (*models.CacheEntry, error) {
		calls.Add(1)
		close(started)
		<-release
		return okEntry("regenerated"), nil
	}

	var wg sync.WaitGroup
	results := make([]*models.CacheEntry, 4)
	cachedFlags := make([]bool, 4)

	wg.Add(1)
	go func() {
		defer wg.Done()
		entry, cached, err := c.GetOrGenerate(ctx, "k", true, generate)
		assert.NoError(t, err)
		results[0] = entry
		cachedFlags[0] = cached
	}()

	<-started
	for i := 1; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entry, cached, err := c.GetOrGenerate(ctx, "k", true, func(context.Context) (*models.CacheEntry, error) {
				calls.Add(1)
				return okEntry("extra"), nil
			})
			assert.NoError(t, err)
			results[i] = entry
			cachedFlags[i] = cached
		}(i)
	}

	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	// Simultaneous force-new callers still share one generation
	assert.Equal(t, int32(1), calls.Load())
	uncached := 0
	for i, entry := range results {
		require.NotNil(t, entry)
		assert.Equal(t, "regenerated", entry.Poem)
		if !cachedFlags[i] {
			uncached++
		}
	}
	assert.Equal(t, 1, uncached)
}

func TestGetOrGenerateErrorNotCached(t *testing.T) {
	c := newTestCache()
	ctx := context.Background()

	_, _, err := c.GetOrGenerate(ctx, "k", false, func(context.Context) (*models.CacheEntry, error) {
		return nil, assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	// The failed attempt left nothing behind
	entry, cached, err := c.GetOrGenerate(ctx, "k", false, func(context.Context) (*models.CacheEntry, error) {
		return okEntry("recovered"), nil
	})
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "recovered", entry.Poem)
}
