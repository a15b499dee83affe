// Package minutecache memoizes generated poems per minute family. The
// key embeds the local wall-clock minute, so entries age out naturally
// when the minute rolls over; the store TTL only bounds stragglers.
//
// Concurrency is handled at two levels. In-process callers of the same
// key coalesce through singleflight. Across processes a store lease
// lock serializes generation, and late arrivals re-check the store once
// the lock is theirs so only one upstream call happens per minute.
package minutecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chronoverse/chronoverse/internal/models"
	"github.com/chronoverse/chronoverse/internal/store"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"golang.org/x/sync/singleflight"
)

// GenerateFunc produces a fresh cache entry when no cached one serves.
type GenerateFunc func(ctx context.Context) (*models.CacheEntry, error)

// Cache coalesces and memoizes poem generation.
type Cache struct {
	store  store.Store
	flight singleflight.Group

	ttl       time.Duration
	lockWait  time.Duration
	lockLease time.Duration
}

// New creates a minute cache over the given store.
func New(s store.Store, cfg models.CacheConfig) *Cache {
	return &Cache{
		store:     s,
		ttl:       time.Duration(cfg.TTLSeconds) * time.Second,
		lockWait:  time.Duration(cfg.LockWaitMs) * time.Millisecond,
		lockLease: time.Duration(cfg.LockLeaseMs) * time.Millisecond,
	}
}

// Key builds the cache key for one minute family. The minute is the
// caller's local wall clock, so two timezones at the same instant use
// distinct keys.
func Key(local time.Time, tz string, tone models.Tone, model string) string {
	return fmt.Sprintf("%s|%s|%s|%s", local.Format("2006-01-02T15:04"), tz, tone, model)
}

type flightResult struct {
	entry     *models.CacheEntry
	fromStore bool
}

// GetOrGenerate returns the entry for key, generating it at most once
// per process and (via the store lock) at most once per fleet.
//
// bypass skips the initial cache read but still coalesces: a bypass
// caller that had to wait behind another generator accepts that fresh
// entry instead of generating again. Entries are stored only when the
// generation succeeded with status ok, so fallbacks never outlive the
// request that produced them.
func (c *Cache) GetOrGenerate(ctx context.Context, key string, bypass bool, generate GenerateFunc) (*models.CacheEntry, bool, error) {
	if !bypass {
		if entry, err := c.get(ctx, key); err == nil {
			return entry, true, nil
		}
	}

	// singleflight's shared flag is true for the executing caller too
	// once anyone coalesces, so it cannot tell the generator apart from
	// its waiters. The closure runs on exactly one goroutine; a local
	// flag marks that caller as the one who paid for the generation.
	executed := false
	value, err, _ := c.flight.Do(key, func() (any, error) {
		executed = true
		return c.generateLocked(ctx, key, bypass, generate)
	})
	if err != nil {
		return nil, false, err
	}

	result := value.(flightResult)
	return result.entry, result.fromStore || !executed, nil
}

func (c *Cache) generateLocked(ctx context.Context, key string, bypass bool, generate GenerateFunc) (flightResult, error) {
	lock, waited, err := c.store.AcquireLock(ctx, lockKey(key), c.lockLease, c.lockWait)
	if err != nil {
		if errors.Is(err, store.ErrLockTimeout) {
			// The holder is stuck or slow. Generating uncoalesced is
			// better than failing the request; worst case two poems
			// for one minute.
			fiberlog.Warnf("generation lock wait exhausted for %s, generating uncoalesced", key)
			return c.generateAndStore(ctx, key, generate)
		}
		return flightResult{}, err
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			fiberlog.Warnf("failed to release generation lock for %s: %v", key, err)
		}
	}()

	// A waiting caller likely queued behind a generator that has since
	// filled the store. Bypass callers skip this check unless they
	// waited; coalescing on a fresh entry still honors forceNew because
	// that entry was generated after the bypass request arrived.
	if !bypass || waited {
		if entry, err := c.get(ctx, key); err == nil {
			return flightResult{entry: entry, fromStore: true}, nil
		}
	}

	return c.generateAndStore(ctx, key, generate)
}

func (c *Cache) generateAndStore(ctx context.Context, key string, generate GenerateFunc) (flightResult, error) {
	entry, err := generate(ctx)
	if err != nil {
		return flightResult{}, err
	}

	if entry.Status == models.StatusOK {
		data, err := json.Marshal(entry)
		if err == nil {
			if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
				fiberlog.Warnf("failed to store cache entry for %s: %v", key, err)
			}
		}
	}

	return flightResult{entry: entry}, nil
}

func (c *Cache) get(ctx context.Context, key string) (*models.CacheEntry, error) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var entry models.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func lockKey(key string) string {
	return "cv:lock:" + key
}
