package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseLockScript deletes the lock only if the caller still owns it,
// so a holder whose lease already expired cannot remove a successor's lock.
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore is a Store backed by a shared Redis instance.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *RedisStore) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (s *RedisStore) AcquireLock(ctx context.Context, key string, lease, wait time.Duration) (Lock, bool, error) {
	token := uuid.NewString()
	deadline := time.Now().Add(wait)
	waited := false

	for {
		acquired, err := s.client.SetNX(ctx, key, token, lease).Result()
		if err != nil {
			return nil, waited, err
		}
		if acquired {
			return &redisLock{client: s.client, key: key, token: token}, waited, nil
		}

		waited = true
		if time.Now().After(deadline) {
			return nil, true, ErrLockTimeout
		}

		select {
		case <-ctx.Done():
			return nil, true, ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

type redisLock struct {
	client *redis.Client
	key    string
	token  string
}

func (l *redisLock) Release(ctx context.Context) error {
	return releaseLockScript.Run(ctx, l.client, []string{l.key}, l.token).Err()
}
