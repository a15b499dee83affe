package models

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// CacheConfig configures the minute cache and its generation locks.
// Entries expire naturally when the minute-bucket key rotates; the TTL
// only bounds how long an orphaned entry lingers in the store.
type CacheConfig struct {
	Backend     string `yaml:"backend" json:"backend"`
	RedisURL    string `yaml:"redis_url,omitempty" json:"redis_url,omitzero"`
	TTLSeconds  int    `yaml:"ttl_seconds,omitempty" json:"ttl_seconds,omitzero"`
	LockWaitMs  int    `yaml:"lock_wait_ms,omitempty" json:"lock_wait_ms,omitzero"`
	LockLeaseMs int    `yaml:"lock_lease_ms,omitempty" json:"lock_lease_ms,omitzero"`
}
