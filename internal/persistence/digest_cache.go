package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrDigestMissing is returned when no digest has been stored yet or it
// has expired.
var ErrDigestMissing = errors.New("digest not available")

// DigestCache stores prebuilt JSON digests in Redis.
type DigestCache struct {
	redis *Redis
	ttl   time.Duration
}

// NewDigestCache constructs the cache; a non-positive ttl keeps entries
// until overwritten.
func NewDigestCache(r *Redis, ttl time.Duration) *DigestCache {
	return &DigestCache{redis: r, ttl: ttl}
}

// Store writes payload under key.
func (d *DigestCache) Store(ctx context.Context, key string, payload []byte) error {
	if d.redis == nil || d.redis.Client == nil {
		return errors.New("redis client not configured")
	}
	ttl := d.ttl
	if ttl < 0 {
		ttl = 0
	}
	return d.redis.Client.Set(ctx, "digest:"+key, payload, ttl).Err()
}

// Load returns the payload stored under key.
func (d *DigestCache) Load(ctx context.Context, key string) ([]byte, error) {
	if d.redis == nil || d.redis.Client == nil {
		return nil, errors.New("redis client not configured")
	}
	payload, err := d.redis.Client.Get(ctx, "digest:"+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrDigestMissing
	}
	return payload, err
}
