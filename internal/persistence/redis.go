package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/deskworks/service-desk/internal/config"
	"github.com/deskworks/service-desk/internal/domain"
)

// Redis wraps the go-redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

var publicIDPrefixes = map[domain.EntryKind]string{
	domain.KindTicket:         "TCK",
	domain.KindServiceRequest: "SRQ",
}

// PublicIDs hands out human-facing codes such as TCK-0042 from a Redis
// counter per kind. When Redis is unreachable it falls back to a random
// suffix so creation never blocks on the cache.
type PublicIDs struct {
	redis  *Redis
	logger *zap.Logger
}

// NewPublicIDs constructs the generator.
func NewPublicIDs(r *Redis, logger *zap.Logger) *PublicIDs {
	return &PublicIDs{redis: r, logger: logger}
}

// Next returns the next public id for kind.
func (g *PublicIDs) Next(ctx context.Context, kind domain.EntryKind) (string, error) {
	prefix, ok := publicIDPrefixes[kind]
	if !ok {
		return "", fmt.Errorf("unknown entry kind %q", kind)
	}
	if g.redis != nil && g.redis.Client != nil {
		seq, err := g.redis.Client.Incr(ctx, "seq:public_id:"+string(kind)).Result()
		if err == nil {
			return fmt.Sprintf("%s-%04d", prefix, seq), nil
		}
		g.logger.Warn("public id sequence unavailable; using random suffix", zap.Error(err))
	}
	return prefix + "-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8]), nil
}
