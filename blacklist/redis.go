package blacklist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "gbl"

// RedisBlacklist shares the revocation set across engine instances. Each
// entry is a marker key whose TTL is the remaining access-token lifetime.
type RedisBlacklist struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisBlacklist creates a Redis-backed blacklist. prefix defaults to
// "gbl" when empty.
func NewRedisBlacklist(client redis.UniversalClient, prefix string) *RedisBlacklist {
	if prefix == "" {
		prefix = redisKeyPrefix
	}
	return &RedisBlacklist{redis: client, prefix: prefix}
}

func (b *RedisBlacklist) key(familyID string) string {
	return b.prefix + ":" + familyID
}

func (b *RedisBlacklist) Add(ctx context.Context, familyID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := b.redis.Set(ctx, b.key(familyID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (b *RedisBlacklist) Contains(ctx context.Context, familyID string) (bool, error) {
	err := b.redis.Get(ctx, b.key(familyID)).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}
