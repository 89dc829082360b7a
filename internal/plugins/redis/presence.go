package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisPresenceCache keeps a TTL-keyed online marker per user. The key
// expiring on its own means a crashed node's users decay to offline without
// any cleanup pass.
type RedisPresenceCache struct {
	rdb *redis.Client
}

func NewRedisPresenceCache(rdb *redis.Client) *RedisPresenceCache {
	return &RedisPresenceCache{rdb: rdb}
}

func presenceKey(userID uuid.UUID) string {
	return "presence:user:" + userID.String()
}

func (p *RedisPresenceCache) SetOnline(ctx context.Context, userID uuid.UUID, ttl time.Duration) error {
	return p.rdb.Set(ctx, presenceKey(userID), "1", ttl).Err()
}

func (p *RedisPresenceCache) SetOffline(ctx context.Context, userID uuid.UUID) error {
	return p.rdb.Del(ctx, presenceKey(userID)).Err()
}

func (p *RedisPresenceCache) IsOnline(ctx context.Context, userID uuid.UUID) (bool, error) {
	n, err := p.rdb.Exists(ctx, presenceKey(userID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
