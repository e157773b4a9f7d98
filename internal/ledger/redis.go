package ledger

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ssism/dhammi/internal/cttm"
)

// RedisCache shares fact snapshots between server processes. Every
// failure is logged and treated as a miss.
type RedisCache struct {
	client *redis.Client
	key    string
	log    *zap.Logger
}

// NewRedisCache connects to addr. The connection is lazy; an unreachable
// server only shows up as misses.
func NewRedisCache(addr, password string, db int, key string, log *zap.Logger) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return newRedisCache(rdb, key, log)
}

func newRedisCache(rdb *redis.Client, key string, log *zap.Logger) *RedisCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisCache{client: rdb, key: key, log: log}
}

// Load implements cttm.SnapshotCache.
func (c *RedisCache) Load(ctx context.Context) (*cttm.Snapshot, bool) {
	val, err := c.client.Get(ctx, c.key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.log.Debug("redis snapshot load failed", zap.Error(err))
		return nil, false
	}
	var s cttm.Snapshot
	if err := json.Unmarshal(val, &s); err != nil {
		c.log.Debug("redis snapshot undecodable", zap.Error(err))
		return nil, false
	}
	return &s, true
}

// Save implements cttm.SnapshotCache. The key expires with the snapshot.
func (c *RedisCache) Save(ctx context.Context, s cttm.Snapshot) {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return
	}
	data, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key, data, ttl).Err(); err != nil {
		c.log.Debug("redis snapshot save failed", zap.Error(err))
	}
}

// Delete implements cttm.SnapshotCache.
func (c *RedisCache) Delete(ctx context.Context) {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		c.log.Debug("redis snapshot delete failed", zap.Error(err))
	}
}

// Ping checks connectivity.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
