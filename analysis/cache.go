package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache holds finished analysis results. Only terminal results are cached
// because the external job never rewrites them.
type Cache interface {
	Get(ctx context.Context, imageID string) (*Result, bool, error)
	Set(ctx context.Context, result *Result) error
}

type NopCache struct{}

func (NopCache) Get(context.Context, string) (*Result, bool, error) { return nil, false, nil }
func (NopCache) Set(context.Context, *Result) error                 { return nil }

const cacheKeyPrefix = "cache:image_analysis:"

type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

// ConnectRedis opens a client and checks it with a ping.
func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

func (c *RedisCache) Get(ctx context.Context, imageID string) (*Result, bool, error) {
	data, err := c.rdb.Get(ctx, cacheKeyPrefix+imageID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false, err
	}
	return &result, true, nil
}

func (c *RedisCache) Set(ctx context.Context, result *Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, cacheKeyPrefix+result.ImageID, data, c.ttl).Err()
}
