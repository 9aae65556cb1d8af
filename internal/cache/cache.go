package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache fronts the hot catalog read. A nil-safe miss is just ("", false);
// callers always fall back to the store.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Del(ctx context.Context, keys ...string)
}

type RedisCache struct {
	client *redis.Client
}

// NewRedisCache accepts either a redis:// url or a bare host:port, so
// local and container config paths stay simple.
func NewRedisCache(ctx context.Context, addr string) (*RedisCache, error) {
	var client *redis.Client

	if strings.HasPrefix(addr, "redis://") {
		opt, err := redis.ParseURL(addr)

		if err != nil {
			return nil, fmt.Errorf("error parsing redis url: %v", err)
		}

		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: addr})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("error pinging redis: %v", err)
	}

	return &RedisCache{client: client}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, key).Bytes()

	if err != nil {
		return nil, false
	}

	return val, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	c.client.Set(ctx, key, value, ttl)
}

func (c *RedisCache) Del(ctx context.Context, keys ...string) {
	c.client.Del(ctx, keys...)
}
