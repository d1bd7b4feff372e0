package quiz

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const recentListKey = "questions:recent"

// RedisCache implements Cache on top of Redis so several server restarts (or
// processes sharing one instance) keep the same de-dup history.
type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(addr, password string, db int) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) Ping(ctx context.Context) error { return c.rdb.Ping(ctx).Err() }

func key(fingerprint string) string {
	return fmt.Sprintf("questions:fp:%s", fingerprint)
}

func (c *RedisCache) Exists(ctx context.Context, fingerprint string) (bool, error) {
	n, err := c.rdb.Exists(ctx, key(fingerprint)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *RedisCache) Record(ctx context.Context, fingerprint string, q Question) error {
	data, err := json.Marshal(q)
	if err != nil {
		return err
	}
	pipe := c.rdb.TxPipeline()
	pipe.SetNX(ctx, key(fingerprint), data, 0)
	pipe.LPush(ctx, recentListKey, q.Text)
	pipe.LTrim(ctx, recentListKey, 0, 99)
	_, err = pipe.Exec(ctx)
	return err
}

func (c *RedisCache) Recent(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	return c.rdb.LRange(ctx, recentListKey, 0, int64(n-1)).Result()
}
