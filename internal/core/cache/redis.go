package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Cache 读穿缓存；RDB 为 nil 时退化为 singleflight 合并回源
type Cache struct {
	RDB    *redis.Client
	Prefix string
	sf     singleflight.Group
}

// New addr 为空返回 nil client 的 Cache（Redis 功能关闭）
func New(addr, pass string, db int) *Cache {
	if addr == "" {
		return &Cache{}
	}
	return &Cache{
		RDB: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}),
	}
}

func (c *Cache) Enabled() bool { return c != nil && c.RDB != nil }

// Client 未启用时返回 nil
func (c *Cache) Client() *redis.Client {
	if !c.Enabled() {
		return nil
	}
	return c.RDB
}

func (c *Cache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.RDB.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.RDB.Close()
}

func (c *Cache) key(k string) string { return c.Prefix + k }

func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	if c == nil {
		return load(ctx)
	}
	key = c.key(key)
	// 先读缓存；Redis 故障时直接回源
	if c.Enabled() {
		b, err := c.RDB.Get(ctx, key).Bytes()
		if err == nil {
			return b, nil
		}
		if !errors.Is(err, redis.Nil) && ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	// single flight 合并回源
	v, err, _ := c.sf.Do(key, func() (any, error) {
		b, e := load(ctx)
		if e != nil {
			return nil, e
		}
		if c.Enabled() {
			_ = c.RDB.Set(ctx, key, b, ttl).Err()
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Invalidate 写路径调用，删除缓存键
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if !c.Enabled() || len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, c.key(k))
	}
	return c.RDB.Del(ctx, full...).Err()
}
