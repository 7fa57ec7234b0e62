// Package cache 提供基于键值存储的泛型读穿缓存.
//
// 值使用 sonic 序列化，支持 TTL. 同一个键的并发未命中由 singleflight 合并，
// 只有一个调用方会执行 getter.
//
// 基本用法:
//
//	store, _ := kv.NewKVStore(ctx, kv.KVTypeMemory, nil)
//	c := cache.NewCache(store)
//
//	certs, err := cache.GetOrSet(ctx, c, "certificates:all", func(ctx context.Context) ([]model.Certificate, error) {
//	    return db.FindAllCertificates(ctx)
//	}, 5*time.Second)
//
// 缓存读写失败不会影响主流程：读失败按未命中处理，写失败只丢弃缓存.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"golang.org/x/sync/singleflight"

	"github.com/yeisme/certvault/pkg/internal/storage/kv"
)

// ErrMiss 缓存未命中.
var ErrMiss = kv.ErrNotFound

// Cache 基于KV存储的缓存实现.
type Cache struct {
	kvStore kv.KVStore
	group   singleflight.Group
}

// NewCache 创建一个新的缓存实例.
func NewCache(kvStore kv.KVStore) *Cache {
	return &Cache{
		kvStore: kvStore,
	}
}

// Get 泛型获取缓存值.
func Get[T any](ctx context.Context, c *Cache, key string) (T, error) {
	var zero T

	data, err := c.kvStore.Get(ctx, key)
	if err != nil {
		return zero, err
	}

	var value T
	if err := sonic.Unmarshal(data, &value); err != nil {
		return zero, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	return value, nil
}

// Set 泛型设置缓存值.
func Set[T any](ctx context.Context, c *Cache, key string, value T, ttl time.Duration) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return c.kvStore.Set(ctx, key, data, ttl)
}

// Delete 删除缓存键.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.kvStore.Delete(ctx, key)
}

// Exists 检查缓存键是否存在.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	return c.kvStore.Exists(ctx, key)
}

// Close 关闭底层 KV.
func (c *Cache) Close() error {
	return c.kvStore.Close()
}

// GetOrSet 命中则返回缓存值；未命中时执行 getter 并写回，getter 的错误原样返回且不缓存.
// getter 由同键的所有等待者共享，收到的 context 保留 ctx 的值但不随 ctx 取消；
// 各调用方仍在自己的 ctx 取消时立即返回.
func GetOrSet[T any](ctx context.Context, c *Cache, key string, getter func(context.Context) (T, error), ttl time.Duration) (T, error) {
	var zero T

	if value, err := Get[T](ctx, c, key); err == nil {
		return value, nil
	}

	shared := context.WithoutCancel(ctx)

	ch := c.group.DoChan(key, func() (any, error) {
		// 可能已被前一个 Do 写回
		if value, err := Get[T](shared, c, key); err == nil {
			return value, nil
		}

		value, err := getter(shared)
		if err != nil {
			return value, err
		}

		// 写回失败只丢弃缓存
		_ = Set(shared, c, key, value, ttl)

		return value, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}

		value, ok := res.Val.(T)
		if !ok {
			return zero, errors.New("cache: unexpected value type")
		}

		return value, nil
	}
}

// Clear 清空缓存.
func (c *Cache) Clear(ctx context.Context) error {
	keys, err := c.kvStore.Keys(ctx, "*")
	if err != nil {
		return err
	}

	for _, key := range keys {
		if delErr := c.kvStore.Delete(ctx, key); delErr != nil {
			return delErr
		}
	}

	return nil
}
