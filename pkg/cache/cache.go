// Package cache 提供基于键值存储的泛型缓存.
//
// 值使用 sonic 序列化，GetOrSet 通过 singleflight 合并同一个键上的并发回源.
//
//	c := cache.NewCache(kvStore)
//	files, err := cache.GetOrSet(ctx, c, cache.Key("files", "list", "q=pdf"), func() ([]model.File, error) {
//	    return store.FindMany(ctx, filter)
//	}, 30*time.Second)
//
// 缓存读取失败（未命中、反序列化失败、后端不可用）一律按未命中处理，写入失败不影响返回值.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"

	"github.com/yeisme/filedeck/pkg/internal/storage/kv"
)

// Cache 基于KV存储的缓存实现.
type Cache struct {
	kvStore kv.KVStore
	flight  singleflight.Group
}

// NewCache 创建一个新的缓存实例.
func NewCache(kvStore kv.KVStore) *Cache {
	return &Cache{kvStore: kvStore}
}

// Key 由命名空间和若干片段构造缓存键，片段部分取 xxhash 以保证键字符合法且长度固定.
func Key(namespace string, parts ...string) string {
	h := xxhash.New()

	for i, p := range parts {
		if i > 0 {
			_, _ = h.Write([]byte{0})
		}

		_, _ = h.WriteString(p)
	}

	return namespace + "." + strconv.FormatUint(h.Sum64(), 16)
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

// GetOrSet 获取缓存值，未命中时调用 getter 并写回.
func GetOrSet[T any](ctx context.Context, c *Cache, key string, getter func() (T, error), ttl time.Duration) (T, error) {
	if value, err := Get[T](ctx, c, key); err == nil {
		return value, nil
	}

	v, err, _ := c.flight.Do(key, func() (any, error) {
		value, err := getter()
		if err != nil {
			return value, err
		}

		_ = Set(ctx, c, key, value, ttl)

		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	value, _ := v.(T)

	return value, nil
}

// Clear 删除匹配模式的所有键，空模式删除全部.
func (c *Cache) Clear(ctx context.Context, pattern string) error {
	if strings.TrimSpace(pattern) == "" {
		pattern = "*"
	}

	keys, err := c.kvStore.Keys(ctx, pattern)
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
