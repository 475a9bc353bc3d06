package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/yeisme/filedeck/pkg/cache"
	"github.com/yeisme/filedeck/pkg/internal/model"
	"github.com/yeisme/filedeck/pkg/internal/storage/kv"
	"github.com/yeisme/filedeck/pkg/internal/types"
	nlog "github.com/yeisme/filedeck/pkg/log"
)

// ListCache 列表查询结果缓存.
type ListCache interface {
	// Get 命中时返回缓存结果，否则调用 load 并写回.
	Get(ctx context.Context, filter types.ListFilter, load func() ([]model.File, error)) ([]model.File, error)
	// Invalidate 使所有已缓存的列表失效.
	Invalidate(ctx context.Context)
}

type noCache struct{}

func (noCache) Get(_ context.Context, _ types.ListFilter, load func() ([]model.File, error)) ([]model.File, error) {
	return load()
}

func (noCache) Invalidate(context.Context) {}

const (
	listNamespace  = "files.list"
	generationKey  = "files.gen"
	generationZero = "0"
)

// KVListCache 基于 KV 的列表缓存.
//
// 缓存键包含一个代数，上传和删除时写入新的代数，旧键随 TTL 过期，不需要逐个删除.
type KVListCache struct {
	c   *cache.Cache
	ttl time.Duration
	now func() time.Time
}

// NewKVListCache 创建列表缓存.
func NewKVListCache(store kv.KVStore, ttl time.Duration) *KVListCache {
	return &KVListCache{c: cache.NewCache(store), ttl: ttl, now: time.Now}
}

func (k *KVListCache) generation(ctx context.Context) string {
	gen, err := cache.Get[string](ctx, k.c, generationKey)
	if err != nil {
		if !errors.Is(err, kv.ErrKeyNotFound) {
			nlog.Ctx(ctx).Debug().Err(err).Msg("read list cache generation failed")
		}

		return generationZero
	}

	return gen
}

// Get 实现 ListCache.
func (k *KVListCache) Get(ctx context.Context, filter types.ListFilter, load func() ([]model.File, error)) ([]model.File, error) {
	key := cache.Key(listNamespace,
		k.generation(ctx),
		filter.Search,
		filter.Type,
		string(filter.SortBy),
		string(filter.Order),
	)

	return cache.GetOrSet(ctx, k.c, key, func() ([]model.File, error) {
		files, err := load()
		if err == nil && files == nil {
			files = []model.File{}
		}

		return files, err
	}, k.ttl)
}

// Invalidate 实现 ListCache.
func (k *KVListCache) Invalidate(ctx context.Context) {
	gen := strconv.FormatInt(k.now().UnixNano(), 36)

	if err := cache.Set(ctx, k.c, generationKey, gen, 0); err != nil {
		nlog.Ctx(ctx).Warn().Err(err).Msg("bump list cache generation failed")
	}
}
