package cache_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yeisme/filedeck/pkg/cache"
	"github.com/yeisme/filedeck/pkg/configs"
	"github.com/yeisme/filedeck/pkg/internal/storage/kv"
)

// page 模拟一页文件列表.
type page struct {
	Names []string `json:"names"`
	Total int      `json:"total"`
}

func newCache(t *testing.T) (*cache.Cache, kv.KVStore) {
	t.Helper()

	store, err := kv.NewMemoryKV(context.Background(), &configs.KVConfig{Type: configs.KVTypeMemory})
	if err != nil {
		t.Fatalf("memory kv: %v", err)
	}

	t.Cleanup(func() { _ = store.Close() })

	return cache.NewCache(store), store
}

// 测试 Set 之后 Get 得到相同的值，未命中返回 kv.ErrKeyNotFound.
func TestSetGet(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()

	if _, err := cache.Get[page](ctx, c, "files.missing"); !errors.Is(err, kv.ErrKeyNotFound) {
		t.Fatalf("miss err = %v", err)
	}

	want := page{Names: []string{"a.png", "b.txt"}, Total: 2}
	if err := cache.Set(ctx, c, "files.p1", want, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := cache.Get[page](ctx, c, "files.p1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if got.Total != 2 || strings.Join(got.Names, ",") != "a.png,b.txt" {
		t.Errorf("got %+v", got)
	}

	ok, _ := c.Exists(ctx, "files.p1")
	if !ok {
		t.Error("Exists = false after Set")
	}

	if err := c.Delete(ctx, "files.p1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if ok, _ := c.Exists(ctx, "files.p1"); ok {
		t.Error("Exists = true after Delete")
	}
}

// 测试存储中的值无法反序列化时返回错误，GetOrSet 把它当作未命中重新加载.
func TestCorruptValue(t *testing.T) {
	c, store := newCache(t)
	ctx := context.Background()

	if err := store.Set(ctx, "files.bad", []byte("{not json"), 0); err != nil {
		t.Fatal(err)
	}

	if _, err := cache.Get[page](ctx, c, "files.bad"); err == nil {
		t.Fatal("expected unmarshal error")
	}

	got, err := cache.GetOrSet(ctx, c, "files.bad", func() (page, error) {
		return page{Total: 7}, nil
	}, time.Minute)
	if err != nil || got.Total != 7 {
		t.Fatalf("GetOrSet = %+v, %v", got, err)
	}

	again, err := cache.Get[page](ctx, c, "files.bad")
	if err != nil || again.Total != 7 {
		t.Fatalf("value not rewritten: %+v, %v", again, err)
	}
}

// 测试 GetOrSet 命中时不调用回源，回源失败时不写缓存.
func TestGetOrSet(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()

	calls := 0
	load := func() (page, error) {
		calls++
		return page{Names: []string{"x"}, Total: 1}, nil
	}

	for range 3 {
		if _, err := cache.GetOrSet(ctx, c, "files.hit", load, time.Minute); err != nil {
			t.Fatal(err)
		}
	}

	if calls != 1 {
		t.Errorf("loader calls = %d, want 1", calls)
	}

	boom := errors.New("db down")

	_, err := cache.GetOrSet(ctx, c, "files.err", func() (page, error) { return page{}, boom }, time.Minute)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}

	if ok, _ := c.Exists(ctx, "files.err"); ok {
		t.Error("failed load must not be cached")
	}
}

// 测试过期后重新回源.
func TestGetOrSetExpiry(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()

	calls := 0
	load := func() (int, error) {
		calls++
		return calls, nil
	}

	if v, _ := cache.GetOrSet(ctx, c, "files.ttl", load, 20*time.Millisecond); v != 1 {
		t.Fatalf("first = %d", v)
	}

	time.Sleep(40 * time.Millisecond)

	if v, _ := cache.GetOrSet(ctx, c, "files.ttl", load, 20*time.Millisecond); v != 2 {
		t.Fatalf("after expiry = %d, want reload", v)
	}
}

// 测试 Clear 按模式删除，空模式清空全部.
func TestClear(t *testing.T) {
	c, store := newCache(t)
	ctx := context.Background()

	for _, k := range []string{"files.a", "files.b", "gen.files"} {
		if err := cache.Set(ctx, c, k, 1, 0); err != nil {
			t.Fatal(err)
		}
	}

	if err := c.Clear(ctx, "files.*"); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	keys, _ := store.Keys(ctx, "*")
	if len(keys) != 1 || keys[0] != "gen.files" {
		t.Fatalf("keys after pattern clear = %v", keys)
	}

	if err := c.Clear(ctx, ""); err != nil {
		t.Fatal(err)
	}

	keys, _ = store.Keys(ctx, "*")
	if len(keys) != 0 {
		t.Fatalf("keys after full clear = %v", keys)
	}
}

// 测试 Key 对相同片段稳定，片段边界不同则结果不同.
func TestKey(t *testing.T) {
	a := cache.Key("files", "q=pdf", "sort=size")
	if a != cache.Key("files", "q=pdf", "sort=size") {
		t.Error("Key not deterministic")
	}

	if !strings.HasPrefix(a, "files.") {
		t.Errorf("namespace missing: %s", a)
	}

	if cache.Key("files", "ab", "c") == cache.Key("files", "a", "bc") {
		t.Error("part boundaries must change the key")
	}
}

// 测试并发未命中只回源一次.
func TestGetOrSetConcurrent(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()

	var (
		calls   atomic.Int32
		release = make(chan struct{})
		wg      sync.WaitGroup
	)

	load := func() (page, error) {
		calls.Add(1)
		<-release

		return page{Total: 3}, nil
	}

	const n = 8

	results := make([]page, n)

	for i := range n {
		wg.Add(1)

		go func() {
			defer wg.Done()

			results[i], _ = cache.GetOrSet(ctx, c, "files.hot", load, time.Minute)
		}()
	}

	time.Sleep(30 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("loader calls = %d, want 1", got)
	}

	for i, r := range results {
		if r.Total != 3 {
			t.Errorf("result %d = %+v", i, r)
		}
	}
}

func BenchmarkGetHit(b *testing.B) {
	store, _ := kv.NewMemoryKV(context.Background(), &configs.KVConfig{})
	c := cache.NewCache(store)
	ctx := context.Background()

	_ = cache.Set(ctx, c, "files.bench", page{Names: []string{"a", "b", "c"}, Total: 3}, 0)

	for b.Loop() {
		_, _ = cache.Get[page](ctx, c, "files.bench")
	}
}
