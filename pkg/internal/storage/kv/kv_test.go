package kv_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yeisme/filedeck/pkg/configs"
	"github.com/yeisme/filedeck/pkg/internal/storage/kv"
)

// 测试内存与 groupcache 实现的基本语义：读写、缺失键、TTL 过期与模式匹配.
func TestLocalStores(t *testing.T) {
	cases := []*configs.KVConfig{
		{Type: configs.KVTypeMemory},
		{Type: configs.KVTypeGroupcache, Groupcache: configs.GroupcacheKVConfig{Name: "test-local", CacheBytes: 1 << 20}},
	}

	for _, cfg := range cases {
		t.Run(string(cfg.Type), func(t *testing.T) {
			ctx := context.Background()

			store, err := kv.NewKVStore(ctx, cfg)
			if err != nil {
				t.Fatalf("NewKVStore: %v", err)
			}
			defer store.Close()

			if _, err := store.Get(ctx, "missing"); !errors.Is(err, kv.ErrKeyNotFound) {
				t.Fatalf("Get missing err = %v, want ErrKeyNotFound", err)
			}

			if err := store.Set(ctx, "files.a", []byte("1"), 0); err != nil {
				t.Fatalf("Set: %v", err)
			}

			if err := store.Set(ctx, "files.b", []byte("2"), 20*time.Millisecond); err != nil {
				t.Fatalf("Set ttl: %v", err)
			}

			if err := store.Set(ctx, "other", []byte("3"), 0); err != nil {
				t.Fatalf("Set: %v", err)
			}

			got, err := store.Get(ctx, "files.b")
			if err != nil || string(got) != "2" {
				t.Fatalf("Get files.b = %q, %v", got, err)
			}

			keys, err := store.Keys(ctx, "files.*")
			if err != nil || len(keys) != 2 {
				t.Fatalf("Keys = %v, %v", keys, err)
			}

			time.Sleep(40 * time.Millisecond)

			if ok, _ := store.Exists(ctx, "files.b"); ok {
				t.Fatal("files.b should have expired")
			}

			if err := store.Delete(ctx, "files.a"); err != nil {
				t.Fatalf("Delete: %v", err)
			}

			if ok, _ := store.Exists(ctx, "files.a"); ok {
				t.Fatal("files.a should be deleted")
			}
		})
	}
}

// 测试未注册的类型返回错误.
func TestUnsupportedType(t *testing.T) {
	if _, err := kv.New(context.Background(), &configs.KVConfig{Type: "etcd"}); err == nil {
		t.Fatal("expected error")
	}
}

// benchTarget 远端实现通过环境变量开启：FILEDECK_BENCH_REDIS=<addr>，FILEDECK_BENCH_NATS=<url>.
type benchTarget struct {
	name string
	cfg  *configs.KVConfig
}

func benchTargets() []benchTarget {
	targets := []benchTarget{
		{"memory", &configs.KVConfig{Type: configs.KVTypeMemory}},
		{"groupcache", &configs.KVConfig{Type: configs.KVTypeGroupcache, Groupcache: configs.GroupcacheKVConfig{
			Name: "bench-groupcache", CacheBytes: 32 << 20,
		}}},
	}

	if addr := os.Getenv("FILEDECK_BENCH_REDIS"); addr != "" {
		targets = append(targets, benchTarget{"redis", &configs.KVConfig{
			Type: configs.KVTypeRedis, Redis: configs.RedisKVConfig{Addr: addr},
		}})
	}

	if url := os.Getenv("FILEDECK_BENCH_NATS"); url != "" {
		targets = append(targets, benchTarget{"nats", &configs.KVConfig{
			Type: configs.KVTypeNATS, NATS: configs.NATSKVConfig{URL: url, Bucket: "filedeck-bench"},
		}})
	}

	return targets
}

// listPayload 近似一页缓存的文件列表 JSON.
func listPayload(records int) []byte {
	row := []byte(`{"id":"0b6f4a1e-3c1d-4b7a-9d1e-5f2a8c9e0d11","name":"holiday","originalName":"holiday.png","size":48213,"type":"image","mimeType":"image/png","blobUrl":"http://127.0.0.1:9000/filedeck/holiday-01J0.png","uploadedAt":"2024-05-01T12:00:00Z","folder":null,"tags":[]},`)

	return append([]byte("["), append(bytes.Repeat(row, records), ']')...)
}

// 列表缓存的读写删基准，键名只用字母数字与连字符以兼容 NATS KV.
func BenchmarkKV(b *testing.B) {
	ctx := context.Background()

	for _, target := range benchTargets() {
		store, err := kv.NewKVStore(ctx, target.cfg)
		if err != nil {
			b.Logf("skip %s: %v", target.name, err)
			continue
		}

		for _, records := range []int{1, 20, 200} {
			payload := listPayload(records)

			b.Run(fmt.Sprintf("%s/records=%d", target.name, records), func(b *testing.B) {
				b.ReportAllocs()
				b.SetBytes(int64(len(payload)))

				for i := 0; b.Loop(); i++ {
					key := fmt.Sprintf("files-%s-%d", target.name, i)
					if err := store.Set(ctx, key, payload, time.Minute); err != nil {
						b.Fatalf("set: %v", err)
					}

					if _, err := store.Get(ctx, key); err != nil {
						b.Fatalf("get: %v", err)
					}

					if err := store.Delete(ctx, key); err != nil {
						b.Fatalf("delete: %v", err)
					}
				}
			})
		}

		var seq atomic.Uint64

		payload := listPayload(20)

		b.Run(target.name+"/parallel", func(b *testing.B) {
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					key := fmt.Sprintf("files-%s-p-%d", target.name, seq.Add(1))
					if err := store.Set(ctx, key, payload, 0); err != nil {
						b.Fatalf("set: %v", err)
					}

					if _, err := store.Get(ctx, key); err != nil {
						b.Fatalf("get: %v", err)
					}
				}
			})
		})

		_ = store.Close()
	}
}
