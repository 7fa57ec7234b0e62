package kv_test

import (
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	mrand "math/rand"
	"os"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/yeisme/certvault/pkg/configs"
	"github.com/yeisme/certvault/pkg/internal/storage/kv"
)

// exerciseKV 对任意实现跑一遍基本操作.
func exerciseKV(t *testing.T, store kv.KVStore) {
	t.Helper()

	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := store.Set(ctx, "certs:all", []byte("[]"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := store.Get(ctx, "certs:all")
	if err != nil || string(got) != "[]" {
		t.Fatalf("get = %q, %v", got, err)
	}

	if err := store.Set(ctx, "certs:other", []byte("x"), time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}

	if err := store.Set(ctx, "unrelated", []byte("y"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	keys, err := store.Keys(ctx, "certs:*")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}

	sort.Strings(keys)

	if len(keys) != 2 || keys[0] != "certs:all" || keys[1] != "certs:other" {
		t.Fatalf("unexpected keys %v", keys)
	}

	if err := store.Delete(ctx, "certs:all"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if ok, err := store.Exists(ctx, "certs:all"); ok || err != nil {
		t.Fatalf("key should be deleted: %v %v", ok, err)
	}

	if ok, err := store.Exists(ctx, "certs:other"); !ok || err != nil {
		t.Fatalf("key should exist: %v %v", ok, err)
	}
}

func TestMemoryKV(t *testing.T) {
	store, err := kv.NewKVStore(context.Background(), kv.KVTypeMemory, nil)
	if err != nil {
		t.Fatalf("create memory kv: %v", err)
	}
	defer store.Close()

	exerciseKV(t, store)
}

func TestBadgerKVInMemory(t *testing.T) {
	store, err := kv.NewFromConfig(context.Background(), &configs.CacheConfig{Type: "badger"})
	if err != nil {
		t.Fatalf("create badger kv: %v", err)
	}
	defer store.Close()

	exerciseKV(t, store)
}

func TestBadgerKVPersists(t *testing.T) {
	ctx := context.Background()
	cfg := &configs.BadgerKVConfig{Dir: t.TempDir(), GCInterval: time.Hour}

	store, err := kv.NewKVStore(ctx, kv.KVTypeBadger, cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := store.Set(ctx, "certificates:all", []byte(`[{"name":"Rahmawati"}]`), time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// 重复关闭无副作用
	if err := store.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	store, err = kv.NewKVStore(ctx, kv.KVTypeBadger, cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()

	got, err := store.Get(ctx, "certificates:all")
	if err != nil || string(got) != `[{"name":"Rahmawati"}]` {
		t.Fatalf("after reopen = %q, %v", got, err)
	}
}

func TestRegisteredKVTypes(t *testing.T) {
	got := kv.GetRegisteredKVTypes()
	want := []kv.KVType{kv.KVTypeBadger, kv.KVTypeMemory, kv.KVTypeRedis}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("registered types mismatch (-want +got):\n%s", diff)
	}
}

func TestMemoryKVTTL(t *testing.T) {
	ctx := context.Background()

	store, err := kv.NewKVStore(ctx, kv.KVTypeMemory, nil)
	if err != nil {
		t.Fatalf("create memory kv: %v", err)
	}

	if err := store.Set(ctx, "short", []byte("v"), 20*time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}

	if got, err := store.Get(ctx, "short"); err != nil || string(got) != "v" {
		t.Fatalf("get before expiry = %q, %v", got, err)
	}

	time.Sleep(60 * time.Millisecond)

	if _, err := store.Get(ctx, "short"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected expiry, got %v", err)
	}
}

func TestUnsupportedType(t *testing.T) {
	if _, err := kv.NewKVStore(context.Background(), "etcd", nil); err == nil {
		t.Fatal("expected error")
	}

	if _, err := kv.NewFromConfig(context.Background(), &configs.CacheConfig{Type: "etcd"}); err == nil {
		t.Fatal("expected error")
	}
}

func BenchmarkMemoryKV(b *testing.B) {
	store, err := kv.NewKVStore(context.Background(), kv.KVTypeMemory, nil)
	if err != nil {
		b.Fatalf("create memory kv: %v", err)
	}

	benchKV(b, "memory", store)
	benchKVParallel(b, "memory", store)
	_ = store.Close()
}

// Optional: enable with ENABLE_REDIS_BENCH=1 and REDIS_ADDR set (default 127.0.0.1:6379).
func BenchmarkRedisKV(b *testing.B) {
	if os.Getenv("ENABLE_REDIS_BENCH") == "" {
		b.Skip("set ENABLE_REDIS_BENCH=1 to enable")
	}

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "127.0.0.1:6379"
	}

	cfg := &configs.RedisKVConfig{Addr: addr, Password: "", DB: 0}

	store, err := kv.NewKVStore(context.Background(), kv.KVTypeRedis, cfg)
	if err != nil {
		b.Skipf("redis not available: %v", err)
		return
	}

	benchKV(b, "redis", store)
	benchKVParallel(b, "redis", store)
	_ = store.Close()
}

// randBytes 返回 n 个随机字节.
func randBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := crand.Read(b); err != nil {
		mr := mrand.New(mrand.NewSource(42))
		for i := range b {
			b[i] = byte(mr.Intn(256))
		}
	}

	return b
}

// benchKV 执行基本的 Set/Get/Delete 基准测试.
func benchKV(b *testing.B, name string, store kv.KVStore) {
	ctx := context.Background()
	sizes := []int{32, 1024, 64 * 1024}
	ttls := []time.Duration{0, 5 * time.Second}

	for _, size := range sizes {
		payload := randBytes(size)
		for _, ttl := range ttls {
			b.Run(fmt.Sprintf("%s/size=%d/ttl=%s", name, size, ttl), func(b *testing.B) {
				b.ReportAllocs()

				for i := 0; b.Loop(); i++ {
					key := fmt.Sprintf("bench:%s:%d", name, i)
					if err := store.Set(ctx, key, payload, ttl); err != nil {
						b.Fatalf("set failed: %v", err)
					}

					if _, err := store.Get(ctx, key); err != nil {
						b.Fatalf("get failed: %v", err)
					}

					if err := store.Delete(ctx, key); err != nil {
						b.Fatalf("delete failed: %v", err)
					}
				}
			})
		}
	}
}

// benchKVParallel 执行并行的 Set/Get/Delete 基准测试.
func benchKVParallel(b *testing.B, name string, store kv.KVStore) {
	ctx := context.Background()
	size := 1024
	payload := randBytes(size)

	var ctr uint64

	b.Run(fmt.Sprintf("%s/parallel", name), func(b *testing.B) {
		b.ReportAllocs()
		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				i := atomic.AddUint64(&ctr, 1)

				key := fmt.Sprintf("bench:%s:p:%d", name, i)
				if err := store.Set(ctx, key, payload, 0); err != nil {
					b.Fatalf("set failed: %v", err)
				}

				if _, err := store.Get(ctx, key); err != nil {
					b.Fatalf("get failed: %v", err)
				}

				if err := store.Delete(ctx, key); err != nil {
					b.Fatalf("delete failed: %v", err)
				}
			}
		})
	})
}

// 需要 ENABLE_REDIS_TEST=1，地址取 REDIS_ADDR（默认 127.0.0.1:6379）.
func TestRedisKVPrefix(t *testing.T) {
	if os.Getenv("ENABLE_REDIS_TEST") == "" {
		t.Skip("set ENABLE_REDIS_TEST=1 to enable")
	}

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "127.0.0.1:6379"
	}

	ctx := context.Background()
	prefix := fmt.Sprintf("certvault-test-%d:", time.Now().UnixNano())

	a, err := kv.NewKVStore(ctx, kv.KVTypeRedis, &configs.RedisKVConfig{Addr: addr, Prefix: prefix + "a:"})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer a.Close()

	b, err := kv.NewKVStore(ctx, kv.KVTypeRedis, &configs.RedisKVConfig{Addr: addr, Prefix: prefix + "b:"})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer b.Close()

	if err := a.Set(ctx, "certificates:all", []byte("[]"), time.Minute); err != nil {
		t.Fatal(err)
	}
	defer a.Delete(ctx, "certificates:all")

	if _, err := b.Get(ctx, "certificates:all"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("prefix b should not see a's key, got %v", err)
	}

	keys, err := a.Keys(ctx, "certificates:*")
	if err != nil {
		t.Fatal(err)
	}

	if len(keys) != 1 || keys[0] != "certificates:all" {
		t.Fatalf("unexpected keys %v", keys)
	}
}
