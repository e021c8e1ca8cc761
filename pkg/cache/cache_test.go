package cache_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"farmhub/pkg/cache"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// fakeKV 内存版KV，支持注入故障
type fakeKV struct {
	mu     sync.Mutex
	data   map[string]string
	broken bool // 为true时所有操作返回错误
	sets   int
	dels   int
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string]string)}
}

var errBroken = errors.New("kv unavailable")

func (f *fakeKV) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.broken {
		return "", errBroken
	}
	v, ok := f.data[key]
	if !ok {
		return "", cache.ErrMiss
	}
	return v, nil
}

func (f *fakeKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.broken {
		return errBroken
	}
	f.data[key] = value
	f.sets++
	return nil
}

func (f *fakeKV) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.broken {
		return errBroken
	}
	for _, k := range keys {
		delete(f.data, k)
	}
	f.dels++
	return nil
}

func (f *fakeKV) Ping(ctx context.Context) error { return nil }
func (f *fakeKV) Close() error                   { return nil }

func newTestCache(kv cache.KV) *cache.Cache {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return cache.New(&cache.Config{Prefix: "test", TTL: time.Minute, Timeout: 100 * time.Millisecond}, kv, log)
}

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestGetOrLoad_MissLoadsAndBackfills(t *testing.T) {
	kv := newFakeKV()
	c := newTestCache(kv)

	loads := 0
	loader := func() (interface{}, error) {
		loads++
		return &payload{Name: "barn-a", Count: 3}, nil
	}

	var got payload
	require.NoError(t, c.GetOrLoad(context.Background(), "tenant:t1:config", &got, loader))
	require.Equal(t, "barn-a", got.Name)
	require.Equal(t, 1, loads)
	require.Equal(t, 1, kv.sets)

	// 第二次读取命中缓存，不再回源
	var again payload
	require.NoError(t, c.GetOrLoad(context.Background(), "tenant:t1:config", &again, loader))
	require.Equal(t, 3, again.Count)
	require.Equal(t, 1, loads)
}

func TestGetOrLoad_OutageDegradesToLoader(t *testing.T) {
	kv := newFakeKV()
	kv.broken = true
	c := newTestCache(kv)

	var got payload
	err := c.GetOrLoad(context.Background(), "tenant:t1:config", &got, func() (interface{}, error) {
		return &payload{Name: "fallback"}, nil
	})
	// 缓存故障不上抛，读取结果来自loader
	require.NoError(t, err)
	require.Equal(t, "fallback", got.Name)
}

func TestGetOrLoad_LoaderErrorPropagates(t *testing.T) {
	kv := newFakeKV()
	c := newTestCache(kv)

	wantErr := errors.New("store down")
	var got payload
	err := c.GetOrLoad(context.Background(), "tenant:t1:config", &got, func() (interface{}, error) {
		return nil, wantErr
	})
	require.ErrorIs(t, err, wantErr)
	require.Equal(t, 0, kv.sets)
}

func TestGetOrLoad_CorruptedValueFallsThrough(t *testing.T) {
	kv := newFakeKV()
	kv.data["test:tenant:t1:config"] = "{not json"
	c := newTestCache(kv)

	var got payload
	require.NoError(t, c.GetOrLoad(context.Background(), "tenant:t1:config", &got, func() (interface{}, error) {
		return &payload{Name: "reloaded"}, nil
	}))
	require.Equal(t, "reloaded", got.Name)
}

func TestInvalidate_RemovesKeys(t *testing.T) {
	kv := newFakeKV()
	c := newTestCache(kv)

	var got payload
	require.NoError(t, c.GetOrLoad(context.Background(), "tenant:t1:config", &got, func() (interface{}, error) {
		return &payload{Name: "v1"}, nil
	}))

	c.Invalidate(context.Background(), "tenant:t1:config")

	// 失效后读取必须回源拿到新值（写后读一致）
	require.NoError(t, c.GetOrLoad(context.Background(), "tenant:t1:config", &got, func() (interface{}, error) {
		return &payload{Name: "v2"}, nil
	}))
	require.Equal(t, "v2", got.Name)
}

func TestInvalidate_OutageDoesNotPanic(t *testing.T) {
	kv := newFakeKV()
	kv.broken = true
	c := newTestCache(kv)

	// 只要不panic、不上抛即可
	c.Invalidate(context.Background(), "tenant:t1:config", "tenant:t1:limits")
}

func TestTenantKeys(t *testing.T) {
	keys := cache.TenantKeys("t42")
	require.Equal(t, []string{
		"tenant:t42:config",
		"tenant:t42:subscription",
		"tenant:t42:limits",
	}, keys)
}
