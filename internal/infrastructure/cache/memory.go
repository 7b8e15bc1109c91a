package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache implements pkg/cache.Cache trong process. Dùng khi không có
// Redis (local dev) và trong test. Value vẫn đi qua JSON để hành vi giống
// RedisCache: caller luôn nhận bản copy.
type MemoryCache struct {
	store *gocache.Cache
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{store: gocache.New(gocache.NoExpiration, 10*time.Minute)}
}

func (m *MemoryCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	raw, ok := m.store.Get(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw.([]byte), dest); err != nil {
		return false, fmt.Errorf("unmarshal cached value: %w", err)
	}
	return true, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	m.store.Set(key, data, ttl)
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		m.store.Delete(k)
	}
	return nil
}

func (m *MemoryCache) Ping(context.Context) error {
	return nil
}

func (m *MemoryCache) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.store.Get(key)
	return ok, nil
}

// TTL trả -1 cho key không hết hạn, 0 khi key không tồn tại
func (m *MemoryCache) TTL(_ context.Context, key string) (time.Duration, error) {
	_, exp, ok := m.store.GetWithExpiration(key)
	if !ok {
		return 0, nil
	}
	if exp.IsZero() {
		return -1, nil
	}
	return time.Until(exp), nil
}
