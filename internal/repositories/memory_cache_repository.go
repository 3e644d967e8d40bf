package repositories

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"
)

type memoryItem struct {
	value     string
	expiresAt time.Time
}

func (i memoryItem) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && now.After(i.expiresAt)
}

// MemoryCacheRepository используется, когда Redis не настроен.
type MemoryCacheRepository struct {
	mu    sync.Mutex
	items map[string]memoryItem
	now   func() time.Time
}

func NewMemoryCacheRepository() *MemoryCacheRepository {
	return &MemoryCacheRepository{items: make(map[string]memoryItem), now: time.Now}
}

func (r *MemoryCacheRepository) Get(_ context.Context, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[key]
	if !ok || item.expired(r.now()) {
		delete(r.items, key)
		return "", ErrCacheMiss
	}
	return item.value, nil
}

func (r *MemoryCacheRepository) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[key] = r.newItem(value, expiration)
	return nil
}

func (r *MemoryCacheRepository) Del(_ context.Context, keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, key := range keys {
		delete(r.items, key)
	}
	return nil
}

func (r *MemoryCacheRepository) SetNX(_ context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item, ok := r.items[key]; ok && !item.expired(r.now()) {
		return false, nil
	}
	r.items[key] = r.newItem(value, expiration)
	r.evictExpired()
	return true, nil
}

func (r *MemoryCacheRepository) Incr(_ context.Context, key string, expiration time.Duration) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[key]
	if !ok || item.expired(r.now()) {
		r.items[key] = r.newItem(1, expiration)
		return 1, nil
	}

	current, err := strconv.ParseInt(item.value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("значение ключа %s не является числом", key)
	}
	current++
	item.value = strconv.FormatInt(current, 10)
	r.items[key] = item
	return current, nil
}

func (r *MemoryCacheRepository) newItem(value interface{}, expiration time.Duration) memoryItem {
	item := memoryItem{value: fmt.Sprint(value)}
	if expiration > 0 {
		item.expiresAt = r.now().Add(expiration)
	}
	return item
}

// evictExpired вызывается под блокировкой.
func (r *MemoryCacheRepository) evictExpired() {
	now := r.now()
	for key, item := range r.items {
		if item.expired(now) {
			delete(r.items, key)
		}
	}
}
