package repositories

import (
	"context"
	"errors"
	"time"
)

var ErrCacheMiss = errors.New("ключ не найден в кеше")

type CacheRepositoryInterface interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, key ...string) error
	Incr(ctx context.Context, key string, expiration time.Duration) (int64, error)
	// SetNX записывает ключ, только если его ещё нет. true — ключ записан.
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
}
