//go:build !integration

package postgres

import (
	"context"
	"time"

	"telegram-classifieds-notify/internal/domain/model"
	"telegram-classifieds-notify/internal/domain/ports/repository"
	red "telegram-classifieds-notify/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerDestinationRepo mocks the database repository the decorator wraps.
type mockInnerDestinationRepo struct {
	FindByKeyFunc  func(ctx context.Context, tx repository.Tx, key string) (*model.Destination, error)
	ListActiveFunc func(ctx context.Context, tx repository.Tx) ([]*model.Destination, error)
	SaveFunc       func(ctx context.Context, tx repository.Tx, d *model.Destination) error
}

var _ repository.DestinationRepository = (*mockInnerDestinationRepo)(nil)

func (m *mockInnerDestinationRepo) FindByKey(ctx context.Context, tx repository.Tx, key string) (*model.Destination, error) {
	return m.FindByKeyFunc(ctx, tx, key)
}
func (m *mockInnerDestinationRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Destination, error) {
	return m.ListActiveFunc(ctx, tx)
}
func (m *mockInnerDestinationRepo) Save(ctx context.Context, tx repository.Tx, d *model.Destination) error {
	return m.SaveFunc(ctx, tx, d)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc    func(ctx context.Context, keys ...string) error
	PingFunc   func(ctx context.Context) error
	IncrFunc   func(ctx context.Context, key string) (int64, error)
	ExpireFunc func(ctx context.Context, key string, expiration time.Duration) error
	CloseFunc  func() error
}

var _ red.RedisClient = (*mockRedisClient)(nil)

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return m.PingFunc(ctx) }
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	return m.IncrFunc(ctx, key)
}
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return m.ExpireFunc(ctx, key, expiration)
}
func (m *mockRedisClient) Close() error { return m.CloseFunc() }
