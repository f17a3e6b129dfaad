//go:build !integration

package postgres

import (
	"context"
	"time"

	"telegram-shop-bot/internal/domain/model"
	"telegram-shop-bot/internal/domain/ports/repository"
	red "telegram-shop-bot/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

type mockInnerPreferenceRepo struct {
	GetFunc  func(ctx context.Context, tx repository.Tx, chatID int64) (*model.UserPreference, error)
	SaveFunc func(ctx context.Context, tx repository.Tx, p *model.UserPreference) error
}

func (m *mockInnerPreferenceRepo) Get(ctx context.Context, tx repository.Tx, chatID int64) (*model.UserPreference, error) {
	return m.GetFunc(ctx, tx, chatID)
}
func (m *mockInnerPreferenceRepo) Save(ctx context.Context, tx repository.Tx, p *model.UserPreference) error {
	return m.SaveFunc(ctx, tx, p)
}

type mockInnerSettingsRepo struct {
	ListCustomCommandsFunc func(ctx context.Context, tx repository.Tx) ([]model.CustomCommand, error)
	SaveCustomCommandFunc  func(ctx context.Context, tx repository.Tx, c model.CustomCommand) error
}

func (m *mockInnerSettingsRepo) ListCustomCommands(ctx context.Context, tx repository.Tx) ([]model.CustomCommand, error) {
	return m.ListCustomCommandsFunc(ctx, tx)
}
func (m *mockInnerSettingsRepo) SaveCustomCommand(ctx context.Context, tx repository.Tx, c model.CustomCommand) error {
	return m.SaveCustomCommandFunc(ctx, tx, c)
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

var _ red.RedisClient = &mockRedisClient{}

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
