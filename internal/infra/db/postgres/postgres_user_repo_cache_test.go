//go:build !integration

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"telegram-shop-bot/internal/domain"
	"telegram-shop-bot/internal/domain/model"
	"telegram-shop-bot/internal/domain/ports/repository"

	"github.com/go-redis/redis/v8"
)

func TestPreferenceRepoCacheDecorator(t *testing.T) {
	ctx := context.Background()
	pref := &model.UserPreference{ChatID: 77, Language: "ru", Currency: "EUR"}

	t.Run("Get should fetch from DB and set cache on miss", func(t *testing.T) {
		innerCalled := false
		var cacheSets sync.Map
		mockRedis := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) { return "", redis.Nil },
			SetFunc: func(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
				cacheSets.Store(key, value)
				return nil
			},
		}
		inner := &mockInnerPreferenceRepo{
			GetFunc: func(ctx context.Context, tx repository.Tx, chatID int64) (*model.UserPreference, error) {
				innerCalled = true
				return pref, nil
			},
		}

		got, err := NewPreferenceRepoCacheDecorator(inner, mockRedis, time.Hour).Get(ctx, nil, 77)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !innerCalled {
			t.Error("inner repository should be called on a cache miss")
		}
		if _, ok := cacheSets.Load("pref:chat:77"); !ok {
			t.Error("expected the preference to be cached")
		}
		if got.Language != "ru" {
			t.Errorf("expected language ru, but got %s", got.Language)
		}
	})

	t.Run("Get should serve from cache on hit", func(t *testing.T) {
		raw, _ := json.Marshal(pref)
		mockRedis := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) { return string(raw), nil },
		}
		inner := &mockInnerPreferenceRepo{
			GetFunc: func(ctx context.Context, tx repository.Tx, chatID int64) (*model.UserPreference, error) {
				t.Fatal("inner repository should not be called on a cache hit")
				return nil, nil
			},
		}
		got, err := NewPreferenceRepoCacheDecorator(inner, mockRedis, time.Hour).Get(ctx, nil, 77)
		if err != nil || got.Currency != "EUR" {
			t.Fatalf("expected cached EUR preference, got %+v (%v)", got, err)
		}
	})

	t.Run("Get should not cache a missing preference", func(t *testing.T) {
		mockRedis := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) { return "", redis.Nil },
			SetFunc: func(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
				t.Fatal("nothing should be cached for a missing row")
				return nil
			},
		}
		inner := &mockInnerPreferenceRepo{
			GetFunc: func(ctx context.Context, tx repository.Tx, chatID int64) (*model.UserPreference, error) {
				return nil, domain.ErrNotFound
			},
		}
		_, err := NewPreferenceRepoCacheDecorator(inner, mockRedis, time.Hour).Get(ctx, nil, 1)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, but got %v", err)
		}
	})

	t.Run("Save should invalidate the cache key", func(t *testing.T) {
		var deleted sync.Map
		mockRedis := &mockRedisClient{
			DelFunc: func(ctx context.Context, keys ...string) error {
				for _, k := range keys {
					deleted.Store(k, true)
				}
				return nil
			},
		}
		inner := &mockInnerPreferenceRepo{
			SaveFunc: func(ctx context.Context, tx repository.Tx, p *model.UserPreference) error { return nil },
		}
		if err := NewPreferenceRepoCacheDecorator(inner, mockRedis, time.Hour).Save(ctx, nil, pref); err != nil {
			t.Fatal(err)
		}
		if _, ok := deleted.Load("pref:chat:77"); !ok {
			t.Error("expected the cache key to be invalidated")
		}
	})
}

func TestSettingsRepoCacheDecorator(t *testing.T) {
	ctx := context.Background()
	cmds := []model.CustomCommand{{Slot: 1, Command: "hours", Response: "9-5"}}

	t.Run("should cache the command table and invalidate on save", func(t *testing.T) {
		store := map[string]string{}
		var mu sync.Mutex
		mockRedis := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) {
				mu.Lock()
				defer mu.Unlock()
				v, ok := store[key]
				if !ok {
					return "", redis.Nil
				}
				return v, nil
			},
			SetFunc: func(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
				mu.Lock()
				defer mu.Unlock()
				store[key] = string(value.([]byte))
				return nil
			},
			DelFunc: func(ctx context.Context, keys ...string) error {
				mu.Lock()
				defer mu.Unlock()
				for _, k := range keys {
					delete(store, k)
				}
				return nil
			},
		}
		loads := 0
		inner := &mockInnerSettingsRepo{
			ListCustomCommandsFunc: func(ctx context.Context, tx repository.Tx) ([]model.CustomCommand, error) {
				loads++
				return cmds, nil
			},
			SaveCustomCommandFunc: func(ctx context.Context, tx repository.Tx, c model.CustomCommand) error { return nil },
		}
		d := NewSettingsRepoCacheDecorator(inner, mockRedis, time.Minute)

		for i := 0; i < 3; i++ {
			got, err := d.ListCustomCommands(ctx, nil)
			if err != nil || len(got) != 1 || got[0].Command != "hours" {
				t.Fatalf("unexpected result %+v (%v)", got, err)
			}
		}
		if loads != 1 {
			t.Errorf("expected 1 inner load, but got %d", loads)
		}

		if err := d.SaveCustomCommand(ctx, nil, model.CustomCommand{Slot: 2, Command: "x"}); err != nil {
			t.Fatal(err)
		}
		_, _ = d.ListCustomCommands(ctx, nil)
		if loads != 2 {
			t.Errorf("expected a reload after save, but got %d loads", loads)
		}
	})
}
