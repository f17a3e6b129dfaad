package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"telegram-shop-bot/internal/domain/model"
	"telegram-shop-bot/internal/domain/ports/repository"
	"telegram-shop-bot/internal/infra/metrics"
	red "telegram-shop-bot/internal/infra/redis"
)

var _ repository.PreferenceRepository = (*preferenceRepoCacheDecorator)(nil)

// preferenceRepoCacheDecorator serves language/currency lookups, which happen on
// every rendered screen, from Redis.
type preferenceRepoCacheDecorator struct {
	inner repository.PreferenceRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewPreferenceRepoCacheDecorator(inner repository.PreferenceRepository, cache red.RedisClient, ttl time.Duration) repository.PreferenceRepository {
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	return &preferenceRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func preferenceKey(chatID int64) string { return fmt.Sprintf("pref:chat:%d", chatID) }

func (d *preferenceRepoCacheDecorator) Get(ctx context.Context, tx repository.Tx, chatID int64) (*model.UserPreference, error) {
	// Reads inside a transaction must see uncommitted writes.
	if tx != nil {
		return d.inner.Get(ctx, tx, chatID)
	}
	key := preferenceKey(chatID)
	if val, err := d.cache.Get(ctx, key); err == nil {
		var p model.UserPreference
		if json.Unmarshal([]byte(val), &p) == nil {
			metrics.IncCacheRequest("preference", "hit")
			return &p, nil
		}
	}

	metrics.IncCacheRequest("preference", "miss")
	p, err := d.inner.Get(ctx, tx, chatID)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(p); err == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return p, nil
}

func (d *preferenceRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, p *model.UserPreference) error {
	_ = d.cache.Del(ctx, preferenceKey(p.ChatID))
	return d.inner.Save(ctx, tx, p)
}

var _ repository.SettingsRepository = (*settingsRepoCacheDecorator)(nil)

// settingsRepoCacheDecorator caches the custom command table, which is read
// for every unmatched text message.
type settingsRepoCacheDecorator struct {
	inner repository.SettingsRepository
	cache red.RedisClient
	ttl   time.Duration
}

const customCommandsKey = "settings:custom_commands"

func NewSettingsRepoCacheDecorator(inner repository.SettingsRepository, cache red.RedisClient, ttl time.Duration) repository.SettingsRepository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &settingsRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func (d *settingsRepoCacheDecorator) ListCustomCommands(ctx context.Context, tx repository.Tx) ([]model.CustomCommand, error) {
	if val, err := d.cache.Get(ctx, customCommandsKey); err == nil {
		var cmds []model.CustomCommand
		if json.Unmarshal([]byte(val), &cmds) == nil {
			metrics.IncCacheRequest("custom_commands", "hit")
			return cmds, nil
		}
	}

	metrics.IncCacheRequest("custom_commands", "miss")
	cmds, err := d.inner.ListCustomCommands(ctx, tx)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(cmds); err == nil {
		_ = d.cache.Set(ctx, customCommandsKey, b, d.ttl)
	}
	return cmds, nil
}

func (d *settingsRepoCacheDecorator) SaveCustomCommand(ctx context.Context, tx repository.Tx, c model.CustomCommand) error {
	if err := d.inner.SaveCustomCommand(ctx, tx, c); err != nil {
		return err
	}
	_ = d.cache.Del(ctx, customCommandsKey)
	return nil
}
