package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-shop-bot/internal/domain/model"
	"telegram-shop-bot/internal/domain/ports/repository"
)

var (
	_ repository.PreferenceRepository = (*preferenceRepo)(nil)
	_ repository.InquiryRepository    = (*inquiryRepo)(nil)
	_ repository.SettingsRepository   = (*settingsRepo)(nil)
)

type preferenceRepo struct {
	pool *pgxpool.Pool
}

func NewPreferenceRepo(pool *pgxpool.Pool) repository.PreferenceRepository {
	return &preferenceRepo{pool: pool}
}

func (r *preferenceRepo) Get(ctx context.Context, tx repository.Tx, chatID int64) (*model.UserPreference, error) {
	const q = `SELECT chat_id, username, language, currency, created_at, updated_at FROM user_preferences WHERE chat_id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, chatID)
	if err != nil {
		return nil, err
	}
	var p model.UserPreference
	if err := row.Scan(&p.ChatID, &p.Username, &p.Language, &p.Currency, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, scanErr(err)
	}
	return &p, nil
}

func (r *preferenceRepo) Save(ctx context.Context, tx repository.Tx, p *model.UserPreference) error {
	const q = `
INSERT INTO user_preferences (chat_id, username, language, currency, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (chat_id) DO UPDATE
  SET username = EXCLUDED.username, language = EXCLUDED.language,
      currency = EXCLUDED.currency, updated_at = EXCLUDED.updated_at;`
	if _, err := execSQL(ctx, r.pool, tx, q, p.ChatID, p.Username, p.Language, p.Currency, p.CreatedAt, p.UpdatedAt); err != nil {
		return fmt.Errorf("save preference: %w", err)
	}
	return nil
}

type inquiryRepo struct {
	pool *pgxpool.Pool
}

func NewInquiryRepo(pool *pgxpool.Pool) repository.InquiryRepository {
	return &inquiryRepo{pool: pool}
}

func (r *inquiryRepo) Save(ctx context.Context, tx repository.Tx, i *model.Inquiry) error {
	const q = `
INSERT INTO inquiries (id, chat_id, username, text, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status;`
	if _, err := execSQL(ctx, r.pool, tx, q, i.ID, i.ChatID, i.Username, i.Text, string(i.Status), i.CreatedAt); err != nil {
		return fmt.Errorf("save inquiry: %w", err)
	}
	return nil
}

type settingsRepo struct {
	pool *pgxpool.Pool
}

func NewSettingsRepo(pool *pgxpool.Pool) repository.SettingsRepository {
	return &settingsRepo{pool: pool}
}

func (r *settingsRepo) ListCustomCommands(ctx context.Context, tx repository.Tx) ([]model.CustomCommand, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT slot, command, response FROM custom_commands ORDER BY slot;`)
	if err != nil {
		return nil, fmt.Errorf("list custom commands: %w", err)
	}
	defer rows.Close()
	var out []model.CustomCommand
	for rows.Next() {
		var c model.CustomCommand
		if err := rows.Scan(&c.Slot, &c.Command, &c.Response); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *settingsRepo) SaveCustomCommand(ctx context.Context, tx repository.Tx, c model.CustomCommand) error {
	const q = `
INSERT INTO custom_commands (slot, command, response)
VALUES ($1, $2, $3)
ON CONFLICT (slot) DO UPDATE SET command = EXCLUDED.command, response = EXCLUDED.response;`
	if _, err := execSQL(ctx, r.pool, tx, q, c.Slot, c.Command, c.Response); err != nil {
		return fmt.Errorf("save custom command: %w", err)
	}
	return nil
}
