package repository

import (
	"context"

	"telegram-shop-bot/internal/domain/model"
)

// -----------------------------
// Users, support & settings
// -----------------------------

type PreferenceRepository interface {
	Get(ctx context.Context, tx Tx, chatID int64) (*model.UserPreference, error)
	Save(ctx context.Context, tx Tx, p *model.UserPreference) error
}

type InquiryRepository interface {
	Save(ctx context.Context, tx Tx, i *model.Inquiry) error
}

type SettingsRepository interface {
	// ListCustomCommands returns configured slots ordered by slot number.
	ListCustomCommands(ctx context.Context, tx Tx) ([]model.CustomCommand, error)
	SaveCustomCommand(ctx context.Context, tx Tx, c model.CustomCommand) error
}
