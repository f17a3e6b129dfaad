package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"telegram-shop-bot/internal/domain"
	"telegram-shop-bot/internal/domain/model"
	"telegram-shop-bot/internal/domain/ports/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type SettingsOptions struct {
	DefaultLanguage string
	BaseCurrency    string
	Languages       []string
	Currencies      []string
	CommandSlots    int
}

// SettingsUseCase covers per-chat preferences, admin custom commands,
// support inquiries and order history.
type SettingsUseCase interface {
	// Preference returns the stored preference or the shop defaults.
	Preference(ctx context.Context, chatID int64) (*model.UserPreference, error)
	// Touch records the chat on /start without changing existing choices.
	Touch(ctx context.Context, chatID int64, username string) error
	SetLanguage(ctx context.Context, chatID int64, lang string) error
	SetCurrency(ctx context.Context, chatID int64, code string) error
	Languages() []string
	Currencies() []string

	// MatchCustomCommand checks text against the configured slots.
	MatchCustomCommand(ctx context.Context, text string) (*model.CustomCommand, error)
	SaveCustomCommand(ctx context.Context, cmd model.CustomCommand) error

	CreateInquiry(ctx context.Context, chatID int64, username, text string) (*model.Inquiry, error)
	ListOrders(ctx context.Context, chatID int64, limit int) ([]*model.Order, error)
}

var _ SettingsUseCase = (*settingsUC)(nil)

type settingsUC struct {
	prefs     repository.PreferenceRepository
	settings  repository.SettingsRepository
	inquiries repository.InquiryRepository
	orders    repository.OrderRepository
	opts      SettingsOptions
	log       *zerolog.Logger
}

func NewSettingsUseCase(
	prefs repository.PreferenceRepository,
	settings repository.SettingsRepository,
	inquiries repository.InquiryRepository,
	orders repository.OrderRepository,
	opts SettingsOptions,
	logger *zerolog.Logger,
) SettingsUseCase {
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = "en"
	}
	if opts.BaseCurrency == "" {
		opts.BaseCurrency = "USD"
	}
	if opts.CommandSlots <= 0 {
		opts.CommandSlots = 10
	}
	l := logger.With().Str("component", "SettingsUseCase").Logger()
	return &settingsUC{
		prefs:     prefs,
		settings:  settings,
		inquiries: inquiries,
		orders:    orders,
		opts:      opts,
		log:       &l,
	}
}

func (s *settingsUC) Preference(ctx context.Context, chatID int64) (*model.UserPreference, error) {
	p, err := s.prefs.Get(ctx, repository.NoTX, chatID)
	if errors.Is(err, domain.ErrNotFound) {
		return s.defaults(chatID), nil
	}
	if err != nil {
		return nil, err
	}
	if p.Language == "" {
		p.Language = s.opts.DefaultLanguage
	}
	if p.Currency == "" {
		p.Currency = s.opts.BaseCurrency
	}
	return p, nil
}

func (s *settingsUC) Touch(ctx context.Context, chatID int64, username string) error {
	p, err := s.prefs.Get(ctx, repository.NoTX, chatID)
	if errors.Is(err, domain.ErrNotFound) {
		p = s.defaults(chatID)
	} else if err != nil {
		return err
	} else if p.Username == username {
		return nil
	}
	p.Username = username
	p.UpdatedAt = time.Now()
	return s.prefs.Save(ctx, repository.NoTX, p)
}

func (s *settingsUC) SetLanguage(ctx context.Context, chatID int64, lang string) error {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if !contains(s.opts.Languages, lang) {
		return domain.ErrInvalidArgument
	}
	return s.update(ctx, chatID, func(p *model.UserPreference) { p.Language = lang })
}

func (s *settingsUC) SetCurrency(ctx context.Context, chatID int64, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code != s.opts.BaseCurrency && !contains(s.opts.Currencies, code) {
		return domain.ErrInvalidArgument
	}
	return s.update(ctx, chatID, func(p *model.UserPreference) { p.Currency = code })
}

func (s *settingsUC) Languages() []string  { return append([]string(nil), s.opts.Languages...) }
func (s *settingsUC) Currencies() []string { return append([]string(nil), s.opts.Currencies...) }

func (s *settingsUC) MatchCustomCommand(ctx context.Context, text string) (*model.CustomCommand, error) {
	cmds, err := s.settings.ListCustomCommands(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	for _, c := range cmds {
		if c.Slot < 1 || c.Slot > s.opts.CommandSlots {
			continue
		}
		if c.Matches(text) {
			c := c
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *settingsUC) SaveCustomCommand(ctx context.Context, cmd model.CustomCommand) error {
	if cmd.Slot < 1 || cmd.Slot > s.opts.CommandSlots {
		return domain.ErrInvalidArgument
	}
	cmd.Command = strings.TrimSpace(cmd.Command)
	return s.settings.SaveCustomCommand(ctx, repository.NoTX, cmd)
}

func (s *settingsUC) CreateInquiry(ctx context.Context, chatID int64, username, text string) (*model.Inquiry, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrInvalidArgument
	}
	inq := &model.Inquiry{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Username:  username,
		Text:      text,
		Status:    model.InquiryOpen,
		CreatedAt: time.Now(),
	}
	if err := s.inquiries.Save(ctx, repository.NoTX, inq); err != nil {
		return nil, err
	}
	s.log.Info().Int64("chat_id", chatID).Str("inquiry_id", inq.ID).Msg("inquiry created")
	return inq, nil
}

func (s *settingsUC) ListOrders(ctx context.Context, chatID int64, limit int) ([]*model.Order, error) {
	if limit <= 0 {
		limit = 10
	}
	orders, err := s.orders.ListByChat(ctx, repository.NoTX, chatID, limit)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return orders, err
}

func (s *settingsUC) update(ctx context.Context, chatID int64, mut func(*model.UserPreference)) error {
	p, err := s.Preference(ctx, chatID)
	if err != nil {
		return err
	}
	mut(p)
	p.UpdatedAt = time.Now()
	return s.prefs.Save(ctx, repository.NoTX, p)
}

func (s *settingsUC) defaults(chatID int64) *model.UserPreference {
	now := time.Now()
	return &model.UserPreference{
		ChatID:    chatID,
		Language:  s.opts.DefaultLanguage,
		Currency:  s.opts.BaseCurrency,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}
