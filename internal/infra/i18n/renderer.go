package i18n

import (
	"context"
	"strings"

	"telegram-shop-bot/internal/domain/model"
	"telegram-shop-bot/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PreferenceReader resolves a chat's language and currency.
type PreferenceReader interface {
	Preference(ctx context.Context, chatID int64) (*model.UserPreference, error)
}

// Renderer implements adapter.Localizer on top of a Bundle, the chat's stored
// preference and an exchange-rate source.
type Renderer struct {
	bundle       *Bundle
	prefs        PreferenceReader
	rates        adapter.RateProvider
	baseCurrency string
	defaultLang  string
	logger       *zerolog.Logger
}

var _ adapter.Localizer = (*Renderer)(nil)

func NewRenderer(bundle *Bundle, prefs PreferenceReader, rates adapter.RateProvider, baseCurrency, defaultLang string, logger *zerolog.Logger) *Renderer {
	l := logger.With().Str("component", "Renderer").Logger()
	return &Renderer{
		bundle:       bundle,
		prefs:        prefs,
		rates:        rates,
		baseCurrency: strings.ToUpper(baseCurrency),
		defaultLang:  defaultLang,
		logger:       &l,
	}
}

func (r *Renderer) T(ctx context.Context, chatID int64, key string, args ...interface{}) string {
	lang, _ := r.preference(ctx, chatID)
	return r.bundle.T(lang, key, args...)
}

func (r *Renderer) Language(ctx context.Context, chatID int64) string {
	lang, _ := r.preference(ctx, chatID)
	return lang
}

// FormatPrice converts amountMinor from the base currency into the chat's
// currency. If rates are unavailable the base amount is shown instead.
func (r *Renderer) FormatPrice(ctx context.Context, chatID int64, amountMinor int64) string {
	lang, code := r.preference(ctx, chatID)
	amount := float64(amountMinor) / 100
	if code != r.baseCurrency && r.rates != nil {
		rates, err := r.rates.Rates(ctx, r.baseCurrency)
		if rate, ok := rates[code]; err == nil && ok && rate > 0 {
			return FormatAmount(lang, amount*rate, code)
		}
		if err != nil {
			r.logger.Debug().Err(err).Str("currency", code).Msg("rates unavailable; showing base currency")
		}
		code = r.baseCurrency
	}
	return FormatAmount(lang, amount, code)
}

func (r *Renderer) preference(ctx context.Context, chatID int64) (lang, currency string) {
	lang, currency = r.defaultLang, r.baseCurrency
	if r.prefs == nil {
		return lang, currency
	}
	p, err := r.prefs.Preference(ctx, chatID)
	if err != nil {
		r.logger.Debug().Err(err).Int64("chat_id", chatID).Msg("preference lookup failed; using defaults")
		return lang, currency
	}
	if p.Language != "" && r.bundle.Supports(p.Language) {
		lang = p.Language
	}
	if p.Currency != "" {
		currency = strings.ToUpper(p.Currency)
	}
	return lang, currency
}

// FormatAmount prints amount with two decimals using lang's number conventions.
func FormatAmount(lang string, amount float64, code string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	return message.NewPrinter(tag).Sprintf("%.2f %s", amount, code)
}
