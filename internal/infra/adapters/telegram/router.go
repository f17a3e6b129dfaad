package telegram

import (
	"context"
	"errors"
	"strings"
	"time"

	"telegram-shop-bot/internal/config"
	"telegram-shop-bot/internal/domain"
	"telegram-shop-bot/internal/domain/ports/adapter"
	"telegram-shop-bot/internal/infra/logging"
	"telegram-shop-bot/internal/infra/metrics"
	red "telegram-shop-bot/internal/infra/redis"
	"telegram-shop-bot/internal/infra/session"
	"telegram-shop-bot/internal/usecase"

	"github.com/rs/zerolog"
)

// RateLimiter is satisfied by redis.RateLimiter.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type RouterConfig struct {
	ShopName  string
	RateLimit config.RateLimitConfig
	// OrdersShown bounds the "my orders" screen.
	OrdersShown int
}

type callbackHandler func(ctx context.Context, ev adapter.InboundEvent, tok Token) error

// Router turns inbound events into screens. It is meant to run inside a
// session.Dispatcher, which serializes events per chat.
type Router struct {
	bot      adapter.TelegramBotAdapter
	conv     *session.Lifecycle
	captures *session.Captures
	loc      adapter.Localizer

	catalog  usecase.CatalogUseCase
	cart     usecase.CartUseCase
	pricing  usecase.PricingUseCase
	checkout usecase.CheckoutUseCase
	settings usecase.SettingsUseCase

	limiter   RateLimiter
	cfg       RouterConfig
	log       *zerolog.Logger
	callbacks map[Action]callbackHandler
}

func NewRouter(
	bot adapter.TelegramBotAdapter,
	conv *session.Lifecycle,
	captures *session.Captures,
	loc adapter.Localizer,
	catalog usecase.CatalogUseCase,
	cart usecase.CartUseCase,
	pricing usecase.PricingUseCase,
	checkout usecase.CheckoutUseCase,
	settings usecase.SettingsUseCase,
	limiter RateLimiter,
	cfg RouterConfig,
	logger *zerolog.Logger,
) *Router {
	if cfg.OrdersShown <= 0 {
		cfg.OrdersShown = 10
	}
	if cfg.ShopName == "" {
		cfg.ShopName = "our shop"
	}
	l := logger.With().Str("component", "TelegramRouter").Logger()
	r := &Router{
		bot:      bot,
		conv:     conv,
		captures: captures,
		loc:      loc,
		catalog:  catalog,
		cart:     cart,
		pricing:  pricing,
		checkout: checkout,
		settings: settings,
		limiter:  limiter,
		cfg:      cfg,
		log:      &l,
	}
	r.callbacks = r.callbackRoutes()
	return r
}

func logFrom(ctx context.Context, base *zerolog.Logger) *zerolog.Logger {
	return logging.With(ctx, base)
}

// Handle is the session.Handler for every inbound event. Failures end in the
// generic error screen for this chat only.
func (r *Router) Handle(ctx context.Context, ev adapter.InboundEvent) {
	ctx = logging.WithChatID(ctx, ev.ChatID)
	if ev.TraceID != "" {
		ctx = logging.WithTraceID(ctx, ev.TraceID)
	}
	r.conv.Open(ev.ChatID)

	var err error
	switch ev.Kind {
	case adapter.EventCallback:
		err = r.handleCallback(ctx, ev)
	case adapter.EventCommand:
		err = r.handleCommand(ctx, ev)
	case adapter.EventText:
		err = r.handleText(ctx, ev)
	default:
		return
	}
	if err != nil {
		r.fail(ctx, ev, err)
	}
}

func (r *Router) fail(ctx context.Context, ev adapter.InboundEvent, cause error) {
	metrics.IncHandlerError(string(ev.Kind))
	logFrom(ctx, r.log).Error().Err(cause).Str("kind", string(ev.Kind)).Msg("handler failed")
	if _, err := r.conv.Replace(ctx, ev.ChatID, func(ctx context.Context) (adapter.SendMessageParams, error) {
		return r.errorScreen(ctx, ev.ChatID).params(), nil
	}); err != nil {
		logFrom(ctx, r.log).Warn().Err(err).Msg("error screen not delivered")
	}
}

// show replaces the chat's visible message with the screen built by build.
func (r *Router) show(ctx context.Context, chatID int64, build func(ctx context.Context) (screen, error)) error {
	_, err := r.conv.Replace(ctx, chatID, func(ctx context.Context) (adapter.SendMessageParams, error) {
		s, err := build(ctx)
		if err != nil {
			return adapter.SendMessageParams{}, err
		}
		return s.params(), nil
	})
	return err
}

func (r *Router) showMainMenu(ctx context.Context, chatID int64, notice string) error {
	return r.show(ctx, chatID, func(ctx context.Context) (screen, error) {
		return r.mainMenu(ctx, chatID, notice)
	})
}

// allow applies the per-chat window; limiter errors fail open.
func (r *Router) allow(ctx context.Context, chatID int64, kind string, limit int) bool {
	if r.limiter == nil || limit <= 0 {
		return true
	}
	ok, err := r.limiter.Allow(ctx, red.ChatEventKey(chatID, kind), limit, time.Minute)
	if err != nil {
		logFrom(ctx, r.log).Warn().Err(err).Msg("rate limiter unavailable")
		return true
	}
	if !ok {
		metrics.IncRateLimitTriggered()
	}
	return ok
}

func (r *Router) handleCallback(ctx context.Context, ev adapter.InboundEvent) error {
	metrics.IncTelegramUpdate("callback", "")
	if !r.allow(ctx, ev.ChatID, "callback", r.cfg.RateLimit.CallbacksPerMinute) {
		_ = r.bot.AnswerCallback(ctx, ev.CallbackID, r.t(ctx, ev.ChatID, "rate_limited"))
		return nil
	}
	// A failed ack means the query is stale; the press is dropped.
	if err := r.bot.AnswerCallback(ctx, ev.CallbackID, ""); err != nil {
		logFrom(ctx, r.log).Debug().Err(err).Msg("callback ack failed; dropping")
		return nil
	}

	tok, err := DecodeToken(ev.Data)
	if err != nil {
		metrics.IncCallback("unknown")
		logFrom(ctx, r.log).Debug().Str("data", ev.Data).Msg("unknown callback payload")
		return r.showMainMenu(ctx, ev.ChatID, "")
	}
	h, ok := r.callbacks[tok.Action]
	if !ok {
		metrics.IncCallback("unknown")
		return r.showMainMenu(ctx, ev.ChatID, "")
	}
	metrics.IncCallback(string(tok.Action))
	ctx = logging.WithRoute(ctx, string(tok.Action))
	return h(ctx, ev, tok)
}

func (r *Router) handleCommand(ctx context.Context, ev adapter.InboundEvent) error {
	name := commandName(ev.Text)
	metrics.IncTelegramUpdate("command", name)
	if !r.allow(ctx, ev.ChatID, "message", r.cfg.RateLimit.MessagesPerMinute) {
		logFrom(ctx, r.log).Debug().Msg("command rate limited")
		return nil
	}
	ctx = logging.WithRoute(ctx, "/"+name)
	h, ok := r.commandRoutes()[name]
	if !ok {
		return r.showMainMenu(ctx, ev.ChatID, "")
	}
	return h(ctx, ev)
}

func (r *Router) handleText(ctx context.Context, ev adapter.InboundEvent) error {
	metrics.IncTelegramUpdate("text", "")
	if !r.allow(ctx, ev.ChatID, "message", r.cfg.RateLimit.MessagesPerMinute) {
		logFrom(ctx, r.log).Debug().Msg("text rate limited")
		return nil
	}
	return r.routeText(ctx, ev)
}

// staleRef reports errors that mean a button points at something gone.
func staleRef(err error) bool {
	return errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrProductUnavailable) ||
		errors.Is(err, domain.ErrMethodUnavailable)
}

// commandName extracts "start" from "/start@ShopBot payload".
func commandName(text string) string {
	f := strings.Fields(text)
	if len(f) == 0 {
		return ""
	}
	name := strings.TrimPrefix(f[0], "/")
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(name)
}
