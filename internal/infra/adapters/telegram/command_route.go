package telegram

import (
	"context"
	"errors"
	"strings"

	"telegram-shop-bot/internal/domain"
	"telegram-shop-bot/internal/domain/ports/adapter"
	"telegram-shop-bot/internal/infra/logging"
	"telegram-shop-bot/internal/infra/session"
)

type commandHandler func(ctx context.Context, ev adapter.InboundEvent) error

// commandRoutes maps command names (without the slash) to handlers.
func (r *Router) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"start":    r.handleStartCommand,
		"menu":     r.handleMenuCommand,
		"catalog":  r.handleCatalogCommand,
		"cart":     r.handleCartCommand,
		"orders":   r.handleOrdersCommand,
		"settings": r.handleSettingsCommand,
		"support":  r.handleSupportCommand,
	}
}

// handleStartCommand registers the chat and shows the welcome menu. Any
// pending capture is abandoned.
func (r *Router) handleStartCommand(ctx context.Context, ev adapter.InboundEvent) error {
	r.captures.Cancel(ev.ChatID)
	if err := r.settings.Touch(ctx, ev.ChatID, ev.Username); err != nil {
		logFrom(ctx, r.log).Warn().Err(err).Msg("failed to record chat")
	}
	return r.showMainMenu(ctx, ev.ChatID, r.t(ctx, ev.ChatID, "welcome", esc(r.cfg.ShopName)))
}

func (r *Router) handleMenuCommand(ctx context.Context, ev adapter.InboundEvent) error {
	return r.showMainMenu(ctx, ev.ChatID, "")
}

func (r *Router) handleCatalogCommand(ctx context.Context, ev adapter.InboundEvent) error {
	return r.show(ctx, ev.ChatID, func(ctx context.Context) (screen, error) { return r.categoriesScreen(ctx, ev.ChatID) })
}

func (r *Router) handleCartCommand(ctx context.Context, ev adapter.InboundEvent) error {
	return r.show(ctx, ev.ChatID, func(ctx context.Context) (screen, error) { return r.cartScreen(ctx, ev.ChatID, "") })
}

func (r *Router) handleOrdersCommand(ctx context.Context, ev adapter.InboundEvent) error {
	return r.show(ctx, ev.ChatID, func(ctx context.Context) (screen, error) { return r.ordersScreen(ctx, ev.ChatID) })
}

func (r *Router) handleSettingsCommand(ctx context.Context, ev adapter.InboundEvent) error {
	return r.show(ctx, ev.ChatID, func(ctx context.Context) (screen, error) { return r.settingsScreen(ctx, ev.ChatID, "") })
}

func (r *Router) handleSupportCommand(ctx context.Context, ev adapter.InboundEvent) error {
	return r.startSupport(ctx, ev.ChatID)
}

// routeText handles free text in order: a pending capture, the menu keywords,
// admin custom commands, and finally a support inquiry.
func (r *Router) routeText(ctx context.Context, ev adapter.InboundEvent) error {
	if c, ok := r.captures.Take(ev.ChatID); ok {
		ctx = logging.WithRoute(ctx, "capture:"+c.Kind.String())
		return r.consumeCapture(ctx, ev, c)
	}

	text := strings.TrimSpace(ev.Text)
	switch strings.ToLower(text) {
	case "menu", "main menu":
		return r.showMainMenu(ctx, ev.ChatID, "")
	}

	cmd, err := r.settings.MatchCustomCommand(ctx, text)
	switch {
	case err == nil:
		return r.show(ctx, ev.ChatID, func(ctx context.Context) (screen, error) {
			kb := &keyboard{}
			kb.row(r.mainMenuButton(ctx, ev.ChatID))
			return screen{text: esc(cmd.Response), kb: kb}, nil
		})
	case !errors.Is(err, domain.ErrNotFound):
		return err
	}

	if _, err := r.settings.CreateInquiry(ctx, ev.ChatID, ev.Username, text); err != nil {
		return err
	}
	return r.showMainMenu(ctx, ev.ChatID, r.t(ctx, ev.ChatID, "inquiry_ack"))
}

func (r *Router) consumeCapture(ctx context.Context, ev adapter.InboundEvent, c session.Capture) error {
	switch c.Kind {
	case session.CaptureCustomerInfo:
		return r.captureCustomerInfo(ctx, ev, c)
	case session.CaptureSupportIssue:
		if _, err := r.settings.CreateInquiry(ctx, ev.ChatID, ev.Username, ev.Text); err != nil {
			return err
		}
		return r.showMainMenu(ctx, ev.ChatID, r.t(ctx, ev.ChatID, "support_received"))
	default:
		return r.showMainMenu(ctx, ev.ChatID, "")
	}
}

func (r *Router) startSupport(ctx context.Context, chatID int64) error {
	r.captures.Register(chatID, session.Capture{Kind: session.CaptureSupportIssue})
	return r.show(ctx, chatID, func(ctx context.Context) (screen, error) {
		kb := &keyboard{}
		kb.row(r.mainMenuButton(ctx, chatID))
		return screen{text: r.t(ctx, chatID, "support_prompt"), kb: kb}, nil
	})
}
