package telegram

import (
	"context"
	"html"

	"telegram-shop-bot/internal/domain/ports/adapter"
)

const parseModeHTML = "HTML"

// keyboard accumulates inline button rows for one screen.
type keyboard struct {
	rows [][]adapter.Button
}

// row appends a row, skipping buttons whose payload could not be encoded.
func (k *keyboard) row(buttons ...adapter.Button) *keyboard {
	var out []adapter.Button
	for _, b := range buttons {
		if b.Data != "" || b.URL != "" {
			out = append(out, b)
		}
	}
	if len(out) > 0 {
		k.rows = append(k.rows, out)
	}
	return k
}

func (k *keyboard) markup() *adapter.ReplyMarkup {
	if len(k.rows) == 0 {
		return nil
	}
	return &adapter.ReplyMarkup{Buttons: k.rows}
}

// btn returns a callback button; an unencodable payload yields an empty Data,
// which row drops.
func btn(text string, a Action, args ...string) adapter.Button {
	data, err := EncodeToken(a, args...)
	if err != nil {
		return adapter.Button{Text: text}
	}
	return adapter.Button{Text: text, Data: data}
}

// screen is the output of a handler: one message to render via Replace.
type screen struct {
	text     string
	photoURL string
	kb       *keyboard
}

func (s screen) params() adapter.SendMessageParams {
	p := adapter.SendMessageParams{Text: s.text, PhotoURL: s.photoURL, ParseMode: parseModeHTML}
	if s.kb != nil {
		p.ReplyMarkup = s.kb.markup()
	}
	return p
}

func esc(s string) string { return html.EscapeString(s) }

func (r *Router) t(ctx context.Context, chatID int64, key string, args ...interface{}) string {
	return r.loc.T(ctx, chatID, key, args...)
}

func (r *Router) mainMenuButton(ctx context.Context, chatID int64) adapter.Button {
	return btn(r.t(ctx, chatID, "btn_main_menu"), ActMainMenu)
}

// mainMenu renders the root screen, prefixed by an optional notice line.
func (r *Router) mainMenu(ctx context.Context, chatID int64, notice string) (screen, error) {
	items := 0
	if cart, err := r.cart.View(ctx, chatID); err == nil {
		items = cart.ItemCount()
	} else {
		logFrom(ctx, r.log).Warn().Err(err).Msg("cart badge unavailable")
	}
	text := r.t(ctx, chatID, "main_menu")
	if notice != "" {
		text = notice + "\n\n" + text
	}
	kb := &keyboard{}
	kb.row(btn(r.t(ctx, chatID, "btn_catalog"), ActCategories))
	kb.row(btn(r.t(ctx, chatID, "btn_cart", items), ActViewCart), btn(r.t(ctx, chatID, "btn_wishlist"), ActWishlist))
	kb.row(btn(r.t(ctx, chatID, "btn_orders"), ActMyOrders), btn(r.t(ctx, chatID, "btn_settings"), ActSettings))
	kb.row(btn(r.t(ctx, chatID, "btn_support"), ActSupport))
	return screen{text: text, kb: kb}, nil
}

// errorScreen is the generic failure view with a way back to the menu.
func (r *Router) errorScreen(ctx context.Context, chatID int64) screen {
	kb := &keyboard{}
	kb.row(r.mainMenuButton(ctx, chatID))
	return screen{text: r.t(ctx, chatID, "error_generic"), kb: kb}
}
