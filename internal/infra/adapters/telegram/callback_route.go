package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"telegram-shop-bot/internal/domain"
	"telegram-shop-bot/internal/domain/model"
	"telegram-shop-bot/internal/domain/ports/adapter"

	"github.com/dustin/go-humanize"
)

// quantityChoices are offered on the quantity keyboard.
var quantityChoices = []int{1, 2, 3, 5, 10, 20}

const maxCartQuantity = 999

func (r *Router) callbackRoutes() map[Action]callbackHandler {
	return map[Action]callbackHandler{
		ActMainMenu:     r.mainMenuCBRoute,
		ActNoop:         func(context.Context, adapter.InboundEvent, Token) error { return nil },
		ActCategories:   r.categoriesCBRoute,
		ActCategory:     r.categoryCBRoute,
		ActProduct:      r.productCBRoute,
		ActSelectQty:    r.selectQtyCBRoute,
		ActAdd:          r.addCBRoute,
		ActViewCart:     r.viewCartCBRoute,
		ActCartPlus:     r.cartSetCBRoute,
		ActCartMinus:    r.cartSetCBRoute,
		ActCartRemove:   r.cartRemoveCBRoute,
		ActClearCart:    r.clearCartCBRoute,
		ActWishlist:     r.wishlistCBRoute,
		ActWish:         r.wishCBRoute,
		ActRate:         r.rateCBRoute,
		ActSettings:     r.settingsCBRoute,
		ActLanguageMenu: r.languageMenuCBRoute,
		ActCurrencyMenu: r.currencyMenuCBRoute,
		ActSetLanguage:  r.setLanguageCBRoute,
		ActSetCurrency:  r.setCurrencyCBRoute,
		ActMyOrders:     r.myOrdersCBRoute,
		ActSupport:      r.supportCBRoute,
		ActCheckout:     r.checkoutCBRoute,
		ActDelivery:     r.deliveryCBRoute,
		ActConfirmInfo:  r.confirmInfoCBRoute,
		ActPayment:      r.paymentCBRoute,
		ActPaid:         r.paidCBRoute,
	}
}

func (r *Router) mainMenuCBRoute(ctx context.Context, ev adapter.InboundEvent, _ Token) error {
	return r.showMainMenu(ctx, ev.ChatID, "")
}

// unavailable sends the user back to the main menu after a stale product press.
func (r *Router) unavailable(ctx context.Context, chatID int64) error {
	return r.showMainMenu(ctx, chatID, r.t(ctx, chatID, "unavailable"))
}

// -----------------------------
// Catalog
// -----------------------------

func (r *Router) categoriesCBRoute(ctx context.Context, ev adapter.InboundEvent, _ Token) error {
	return r.show(ctx, ev.ChatID, func(ctx context.Context) (screen, error) { return r.categoriesScreen(ctx, ev.ChatID) })
}

func (r *Router) categoriesScreen(ctx context.Context, chatID int64) (screen, error) {
	cats, err := r.catalog.ListCategories(ctx)
	if err != nil {
		return screen{}, err
	}
	kb := &keyboard{}
	for _, c := range cats {
		kb.row(btn(c.Name, ActCategory, c.ID, "0"))
	}
	kb.row(r.mainMenuButton(ctx, chatID))
	text := r.t(ctx, chatID, "categories_title")
	if len(cats) == 0 {
		text = r.t(ctx, chatID, "categories_empty")
	}
	return screen{text: text, kb: kb}, nil
}

func (r *Router) categoryCBRoute(ctx context.Context, ev adapter.InboundEvent, tok Token) error {
	page, err := tok.IntArg(1)
	if err != nil {
		page = 0
	}
	categoryID := tok.Arg(0)
	return r.show(ctx, ev.ChatID, func(ctx context.Context) (screen, error) {
		cat, err := r.catalog.ListProducts(ctx, categoryID, page)
		if err != nil {
			return screen{}, err
		}
		kb := &keyboard{}
		for _, p := range cat.Products {
			kb.row(btn(r.t(ctx, ev.ChatID, "product_button", p.Name, r.loc.FormatPrice(ctx, ev.ChatID, p.PriceMinor)), ActProduct, p.ID))
		}
		var nav []adapter.Button
		if cat.HasPrev() {
			nav = append(nav, btn(r.t(ctx, ev.ChatID, "btn_prev"), ActCategory, categoryID, strconv.Itoa(cat.Page-1)))
		}
		if cat.HasNext() {
			nav = append(nav, btn(r.t(ctx, ev.ChatID, "btn_next"), ActCategory, categoryID, strconv.Itoa(cat.Page+1)))
		}
		kb.row(nav...)
		kb.row(btn(r.t(ctx, ev.ChatID, "btn_back"), ActCategories), r.mainMenuButton(ctx, ev.ChatID))

		text := r.t(ctx, ev.ChatID, "category_empty")
		if len(cat.Products) > 0 {
			text = r.t(ctx, ev.ChatID, "category_title", esc(r.categoryName(ctx, categoryID)), cat.Page+1, cat.TotalPages)
		}
		return screen{text: text, kb: kb}, nil
	})
}

func (r *Router) categoryName(ctx context.Context, id string) string {
	cats, err := r.catalog.ListCategories(ctx)
	if err != nil {
		return ""
	}
	for _, c := range cats {
		if c.ID == id {
			return c.Name
		}
	}
	return ""
}

func (r *Router) productCBRoute(ctx context.Context, ev adapter.InboundEvent, tok Token) error {
	return r.showProduct(ctx, ev.ChatID, tok.Arg(0), "")
}

// showProduct renders the product card. Products with an image are shown as a
// photo followed by a details message; both stay tracked until the next screen.
func (r *Router) showProduct(ctx context.Context, chatID int64, productID, notice string) error {
	p, err := r.catalog.GetProduct(ctx, productID)
	if staleRef(err) {
		return r.unavailable(ctx, chatID)
	}
	if err != nil {
		return err
	}
	details, err := r.productDetails(ctx, chatID, p, notice)
	if err != nil {
		return err
	}
	if !p.HasImage() {
		return r.show(ctx, chatID, func(context.Context) (screen, error) { return details, nil })
	}
	if err := r.show(ctx, chatID, func(context.Context) (screen, error) {
		return screen{text: "<b>" + esc(p.Name) + "</b>", photoURL: p.ImageURL}, nil
	}); err != nil {
		return err
	}
	_, err = r.conv.Append(ctx, chatID, details.params())
	return err
}

func (r *Router) productDetails(ctx context.Context, chatID int64, p *model.Product, notice string) (screen, error) {
	rating := r.t(ctx, chatID, "rating_none")
	if s, err := r.catalog.ProductRating(ctx, p.ID); err == nil && s.Count > 0 {
		rating = r.t(ctx, chatID, "rating_value", s.Average, s.Count)
	}
	saved, err := r.catalog.InWishlist(ctx, chatID, p.ID)
	if err != nil {
		return screen{}, err
	}
	text := r.t(ctx, chatID, "product_details", esc(p.Name), esc(p.Description), r.loc.FormatPrice(ctx, chatID, p.PriceMinor), rating)
	if notice != "" {
		text = notice + "\n\n" + text
	}

	wishKey := "btn_wish_add"
	if saved {
		wishKey = "btn_wish_remove"
	}
	kb := &keyboard{}
	kb.row(btn(r.t(ctx, chatID, "btn_add_to_cart"), ActSelectQty, p.ID), btn(r.t(ctx, chatID, wishKey), ActWish, p.ID))
	stars := make([]adapter.Button, 0, 5)
	for i := 1; i <= 5; i++ {
		stars = append(stars, btn(r.t(ctx, chatID, "btn_star", i), ActRate, p.ID, strconv.Itoa(i)))
	}
	kb.row(stars...)
	kb.row(btn(r.t(ctx, chatID, "btn_back"), ActCategory, p.CategoryID, "0"), r.mainMenuButton(ctx, chatID))
	return screen{text: text, kb: kb}, nil
}

func (r *Router) selectQtyCBRoute(ctx context.Context, ev adapter.InboundEvent, tok Token) error {
	p, err := r.catalog.GetProduct(ctx, tok.Arg(0))
	if staleRef(err) {
		return r.unavailable(ctx, ev.ChatID)
	}
	if err != nil {
		return err
	}
	return r.show(ctx, ev.ChatID, func(ctx context.Context) (screen, error) {
		kb := &keyboard{}
		var row []adapter.Button
		for _, q := range quantityChoices {
			unit, err := r.pricing.PriceFor(ctx, p.ID, q)
			if err != nil {
				return screen{}, err
			}
			row = append(row, btn(r.t(ctx, ev.ChatID, "qty_option", q, r.loc.FormatPrice(ctx, ev.ChatID, unit)), ActAdd, p.ID, strconv.Itoa(q)))
			if len(row) == 2 {
				kb.row(row...)
				row = nil
			}
		}
		kb.row(row...)
		kb.row(btn(r.t(ctx, ev.ChatID, "btn_back"), ActProduct, p.ID), r.mainMenuButton(ctx, ev.ChatID))
		return screen{text: r.t(ctx, ev.ChatID, "select_quantity", esc(p.Name)), kb: kb}, nil
	})
}

func (r *Router) addCBRoute(ctx context.Context, ev adapter.InboundEvent, tok Token) error {
	qty, err := tok.IntArg(1)
	if err != nil || qty < 1 {
		return r.showMainMenu(ctx, ev.ChatID, "")
	}
	p, err := r.catalog.GetProduct(ctx, tok.Arg(0))
	if staleRef(err) {
		return r.unavailable(ctx, ev.ChatID)
	}
	if err != nil {
		return err
	}
	total, err := r.cart.Add(ctx, ev.ChatID, p.ID, qty)
	if staleRef(err) {
		return r.unavailable(ctx, ev.ChatID)
	}
	if err != nil {
		return err
	}
	return r.show(ctx, ev.ChatID, func(ctx context.Context) (screen, error) {
		kb := &keyboard{}
		kb.row(btn(r.t(ctx, ev.ChatID, "btn_view_cart"), ActViewCart))
		kb.row(btn(r.t(ctx, ev.ChatID, "btn_continue_shopping"), ActCategory, p.CategoryID, "0"))
		kb.row(r.mainMenuButton(ctx, ev.ChatID))
		return screen{text: r.t(ctx, ev.ChatID, "added_to_cart", qty, esc(p.Name), total), kb: kb}, nil
	})
}

// -----------------------------
// Cart
// -----------------------------

func (r *Router) viewCartCBRoute(ctx context.Context, ev adapter.InboundEvent, _ Token) error {
	return r.show(ctx, ev.ChatID, func(ctx context.Context) (screen, error) { return r.cartScreen(ctx, ev.ChatID, "") })
}

func (r *Router) cartScreen(ctx context.Context, chatID int64, notice string) (screen, error) {
	cart, err := r.cart.View(ctx, chatID)
	if err != nil {
		return screen{}, err
	}
	kb := &keyboard{}
	var b strings.Builder
	if notice != "" {
		b.WriteString(notice + "\n\n")
	}
	if cart.IsEmpty() {
		b.WriteString(r.t(ctx, chatID, "cart_empty"))
		kb.row(btn(r.t(ctx, chatID, "btn_catalog"), ActCategories))
		kb.row(r.mainMenuButton(ctx, chatID))
		return screen{text: b.String(), kb: kb}, nil
	}

	b.WriteString(r.t(ctx, chatID, "cart_title") + "\n\n")
	for _, l := range cart.Lines {
		b.WriteString(r.t(ctx, chatID, "cart_line", esc(l.Product.Name), l.Quantity,
			r.loc.FormatPrice(ctx, chatID, l.UnitPrice), r.loc.FormatPrice(ctx, chatID, l.LineTotal)))
		b.WriteString("\n\n")

		id := l.Product.ID
		plus := l.Quantity + 1
		if plus > maxCartQuantity {
			plus = maxCartQuantity
		}
		kb.row(
			btn("➖", ActCartMinus, id, strconv.Itoa(l.Quantity-1)),
			btn(fmt.Sprintf("%s × %d", l.Product.Name, l.Quantity), ActProduct, id),
			btn("➕", ActCartPlus, id, strconv.Itoa(plus)),
			btn("✖️", ActCartRemove, id),
		)
	}
	b.WriteString(r.t(ctx, chatID, "cart_total", r.loc.FormatPrice(ctx, chatID, cart.Total)))
	kb.row(btn(r.t(ctx, chatID, "btn_checkout"), ActCheckout))
	kb.row(btn(r.t(ctx, chatID, "btn_clear_cart"), ActClearCart), r.mainMenuButton(ctx, chatID))
	return screen{text: b.String(), kb: kb}, nil
}

// cartSetCBRoute applies the absolute quantity carried by the button, so a
// double tap lands on the same quantity instead of adding twice.
func (r *Router) cartSetCBRoute(ctx context.Context, ev adapter.InboundEvent, tok Token) error {
	qty, err := tok.IntArg(1)
	if err != nil {
		return r.showMainMenu(ctx, ev.ChatID, "")
	}
	if qty > maxCartQuantity {
		qty = maxCartQuantity
	}
	err = r.cart.SetQuantity(ctx, ev.ChatID, tok.Arg(0), qty)
	if err != nil && !staleRef(err) {
		return err
	}
	return r.show(ctx, ev.ChatID, func(ctx context.Context) (screen, error) { return r.cartScreen(ctx, ev.ChatID, "") })
}

func (r *Router) cartRemoveCBRoute(ctx context.Context, ev adapter.InboundEvent, tok Token) error {
	if err := r.cart.Remove(ctx, ev.ChatID, tok.Arg(0)); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return r.show(ctx, ev.ChatID, func(ctx context.Context) (screen, error) { return r.cartScreen(ctx, ev.ChatID, "") })
}

func (r *Router) clearCartCBRoute(ctx context.Context, ev adapter.InboundEvent, _ Token) error {
	if err := r.cart.Clear(ctx, ev.ChatID); err != nil {
		return err
	}
	return r.show(ctx, ev.ChatID, func(ctx context.Context) (screen, error) {
		return r.cartScreen(ctx, ev.ChatID, r.t(ctx, ev.ChatID, "cart_cleared"))
	})
}

// -----------------------------
// Wishlist & ratings
// -----------------------------

func (r *Router) wishlistCBRoute(ctx context.Context, ev adapter.InboundEvent, _ Token) error {
	return r.show(ctx, ev.ChatID, func(ctx context.Context) (screen, error) {
		items, err := r.catalog.ListWishlist(ctx, ev.ChatID)
		if err != nil {
			return screen{}, err
		}
		kb := &keyboard{}
		for _, p := range items {
			kb.row(btn(p.Name, ActProduct, p.ID))
		}
		kb.row(r.mainMenuButton(ctx, ev.ChatID))
		text := r.t(ctx, ev.ChatID, "wishlist_title")
		if len(items) == 0 {
			text = r.t(ctx, ev.ChatID, "wishlist_empty")
		}
		return screen{text: text, kb: kb}, nil
	})
}

func (r *Router) wishCBRoute(ctx context.Context, ev adapter.InboundEvent, tok Token) error {
	saved, err := r.catalog.ToggleWishlist(ctx, ev.ChatID, tok.Arg(0))
	if staleRef(err) {
		return r.unavailable(ctx, ev.ChatID)
	}
	if err != nil {
		return err
	}
	notice := r.t(ctx, ev.ChatID, "wish_removed")
	if saved {
		notice = r.t(ctx, ev.ChatID, "wish_added")
	}
	return r.showProduct(ctx, ev.ChatID, tok.Arg(0), notice)
}

func (r *Router) rateCBRoute(ctx context.Context, ev adapter.InboundEvent, tok Token) error {
	stars, err := tok.IntArg(1)
	if err != nil {
		return r.showProduct(ctx, ev.ChatID, tok.Arg(0), "")
	}
	err = r.catalog.RateProduct(ctx, ev.ChatID, tok.Arg(0), stars)
	switch {
	case staleRef(err):
		return r.unavailable(ctx, ev.ChatID)
	case errors.Is(err, domain.ErrInvalidArgument):
		return r.showProduct(ctx, ev.ChatID, tok.Arg(0), "")
	case err != nil:
		return err
	}
	return r.showProduct(ctx, ev.ChatID, tok.Arg(0), r.t(ctx, ev.ChatID, "rated"))
}

// -----------------------------
// Settings, orders & support
// -----------------------------

func (r *Router) settingsCBRoute(ctx context.Context, ev adapter.InboundEvent, _ Token) error {
	return r.show(ctx, ev.ChatID, func(ctx context.Context) (screen, error) { return r.settingsScreen(ctx, ev.ChatID, "") })
}

func (r *Router) settingsScreen(ctx context.Context, chatID int64, notice string) (screen, error) {
	pref, err := r.settings.Preference(ctx, chatID)
	if err != nil {
		return screen{}, err
	}
	text := r.t(ctx, chatID, "settings_title", r.t(ctx, chatID, "lang_"+pref.Language), pref.Currency)
	if notice != "" {
		text = notice + "\n\n" + text
	}
	kb := &keyboard{}
	kb.row(btn(r.t(ctx, chatID, "btn_language"), ActLanguageMenu), btn(r.t(ctx, chatID, "btn_currency"), ActCurrencyMenu))
	kb.row(r.mainMenuButton(ctx, chatID))
	return screen{text: text, kb: kb}, nil
}

func (r *Router) languageMenuCBRoute(ctx context.Context, ev adapter.InboundEvent, _ Token) error {
	return r.show(ctx, ev.ChatID, func(ctx context.Context) (screen, error) {
		kb := &keyboard{}
		for _, code := range r.settings.Languages() {
			kb.row(btn(r.t(ctx, ev.ChatID, "lang_"+code), ActSetLanguage, code))
		}
		kb.row(btn(r.t(ctx, ev.ChatID, "btn_back"), ActSettings))
		return screen{text: r.t(ctx, ev.ChatID, "choose_language"), kb: kb}, nil
	})
}

func (r *Router) currencyMenuCBRoute(ctx context.Context, ev adapter.InboundEvent, _ Token) error {
	return r.show(ctx, ev.ChatID, func(ctx context.Context) (screen, error) {
		kb := &keyboard{}
		var row []adapter.Button
		for _, code := range r.settings.Currencies() {
			row = append(row, btn(code, ActSetCurrency, code))
			if len(row) == 3 {
				kb.row(row...)
				row = nil
			}
		}
		kb.row(row...)
		kb.row(btn(r.t(ctx, ev.ChatID, "btn_back"), ActSettings))
		return screen{text: r.t(ctx, ev.ChatID, "choose_currency"), kb: kb}, nil
	})
}

func (r *Router) setLanguageCBRoute(ctx context.Context, ev adapter.InboundEvent, tok Token) error {
	err := r.settings.SetLanguage(ctx, ev.ChatID, tok.Arg(0))
	if err != nil && !errors.Is(err, domain.ErrInvalidArgument) {
		return err
	}
	notice := ""
	if err == nil {
		notice = r.t(ctx, ev.ChatID, "language_set")
	}
	return r.show(ctx, ev.ChatID, func(ctx context.Context) (screen, error) { return r.settingsScreen(ctx, ev.ChatID, notice) })
}

func (r *Router) setCurrencyCBRoute(ctx context.Context, ev adapter.InboundEvent, tok Token) error {
	err := r.settings.SetCurrency(ctx, ev.ChatID, tok.Arg(0))
	if err != nil && !errors.Is(err, domain.ErrInvalidArgument) {
		return err
	}
	notice := ""
	if err == nil {
		notice = r.t(ctx, ev.ChatID, "currency_set")
	}
	return r.show(ctx, ev.ChatID, func(ctx context.Context) (screen, error) { return r.settingsScreen(ctx, ev.ChatID, notice) })
}

func (r *Router) myOrdersCBRoute(ctx context.Context, ev adapter.InboundEvent, _ Token) error {
	return r.show(ctx, ev.ChatID, func(ctx context.Context) (screen, error) { return r.ordersScreen(ctx, ev.ChatID) })
}

func (r *Router) ordersScreen(ctx context.Context, chatID int64) (screen, error) {
	orders, err := r.settings.ListOrders(ctx, chatID, r.cfg.OrdersShown)
	if err != nil {
		return screen{}, err
	}
	kb := &keyboard{}
	kb.row(r.mainMenuButton(ctx, chatID))
	if len(orders) == 0 {
		return screen{text: r.t(ctx, chatID, "orders_empty"), kb: kb}, nil
	}
	lang := r.loc.Language(ctx, chatID)
	var b strings.Builder
	b.WriteString(r.t(ctx, chatID, "orders_title"))
	for _, o := range orders {
		when := o.CreatedAt.Format("2006-01-02")
		if lang == "en" {
			when = humanize.Time(o.CreatedAt)
		}
		b.WriteString("\n")
		b.WriteString(r.t(ctx, chatID, "order_line", o.Number, when,
			r.t(ctx, chatID, "status_"+string(o.Status)), r.loc.FormatPrice(ctx, chatID, o.TotalMinor)))
	}
	return screen{text: b.String(), kb: kb}, nil
}

func (r *Router) supportCBRoute(ctx context.Context, ev adapter.InboundEvent, _ Token) error {
	return r.startSupport(ctx, ev.ChatID)
}
