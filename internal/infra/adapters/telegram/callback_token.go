package telegram

import (
	"fmt"
	"strconv"
	"strings"

	"telegram-shop-bot/internal/domain"
)

// Callback payloads are ASCII, "_"-delimited: literal action segments followed
// by positional arguments. Telegram caps callback data at 64 bytes.
const (
	tokenSep      = "_"
	maxTokenBytes = 64
)

type Action string

const (
	ActMainMenu     Action = "main_menu"
	ActCategories   Action = "categories"
	ActViewCart     Action = "view_cart"
	ActWishlist     Action = "wishlist"
	ActCheckout     Action = "checkout"
	ActClearCart    Action = "clear_cart"
	ActSettings     Action = "settings"
	ActSupport      Action = "support"
	ActLanguageMenu Action = "language_menu"
	ActCurrencyMenu Action = "currency_menu"
	ActMyOrders     Action = "my_orders"
	ActNoop         Action = "noop"

	ActCategory    Action = "category"     // categoryID, page
	ActProduct     Action = "product"      // productID
	ActSelectQty   Action = "select_qty"   // productID
	ActAdd         Action = "add"          // productID, qty
	ActCartPlus    Action = "cart_plus"    // productID, new qty
	ActCartMinus   Action = "cart_minus"   // productID, new qty
	ActCartRemove  Action = "cart_remove"  // productID
	ActWish        Action = "wish"         // productID
	ActRate        Action = "rate"         // productID, stars
	ActSetLanguage Action = "set_lang"     // language code
	ActSetCurrency Action = "set_cur"      // currency code
	ActDelivery    Action = "delivery"     // deliveryMethodID, orderNumber
	ActConfirmInfo Action = "confirm_info" // deliveryMethodID, orderNumber
	ActPayment     Action = "payment"      // paymentMethodID, orderNumber
	ActPaid        Action = "paid"         // orderNumber
)

type tokenRoute struct {
	action  Action
	literal []string
	arity   int
}

func route(a Action, arity int) tokenRoute {
	return tokenRoute{action: a, literal: strings.Split(string(a), tokenSep), arity: arity}
}

// tokenRoutes is tried top to bottom and the first match wins. A route matches
// only when the literal segments are equal and the argument count is exact, so
// "cart_plus_p1_2" can never be read as "cart" plus arguments.
var tokenRoutes = []tokenRoute{
	route(ActMainMenu, 0),
	route(ActCategories, 0),
	route(ActViewCart, 0),
	route(ActWishlist, 0),
	route(ActCheckout, 0),
	route(ActClearCart, 0),
	route(ActSettings, 0),
	route(ActSupport, 0),
	route(ActLanguageMenu, 0),
	route(ActCurrencyMenu, 0),
	route(ActMyOrders, 0),
	route(ActNoop, 0),

	route(ActSelectQty, 1),
	route(ActCartPlus, 2),
	route(ActCartMinus, 2),
	route(ActCartRemove, 1),
	route(ActConfirmInfo, 2),
	route(ActSetLanguage, 1),
	route(ActSetCurrency, 1),
	route(ActCategory, 2),
	route(ActProduct, 1),
	route(ActAdd, 2),
	route(ActWish, 1),
	route(ActRate, 2),
	route(ActDelivery, 2),
	route(ActPayment, 2),
	route(ActPaid, 1),
}

// Token is a decoded callback payload.
type Token struct {
	Action Action
	Args   []string
}

func (t Token) Arg(i int) string {
	if i < 0 || i >= len(t.Args) {
		return ""
	}
	return t.Args[i]
}

// IntArg parses argument i as a base-10 integer.
func (t Token) IntArg(i int) (int, error) {
	n, err := strconv.Atoi(t.Arg(i))
	if err != nil {
		return 0, fmt.Errorf("%w: argument %d of %s", domain.ErrMalformedToken, i, t.Action)
	}
	return n, nil
}

func findRoute(a Action) (tokenRoute, bool) {
	for _, r := range tokenRoutes {
		if r.action == a {
			return r, true
		}
	}
	return tokenRoute{}, false
}

// EncodeToken builds the payload for action with positional args.
func EncodeToken(a Action, args ...string) (string, error) {
	r, ok := findRoute(a)
	if !ok || len(args) != r.arity {
		return "", fmt.Errorf("%w: %s/%d", domain.ErrMalformedToken, a, len(args))
	}
	for _, arg := range args {
		if arg == "" || strings.Contains(arg, tokenSep) {
			return "", fmt.Errorf("%w: bad argument %q", domain.ErrMalformedToken, arg)
		}
	}
	parts := append(append([]string{}, r.literal...), args...)
	s := strings.Join(parts, tokenSep)
	if len(s) > maxTokenBytes {
		return "", domain.ErrTokenTooLong
	}
	return s, nil
}

// DecodeToken resolves a payload against the ordered route table.
func DecodeToken(data string) (Token, error) {
	if data == "" || len(data) > maxTokenBytes {
		return Token{}, domain.ErrMalformedToken
	}
	parts := strings.Split(data, tokenSep)
	for _, r := range tokenRoutes {
		if r.matches(parts) {
			args := parts[len(r.literal):]
			return Token{Action: r.action, Args: append([]string(nil), args...)}, nil
		}
	}
	return Token{}, domain.ErrMalformedToken
}

func (r tokenRoute) matches(parts []string) bool {
	if len(parts) != len(r.literal)+r.arity {
		return false
	}
	for i, lit := range r.literal {
		if parts[i] != lit {
			return false
		}
	}
	for _, arg := range parts[len(r.literal):] {
		if arg == "" {
			return false
		}
	}
	return true
}
