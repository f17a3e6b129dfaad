//go:build !integration

package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"telegram-shop-bot/internal/config"
	"telegram-shop-bot/internal/domain"
	"telegram-shop-bot/internal/domain/model"
	"telegram-shop-bot/internal/domain/ports/adapter"
	"telegram-shop-bot/internal/infra/session"
	"telegram-shop-bot/internal/usecase"

	"github.com/rs/zerolog"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// ---- Bot ----

type fakeBot struct {
	mu        sync.Mutex
	nextID    int
	sent      []adapter.SendMessageParams
	deleted   []int
	answers   []string
	ackErr    error
	visibleBy map[int]string
}

func newFakeBot() *fakeBot { return &fakeBot{visibleBy: make(map[int]string)} }

func (b *fakeBot) SendMessage(_ context.Context, p adapter.SendMessageParams) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.sent = append(b.sent, p)
	b.visibleBy[b.nextID] = p.Text
	return b.nextID, nil
}

func (b *fakeBot) SendPhoto(ctx context.Context, p adapter.SendMessageParams) (int, error) {
	return b.SendMessage(ctx, p)
}

func (b *fakeBot) DeleteMessage(_ context.Context, _ int64, id int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted = append(b.deleted, id)
	delete(b.visibleBy, id)
	return nil
}

func (b *fakeBot) AnswerCallback(_ context.Context, _ string, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ackErr != nil {
		return b.ackErr
	}
	b.answers = append(b.answers, text)
	return nil
}

func (b *fakeBot) last() adapter.SendMessageParams {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.sent) == 0 {
		return adapter.SendMessageParams{}
	}
	return b.sent[len(b.sent)-1]
}

func (b *fakeBot) sentCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sent)
}

func (b *fakeBot) visible() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.visibleBy)
}

// ---- Localizer ----

// keyLocalizer renders "key" or "key:arg1|arg2" so tests can assert on keys.
type keyLocalizer struct{}

func (keyLocalizer) T(_ context.Context, _ int64, key string, args ...interface{}) string {
	if len(args) == 0 {
		return key
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprint(a)
	}
	return key + ":" + strings.Join(parts, "|")
}

func (keyLocalizer) FormatPrice(_ context.Context, _ int64, minor int64) string {
	return fmt.Sprintf("$%d.%02d", minor/100, minor%100)
}

func (keyLocalizer) Language(context.Context, int64) string { return "en" }

// ---- Use cases ----
// Each fake embeds the interface; calling a method that is not overridden panics.

type fakeCatalog struct {
	usecase.CatalogUseCase
	products map[string]*model.Product
}

func (f *fakeCatalog) ListCategories(context.Context) ([]*model.Category, error) {
	return []*model.Category{{ID: "c1", Name: "Tea", Active: true}}, nil
}

func (f *fakeCatalog) ListProducts(_ context.Context, categoryID string, page int) (*usecase.ProductPage, error) {
	var out []*model.Product
	for _, p := range f.products {
		if p.CategoryID == categoryID {
			out = append(out, p)
		}
	}
	return &usecase.ProductPage{CategoryID: categoryID, Products: out, Page: page, TotalPages: 1}, nil
}

func (f *fakeCatalog) GetProduct(_ context.Context, id string) (*model.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (f *fakeCatalog) ProductRating(context.Context, string) (model.RatingSummary, error) {
	return model.RatingSummary{}, nil
}

func (f *fakeCatalog) InWishlist(context.Context, int64, string) (bool, error) { return false, nil }

type fakeCart struct {
	usecase.CartUseCase
	mu    sync.Mutex
	items map[string]int
}

func newFakeCart() *fakeCart { return &fakeCart{items: make(map[string]int)} }

func (f *fakeCart) Add(_ context.Context, _ int64, productID string, qty int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[productID] += qty
	return f.items[productID], nil
}

func (f *fakeCart) SetQuantity(_ context.Context, _ int64, productID string, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if qty <= 0 {
		delete(f.items, productID)
		return nil
	}
	f.items[productID] = qty
	return nil
}

func (f *fakeCart) View(_ context.Context, chatID int64) (*model.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &model.Cart{ChatID: chatID}
	for id, q := range f.items {
		p := &model.Product{ID: id, Name: id, PriceMinor: 100}
		c.Lines = append(c.Lines, model.CartLine{Product: p, Quantity: q, UnitPrice: 100, LineTotal: int64(q) * 100})
		c.Total += int64(q) * 100
	}
	return c, nil
}

type fakePricing struct{ usecase.PricingUseCase }

func (fakePricing) PriceFor(_ context.Context, _ string, qty int) (int64, error) {
	if qty >= 10 {
		return 80, nil
	}
	return 100, nil
}

// fakeCheckout completes each order number once.
type fakeCheckout struct {
	usecase.CheckoutUseCase
	mu        sync.Mutex
	orders    map[string]*model.Order
	completes int
}

func newFakeCheckout() *fakeCheckout { return &fakeCheckout{orders: make(map[string]*model.Order)} }

func (f *fakeCheckout) Start(context.Context, int64) (*usecase.CheckoutStart, error) {
	return &usecase.CheckoutStart{
		OrderNumber: "12345678",
		Cart:        &model.Cart{Total: 500},
		Options: []usecase.DeliveryOption{
			{Method: &model.DeliveryMethod{ID: "pickup", Name: "Pickup", Active: true}, Total: 500},
			{Method: &model.DeliveryMethod{ID: "courier", Name: "Courier", FeeMinor: 300, RequiresAddress: true, Active: true}, Total: 800},
		},
	}, nil
}

func (f *fakeCheckout) SelectDelivery(_ context.Context, _ int64, methodID, _ string) (*usecase.DeliveryStep, error) {
	switch methodID {
	case "pickup":
		return &usecase.DeliveryStep{Method: &model.DeliveryMethod{ID: methodID}}, nil
	case "courier":
		return &usecase.DeliveryStep{Method: &model.DeliveryMethod{ID: methodID, RequiresAddress: true}, NeedsInfo: true}, nil
	}
	return nil, domain.ErrMethodUnavailable
}

func (f *fakeCheckout) CaptureCustomerInfo(_ context.Context, _ int64, _, _, text string) (model.CustomerInfo, error) {
	return model.ParseCustomerInfo(text), nil
}

func (f *fakeCheckout) ConfirmInfo(_ context.Context, _ int64, methodID, _ string) error {
	if methodID != "courier" {
		return domain.ErrMethodUnavailable
	}
	return nil
}

func (f *fakeCheckout) ListPayments(context.Context) ([]*model.PaymentMethod, error) {
	return []*model.PaymentMethod{{ID: "card", Name: "Card transfer", Active: true}}, nil
}

func (f *fakeCheckout) Complete(_ context.Context, chatID int64, number string) (*usecase.CompletionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completes++
	if o, ok := f.orders[number]; ok {
		return &usecase.CompletionResult{Order: o, Duplicate: true}, nil
	}
	o := &model.Order{Number: number, ChatID: chatID, TotalMinor: 500, CreatedAt: time.Now()}
	f.orders[number] = o
	return &usecase.CompletionResult{Order: o}, nil
}

type fakeSettings struct {
	usecase.SettingsUseCase
	mu        sync.Mutex
	inquiries []string
	commands  map[string]string
}

func newFakeSettings() *fakeSettings { return &fakeSettings{commands: make(map[string]string)} }

func (f *fakeSettings) Touch(context.Context, int64, string) error { return nil }

func (f *fakeSettings) MatchCustomCommand(_ context.Context, text string) (*model.CustomCommand, error) {
	if resp, ok := f.commands[strings.ToLower(text)]; ok {
		return &model.CustomCommand{Command: text, Response: resp}, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeSettings) CreateInquiry(_ context.Context, chatID int64, username, text string) (*model.Inquiry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrInvalidArgument
	}
	f.inquiries = append(f.inquiries, text)
	return &model.Inquiry{ID: fmt.Sprint(len(f.inquiries)), ChatID: chatID, Username: username, Text: text}, nil
}

// ---- Rate limiter ----

type fakeLimiter struct {
	mu     sync.Mutex
	counts map[string]int
	err    error
}

func (f *fakeLimiter) Allow(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counts == nil {
		f.counts = make(map[string]int)
	}
	f.counts[key]++
	return f.counts[key] <= limit, nil
}

// ---- Fixture ----

type routerFixture struct {
	bot      *fakeBot
	captures *session.Captures
	cart     *fakeCart
	checkout *fakeCheckout
	settings *fakeSettings
	limiter  *fakeLimiter
	router   *Router
}

func newRouterFixture() *routerFixture {
	f := &routerFixture{
		bot:      newFakeBot(),
		captures: session.NewCaptures(nil),
		cart:     newFakeCart(),
		checkout: newFakeCheckout(),
		settings: newFakeSettings(),
		limiter:  &fakeLimiter{},
	}
	clock := session.NewFakeClock(time.Unix(0, 0))
	conv := session.NewLifecycle(f.bot, clock, session.LifecycleConfig{}, func(context.Context, int64) string { return "cleared" }, testLogger())
	catalog := &fakeCatalog{products: map[string]*model.Product{
		"p1": {ID: "p1", CategoryID: "c1", Name: "Green tea", PriceMinor: 100, Active: true},
		"p2": {ID: "p2", CategoryID: "c1", Name: "Black tea", PriceMinor: 100, ImageURL: "https://example.com/p2.jpg", Active: true},
	}}
	f.router = NewRouter(f.bot, conv, f.captures, keyLocalizer{}, catalog, f.cart, fakePricing{}, f.checkout, f.settings, f.limiter,
		RouterConfig{ShopName: "Tea & Co", RateLimit: config.RateLimitConfig{MessagesPerMinute: 100, CallbacksPerMinute: 100}},
		testLogger())
	return f
}

func press(data string) adapter.InboundEvent {
	return adapter.InboundEvent{Kind: adapter.EventCallback, ChatID: 7, CallbackID: "q-" + data, Data: data}
}

func say(text string) adapter.InboundEvent {
	kind := adapter.EventText
	if strings.HasPrefix(text, "/") {
		kind = adapter.EventCommand
	}
	return adapter.InboundEvent{Kind: kind, ChatID: 7, Username: "alice", Text: text}
}

var errAckRejected = errors.New("query is too old")
