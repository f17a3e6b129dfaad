//go:build !integration

package usecase_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"telegram-shop-bot/internal/domain"
	"telegram-shop-bot/internal/domain/model"
	"telegram-shop-bot/internal/domain/ports/adapter"
	"telegram-shop-bot/internal/domain/ports/repository"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// ---- Tx manager ----

type MockTxManager struct{}

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

func (m *MockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}

// ---- Catalog ----

type MockCategoryRepo struct {
	mu   sync.Mutex
	data map[string]*model.Category
}

func NewMockCategoryRepo() *MockCategoryRepo {
	return &MockCategoryRepo{data: map[string]*model.Category{}}
}

func (m *MockCategoryRepo) Save(_ context.Context, _ repository.Tx, c *model.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.data[c.ID] = &cp
	return nil
}

func (m *MockCategoryRepo) FindByID(_ context.Context, _ repository.Tx, id string) (*model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MockCategoryRepo) ListActive(_ context.Context, _ repository.Tx) ([]*model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Category
	for _, c := range m.data {
		if c.Active {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

type MockProductRepo struct {
	mu   sync.Mutex
	data map[string]*model.Product
}

func NewMockProductRepo() *MockProductRepo {
	return &MockProductRepo{data: map[string]*model.Product{}}
}

func (m *MockProductRepo) Save(_ context.Context, _ repository.Tx, p *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.data[p.ID] = &cp
	return nil
}

func (m *MockProductRepo) FindByID(_ context.Context, _ repository.Tx, id string) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockProductRepo) ListByCategory(_ context.Context, _ repository.Tx, categoryID string, offset, limit int) ([]*model.Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*model.Product
	for _, p := range m.data {
		if p.CategoryID == categoryID && p.Active {
			cp := *p
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *MockProductRepo) CountActive(_ context.Context, _ repository.Tx) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.data {
		if p.Active {
			n++
		}
	}
	return n, nil
}

type MockTierRepo struct {
	mu   sync.Mutex
	data map[string]*model.PricingTier
}

func NewMockTierRepo() *MockTierRepo {
	return &MockTierRepo{data: map[string]*model.PricingTier{}}
}

func (m *MockTierRepo) Create(_ context.Context, _ repository.Tx, t *model.PricingTier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[t.ID]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *t
	m.data[t.ID] = &cp
	return nil
}

func (m *MockTierRepo) Update(_ context.Context, _ repository.Tx, t *model.PricingTier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[t.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *t
	m.data[t.ID] = &cp
	return nil
}

func (m *MockTierRepo) Delete(_ context.Context, _ repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.data, id)
	return nil
}

func (m *MockTierRepo) FindByID(_ context.Context, _ repository.Tx, id string) (*model.PricingTier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *MockTierRepo) ListActiveByProduct(_ context.Context, _ repository.Tx, productID string) ([]*model.PricingTier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.PricingTier
	for _, t := range m.data {
		if t.ProductID == productID && t.Active {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MinQuantity < out[j].MinQuantity })
	return out, nil
}

type MockRatingRepo struct {
	mu   sync.Mutex
	data map[string]map[int64]int // product -> chat -> stars
}

func NewMockRatingRepo() *MockRatingRepo {
	return &MockRatingRepo{data: map[string]map[int64]int{}}
}

func (m *MockRatingRepo) Upsert(_ context.Context, _ repository.Tx, r *model.Rating) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[r.ProductID] == nil {
		m.data[r.ProductID] = map[int64]int{}
	}
	m.data[r.ProductID][r.ChatID] = r.Stars
	return nil
}

func (m *MockRatingRepo) Summary(_ context.Context, _ repository.Tx, productID string) (model.RatingSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum model.RatingSummary
	total := 0
	for _, s := range m.data[productID] {
		total += s
		sum.Count++
	}
	if sum.Count > 0 {
		sum.Average = float64(total) / float64(sum.Count)
	}
	return sum, nil
}

func (m *MockRatingRepo) ListByProduct(_ context.Context, _ repository.Tx, productID string, _ int) ([]*model.Rating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Rating
	for chat, s := range m.data[productID] {
		out = append(out, &model.Rating{ProductID: productID, ChatID: chat, Stars: s})
	}
	return out, nil
}

// ---- Cart & wishlist ----

type MockCartRepo struct {
	mu   sync.Mutex
	data map[int64]map[string]int
	// ClearFunc overrides Clear when set.
	ClearFunc func(chatID int64) error
}

func NewMockCartRepo() *MockCartRepo {
	return &MockCartRepo{data: map[int64]map[string]int{}}
}

func (m *MockCartRepo) ListItems(_ context.Context, _ repository.Tx, chatID int64) ([]*model.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.CartItem
	for pid, q := range m.data[chatID] {
		out = append(out, &model.CartItem{ChatID: chatID, ProductID: pid, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (m *MockCartRepo) GetItem(_ context.Context, _ repository.Tx, chatID int64, productID string) (*model.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.data[chatID][productID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &model.CartItem{ChatID: chatID, ProductID: productID, Quantity: q}, nil
}

func (m *MockCartRepo) SetQuantity(_ context.Context, _ repository.Tx, chatID int64, productID string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[chatID] == nil {
		m.data[chatID] = map[string]int{}
	}
	m.data[chatID][productID] = qty
	return nil
}

func (m *MockCartRepo) RemoveItem(_ context.Context, _ repository.Tx, chatID int64, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[chatID][productID]; !ok {
		return domain.ErrNotFound
	}
	delete(m.data[chatID], productID)
	return nil
}

func (m *MockCartRepo) Clear(_ context.Context, _ repository.Tx, chatID int64) error {
	if m.ClearFunc != nil {
		return m.ClearFunc(chatID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, chatID)
	return nil
}

func (m *MockCartRepo) Quantity(chatID int64, productID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[chatID][productID]
}

type MockWishlistRepo struct {
	mu   sync.Mutex
	data map[int64]map[string]time.Time
}

func NewMockWishlistRepo() *MockWishlistRepo {
	return &MockWishlistRepo{data: map[int64]map[string]time.Time{}}
}

func (m *MockWishlistRepo) List(_ context.Context, _ repository.Tx, chatID int64) ([]*model.WishlistItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.WishlistItem
	for pid, at := range m.data[chatID] {
		out = append(out, &model.WishlistItem{ChatID: chatID, ProductID: pid, AddedAt: at})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (m *MockWishlistRepo) Exists(_ context.Context, _ repository.Tx, chatID int64, productID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[chatID][productID]
	return ok, nil
}

func (m *MockWishlistRepo) Add(_ context.Context, _ repository.Tx, chatID int64, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[chatID] == nil {
		m.data[chatID] = map[string]time.Time{}
	}
	m.data[chatID][productID] = time.Now()
	return nil
}

func (m *MockWishlistRepo) Remove(_ context.Context, _ repository.Tx, chatID int64, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data[chatID], productID)
	return nil
}

// ---- Checkout ----

type MockDeliveryRepo struct {
	mu   sync.Mutex
	data map[string]*model.DeliveryMethod
}

func NewMockDeliveryRepo() *MockDeliveryRepo {
	return &MockDeliveryRepo{data: map[string]*model.DeliveryMethod{}}
}

func (m *MockDeliveryRepo) Save(_ context.Context, _ repository.Tx, d *model.DeliveryMethod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	m.data[d.ID] = &cp
	return nil
}

func (m *MockDeliveryRepo) FindByID(_ context.Context, _ repository.Tx, id string) (*model.DeliveryMethod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *MockDeliveryRepo) ListActive(_ context.Context, _ repository.Tx) ([]*model.DeliveryMethod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.DeliveryMethod
	for _, d := range m.data {
		if d.Active {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (m *MockDeliveryRepo) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
}

type MockPaymentRepo struct {
	mu   sync.Mutex
	data map[string]*model.PaymentMethod
}

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{data: map[string]*model.PaymentMethod{}}
}

func (m *MockPaymentRepo) Save(_ context.Context, _ repository.Tx, p *model.PaymentMethod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.data[p.ID] = &cp
	return nil
}

func (m *MockPaymentRepo) FindByID(_ context.Context, _ repository.Tx, id string) (*model.PaymentMethod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPaymentRepo) ListActive(_ context.Context, _ repository.Tx) ([]*model.PaymentMethod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.PaymentMethod
	for _, p := range m.data {
		if p.Active {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

type draftKey struct {
	chat   int64
	number string
}

type MockDraftRepo struct {
	mu   sync.Mutex
	data map[draftKey]*model.CheckoutDraft
}

func NewMockDraftRepo() *MockDraftRepo {
	return &MockDraftRepo{data: map[draftKey]*model.CheckoutDraft{}}
}

func (m *MockDraftRepo) Save(_ context.Context, _ repository.Tx, d *model.CheckoutDraft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	m.data[draftKey{d.ChatID, d.OrderNumber}] = &cp
	return nil
}

func (m *MockDraftRepo) Find(_ context.Context, _ repository.Tx, chatID int64, number string) (*model.CheckoutDraft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[draftKey{chatID, number}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *MockDraftRepo) Delete(_ context.Context, _ repository.Tx, chatID int64, number string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, draftKey{chatID, number})
	return nil
}

func (m *MockDraftRepo) DeleteOlderThan(_ context.Context, _ repository.Tx, before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, d := range m.data {
		if d.CreatedAt.Before(before) {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

type MockOrderRepo struct {
	mu   sync.Mutex
	data []*model.Order
}

func NewMockOrderRepo() *MockOrderRepo { return &MockOrderRepo{} }

func (m *MockOrderRepo) Create(_ context.Context, _ repository.Tx, o *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.data {
		if e.ChatID == o.ChatID && e.Number == o.Number {
			return domain.ErrAlreadyExists
		}
	}
	cp := *o
	m.data = append(m.data, &cp)
	return nil
}

func (m *MockOrderRepo) FindByNumber(_ context.Context, _ repository.Tx, chatID int64, number string) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.data {
		if e.ChatID == chatID && e.Number == number {
			cp := *e
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockOrderRepo) ListByChat(_ context.Context, _ repository.Tx, chatID int64, limit int) ([]*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Order
	for i := len(m.data) - 1; i >= 0 && len(out) < limit; i-- {
		if m.data[i].ChatID == chatID {
			cp := *m.data[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockOrderRepo) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

// ---- Settings ----

type MockPreferenceRepo struct {
	mu   sync.Mutex
	data map[int64]*model.UserPreference
}

func NewMockPreferenceRepo() *MockPreferenceRepo {
	return &MockPreferenceRepo{data: map[int64]*model.UserPreference{}}
}

func (m *MockPreferenceRepo) Get(_ context.Context, _ repository.Tx, chatID int64) (*model.UserPreference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.data[chatID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPreferenceRepo) Save(_ context.Context, _ repository.Tx, p *model.UserPreference) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.data[p.ChatID] = &cp
	return nil
}

type MockInquiryRepo struct {
	mu    sync.Mutex
	Saved []*model.Inquiry
}

func (m *MockInquiryRepo) Save(_ context.Context, _ repository.Tx, i *model.Inquiry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Saved = append(m.Saved, i)
	return nil
}

type MockSettingsRepo struct {
	mu   sync.Mutex
	cmds map[int]model.CustomCommand
}

func NewMockSettingsRepo() *MockSettingsRepo {
	return &MockSettingsRepo{cmds: map[int]model.CustomCommand{}}
}

func (m *MockSettingsRepo) ListCustomCommands(_ context.Context, _ repository.Tx) ([]model.CustomCommand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.CustomCommand
	for _, c := range m.cmds {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out, nil
}

func (m *MockSettingsRepo) SaveCustomCommand(_ context.Context, _ repository.Tx, c model.CustomCommand) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cmds[c.Slot] = c
	return nil
}

// ---- Conversation ----

type MockAppender struct {
	mu       sync.Mutex
	Sent     []adapter.SendMessageParams
	SendFunc func(chatID int64) error
}

func (m *MockAppender) Append(_ context.Context, chatID int64, p adapter.SendMessageParams) (int, error) {
	if m.SendFunc != nil {
		if err := m.SendFunc(chatID); err != nil {
			return 0, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, p)
	return len(m.Sent), nil
}

func (m *MockAppender) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// ---- fixtures ----

type shopFixture struct {
	categories *MockCategoryRepo
	products   *MockProductRepo
	tiers      *MockTierRepo
	ratings    *MockRatingRepo
	carts      *MockCartRepo
	wishlist   *MockWishlistRepo
	delivery   *MockDeliveryRepo
	payments   *MockPaymentRepo
	drafts     *MockDraftRepo
	orders     *MockOrderRepo
	tx         *MockTxManager
}

// newShopFixture seeds one category, two products (p1 with tiers [1-9]->1000,
// [10-]->800, base 1200; p2 at 500 without tiers), a courier method needing an
// address, a pickup method, and one payment method.
func newShopFixture() *shopFixture {
	ctx := context.Background()
	f := &shopFixture{
		categories: NewMockCategoryRepo(),
		products:   NewMockProductRepo(),
		tiers:      NewMockTierRepo(),
		ratings:    NewMockRatingRepo(),
		carts:      NewMockCartRepo(),
		wishlist:   NewMockWishlistRepo(),
		delivery:   NewMockDeliveryRepo(),
		payments:   NewMockPaymentRepo(),
		drafts:     NewMockDraftRepo(),
		orders:     NewMockOrderRepo(),
		tx:         NewMockTxManager(),
	}
	_ = f.categories.Save(ctx, nil, &model.Category{ID: "c1", Name: "Tea", Active: true})
	p1, _ := model.NewProduct("p1", "c1", "Green tea", "", 1200, "")
	p2, _ := model.NewProduct("p2", "c1", "Mug", "", 500, "https://img.example/mug.jpg")
	_ = f.products.Save(ctx, nil, p1)
	_ = f.products.Save(ctx, nil, p2)
	t1, _ := model.NewPricingTier("t1", "p1", 1, model.IntPtr(9), 1000)
	t2, _ := model.NewPricingTier("t2", "p1", 10, nil, 800)
	_ = f.tiers.Create(ctx, nil, t1)
	_ = f.tiers.Create(ctx, nil, t2)
	courier, _ := model.NewDeliveryMethod("courier", "Courier", 300, true)
	pickup, _ := model.NewDeliveryMethod("pickup", "Pickup", 0, false)
	pickup.SortOrder = 1
	_ = f.delivery.Save(ctx, nil, courier)
	_ = f.delivery.Save(ctx, nil, pickup)
	card, _ := model.NewPaymentMethod("card", "Card transfer", "Send to 0000")
	_ = f.payments.Save(ctx, nil, card)
	return f
}
