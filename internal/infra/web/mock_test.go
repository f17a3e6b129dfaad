//go:build !integration

package web

import (
	"context"

	"telegram-shop-bot/internal/domain/model"
	"telegram-shop-bot/internal/usecase"

	"github.com/rs/zerolog"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

type mockPricingUC struct {
	usecase.PricingUseCase
	ListTiersFunc  func(ctx context.Context, productID string) ([]*model.PricingTier, error)
	CreateTierFunc func(ctx context.Context, productID string, minQty int, maxQty *int, price int64) (*model.PricingTier, error)
	UpdateTierFunc func(ctx context.Context, id string, minQty int, maxQty *int, price int64) (*model.PricingTier, error)
	DeleteTierFunc func(ctx context.Context, id string) error
}

func (m *mockPricingUC) ListTiers(ctx context.Context, productID string) ([]*model.PricingTier, error) {
	return m.ListTiersFunc(ctx, productID)
}

func (m *mockPricingUC) CreateTier(ctx context.Context, productID string, minQty int, maxQty *int, price int64) (*model.PricingTier, error) {
	return m.CreateTierFunc(ctx, productID, minQty, maxQty, price)
}

func (m *mockPricingUC) UpdateTier(ctx context.Context, id string, minQty int, maxQty *int, price int64) (*model.PricingTier, error) {
	return m.UpdateTierFunc(ctx, id, minQty, maxQty, price)
}

func (m *mockPricingUC) DeleteTier(ctx context.Context, id string) error {
	return m.DeleteTierFunc(ctx, id)
}

type mockBroadcastUC struct {
	BroadcastMessageFunc func(ctx context.Context, chatIDs []int64, text string) (int, error)
}

func (m *mockBroadcastUC) BroadcastMessage(ctx context.Context, chatIDs []int64, text string) (int, error) {
	return m.BroadcastMessageFunc(ctx, chatIDs, text)
}

type mockSettingsUC struct {
	usecase.SettingsUseCase
	SaveCustomCommandFunc func(ctx context.Context, cmd model.CustomCommand) error
}

func (m *mockSettingsUC) SaveCustomCommand(ctx context.Context, cmd model.CustomCommand) error {
	return m.SaveCustomCommandFunc(ctx, cmd)
}

type readyFlag bool

func (r readyFlag) Ready() bool { return bool(r) }
