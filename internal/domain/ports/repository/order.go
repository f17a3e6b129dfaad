package repository

import (
	"context"
	"time"

	"telegram-shop-bot/internal/domain/model"
)

// -----------------------------
// Checkout & Orders
// -----------------------------

type DeliveryMethodRepository interface {
	Save(ctx context.Context, tx Tx, m *model.DeliveryMethod) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.DeliveryMethod, error)
	ListActive(ctx context.Context, tx Tx) ([]*model.DeliveryMethod, error)
}

type PaymentMethodRepository interface {
	Save(ctx context.Context, tx Tx, m *model.PaymentMethod) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.PaymentMethod, error)
	ListActive(ctx context.Context, tx Tx) ([]*model.PaymentMethod, error)
}

type CheckoutDraftRepository interface {
	Save(ctx context.Context, tx Tx, d *model.CheckoutDraft) error
	Find(ctx context.Context, tx Tx, chatID int64, orderNumber string) (*model.CheckoutDraft, error)
	Delete(ctx context.Context, tx Tx, chatID int64, orderNumber string) error
	// DeleteOlderThan removes abandoned drafts and returns how many were removed.
	DeleteOlderThan(ctx context.Context, tx Tx, before time.Time) (int, error)
}

type OrderRepository interface {
	// Create returns domain.ErrAlreadyExists when (chat, number) was already used.
	Create(ctx context.Context, tx Tx, o *model.Order) error
	FindByNumber(ctx context.Context, tx Tx, chatID int64, number string) (*model.Order, error)
	ListByChat(ctx context.Context, tx Tx, chatID int64, limit int) ([]*model.Order, error)
}
