package repository

import (
	"context"

	"telegram-shop-bot/internal/domain/model"
)

// -----------------------------
// Cart & Wishlist
// -----------------------------

type CartRepository interface {
	ListItems(ctx context.Context, tx Tx, chatID int64) ([]*model.CartItem, error)
	GetItem(ctx context.Context, tx Tx, chatID int64, productID string) (*model.CartItem, error)
	// SetQuantity inserts or overwrites the line for (chat, product).
	SetQuantity(ctx context.Context, tx Tx, chatID int64, productID string, qty int) error
	RemoveItem(ctx context.Context, tx Tx, chatID int64, productID string) error
	Clear(ctx context.Context, tx Tx, chatID int64) error
}

type WishlistRepository interface {
	List(ctx context.Context, tx Tx, chatID int64) ([]*model.WishlistItem, error)
	Exists(ctx context.Context, tx Tx, chatID int64, productID string) (bool, error)
	Add(ctx context.Context, tx Tx, chatID int64, productID string) error
	Remove(ctx context.Context, tx Tx, chatID int64, productID string) error
}
