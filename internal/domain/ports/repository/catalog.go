package repository

import (
	"context"

	"telegram-shop-bot/internal/domain/model"
)

// -----------------------------
// Catalog
// -----------------------------

type CategoryRepository interface {
	Save(ctx context.Context, tx Tx, c *model.Category) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Category, error)
	ListActive(ctx context.Context, tx Tx) ([]*model.Category, error)
}

type ProductRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Product) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Product, error)
	// ListByCategory returns one page of active products and the total active count.
	ListByCategory(ctx context.Context, tx Tx, categoryID string, offset, limit int) ([]*model.Product, int, error)
	CountActive(ctx context.Context, tx Tx) (int, error)
}

// PricingTierRepository stores quantity tiers. ListActiveByProduct must return
// tiers ordered by ascending MinQuantity.
type PricingTierRepository interface {
	Create(ctx context.Context, tx Tx, t *model.PricingTier) error
	Update(ctx context.Context, tx Tx, t *model.PricingTier) error
	Delete(ctx context.Context, tx Tx, id string) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.PricingTier, error)
	ListActiveByProduct(ctx context.Context, tx Tx, productID string) ([]*model.PricingTier, error)
}

type RatingRepository interface {
	// Upsert replaces any previous rating by the same chat for the product.
	Upsert(ctx context.Context, tx Tx, r *model.Rating) error
	Summary(ctx context.Context, tx Tx, productID string) (model.RatingSummary, error)
	ListByProduct(ctx context.Context, tx Tx, productID string, limit int) ([]*model.Rating, error)
}
