package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"telegram-shop-bot/internal/domain"
	"telegram-shop-bot/internal/domain/model"
	"telegram-shop-bot/internal/domain/ports/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// PricingUseCase resolves tiered unit prices and manages the tiers themselves.
type PricingUseCase interface {
	// PriceFor returns the unit price for qty of productID: the first active tier
	// containing qty, else the product's base price.
	PriceFor(ctx context.Context, productID string, qty int) (int64, error)

	ListTiers(ctx context.Context, productID string) ([]*model.PricingTier, error)

	// CreateTier rejects ranges overlapping an existing active tier with domain.ErrTierOverlap.
	CreateTier(ctx context.Context, productID string, minQty int, maxQty *int, unitPriceMinor int64) (*model.PricingTier, error)

	// UpdateTier replaces the range and price of an existing tier, with the same overlap rule.
	UpdateTier(ctx context.Context, id string, minQty int, maxQty *int, unitPriceMinor int64) (*model.PricingTier, error)

	DeleteTier(ctx context.Context, id string) error
}

var _ PricingUseCase = (*pricingUC)(nil)

// priceResolver is shared by the cart and checkout flows so a cart is priced the
// same way everywhere, inside or outside a transaction.
type priceResolver struct {
	products repository.ProductRepository
	tiers    repository.PricingTierRepository
}

func (r priceResolver) unitPrice(ctx context.Context, tx repository.Tx, p *model.Product, qty int) (int64, error) {
	tiers, err := r.tiers.ListActiveByProduct(ctx, tx, p.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return 0, fmt.Errorf("list tiers: %w", err)
	}
	return model.ResolveUnitPrice(tiers, p.PriceMinor, qty), nil
}

type pricingUC struct {
	priceResolver
	tx  repository.TransactionManager
	log *zerolog.Logger
}

func NewPricingUseCase(
	products repository.ProductRepository,
	tiers repository.PricingTierRepository,
	tx repository.TransactionManager,
	logger *zerolog.Logger,
) PricingUseCase {
	l := logger.With().Str("component", "PricingUseCase").Logger()
	return &pricingUC{
		priceResolver: priceResolver{products: products, tiers: tiers},
		tx:            tx,
		log:           &l,
	}
}

func (p *pricingUC) PriceFor(ctx context.Context, productID string, qty int) (int64, error) {
	if qty < 1 {
		return 0, domain.ErrInvalidArgument
	}
	prod, err := p.products.FindByID(ctx, repository.NoTX, productID)
	if err != nil {
		return 0, err
	}
	return p.unitPrice(ctx, repository.NoTX, prod, qty)
}

func (p *pricingUC) ListTiers(ctx context.Context, productID string) ([]*model.PricingTier, error) {
	if _, err := p.products.FindByID(ctx, repository.NoTX, productID); err != nil {
		return nil, err
	}
	return p.tiers.ListActiveByProduct(ctx, repository.NoTX, productID)
}

func (p *pricingUC) CreateTier(ctx context.Context, productID string, minQty int, maxQty *int, unitPriceMinor int64) (*model.PricingTier, error) {
	tier, err := model.NewPricingTier(uuid.NewString(), productID, minQty, maxQty, unitPriceMinor)
	if err != nil {
		return nil, err
	}
	err = p.tx.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable}, func(ctx context.Context, tx repository.Tx) error {
		if _, err := p.products.FindByID(ctx, tx, productID); err != nil {
			return err
		}
		if err := p.checkOverlap(ctx, tx, tier); err != nil {
			return err
		}
		return p.tiers.Create(ctx, tx, tier)
	})
	if err != nil {
		return nil, err
	}
	p.log.Info().Str("product_id", productID).Str("tier_id", tier.ID).Msg("pricing tier created")
	return tier, nil
}

func (p *pricingUC) UpdateTier(ctx context.Context, id string, minQty int, maxQty *int, unitPriceMinor int64) (*model.PricingTier, error) {
	var out *model.PricingTier
	err := p.tx.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable}, func(ctx context.Context, tx repository.Tx) error {
		cur, err := p.tiers.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		next, err := model.NewPricingTier(cur.ID, cur.ProductID, minQty, maxQty, unitPriceMinor)
		if err != nil {
			return err
		}
		next.CreatedAt = cur.CreatedAt
		next.UpdatedAt = time.Now()
		if err := p.checkOverlap(ctx, tx, next); err != nil {
			return err
		}
		if err := p.tiers.Update(ctx, tx, next); err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (p *pricingUC) DeleteTier(ctx context.Context, id string) error {
	if _, err := p.tiers.FindByID(ctx, repository.NoTX, id); err != nil {
		return err
	}
	return p.tiers.Delete(ctx, repository.NoTX, id)
}

func (p *pricingUC) checkOverlap(ctx context.Context, tx repository.Tx, t *model.PricingTier) error {
	existing, err := p.tiers.ListActiveByProduct(ctx, tx, t.ProductID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	for _, e := range existing {
		if e.ID != t.ID && e.Overlaps(t) {
			return domain.ErrTierOverlap
		}
	}
	return nil
}
