package usecase

import (
	"context"
	"errors"
	"fmt"

	"telegram-shop-bot/internal/domain"
	"telegram-shop-bot/internal/domain/model"
	"telegram-shop-bot/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

// maxLineQuantity keeps quantities inside what the quantity keyboard can show.
const maxLineQuantity = 999

type CartUseCase interface {
	// Add increases the quantity of productID by qty and returns the new quantity.
	Add(ctx context.Context, chatID int64, productID string, qty int) (int, error)
	// SetQuantity stores an absolute quantity; qty <= 0 removes the line.
	SetQuantity(ctx context.Context, chatID int64, productID string, qty int) error
	Remove(ctx context.Context, chatID int64, productID string) error
	Clear(ctx context.Context, chatID int64) error
	// View prices every line against the live catalog and tiers.
	View(ctx context.Context, chatID int64) (*model.Cart, error)
}

var _ CartUseCase = (*cartUC)(nil)

type cartUC struct {
	carts  repository.CartRepository
	prices priceResolver
	log    *zerolog.Logger
}

func NewCartUseCase(
	carts repository.CartRepository,
	products repository.ProductRepository,
	tiers repository.PricingTierRepository,
	logger *zerolog.Logger,
) CartUseCase {
	l := logger.With().Str("component", "CartUseCase").Logger()
	return &cartUC{
		carts:  carts,
		prices: priceResolver{products: products, tiers: tiers},
		log:    &l,
	}
}

func (c *cartUC) Add(ctx context.Context, chatID int64, productID string, qty int) (int, error) {
	if qty < 1 {
		return 0, domain.ErrInvalidArgument
	}
	p, err := c.prices.products.FindByID(ctx, repository.NoTX, productID)
	if err != nil {
		return 0, err
	}
	if !p.Active {
		return 0, domain.ErrProductUnavailable
	}
	cur := 0
	item, err := c.carts.GetItem(ctx, repository.NoTX, chatID, productID)
	switch {
	case err == nil:
		cur = item.Quantity
	case !errors.Is(err, domain.ErrNotFound):
		return 0, err
	}
	next := cur + qty
	if next > maxLineQuantity {
		next = maxLineQuantity
	}
	if err := c.carts.SetQuantity(ctx, repository.NoTX, chatID, productID, next); err != nil {
		return 0, err
	}
	return next, nil
}

func (c *cartUC) SetQuantity(ctx context.Context, chatID int64, productID string, qty int) error {
	if qty <= 0 {
		return c.Remove(ctx, chatID, productID)
	}
	if qty > maxLineQuantity {
		qty = maxLineQuantity
	}
	return c.carts.SetQuantity(ctx, repository.NoTX, chatID, productID, qty)
}

func (c *cartUC) Remove(ctx context.Context, chatID int64, productID string) error {
	err := c.carts.RemoveItem(ctx, repository.NoTX, chatID, productID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}

func (c *cartUC) Clear(ctx context.Context, chatID int64) error {
	return c.carts.Clear(ctx, repository.NoTX, chatID)
}

func (c *cartUC) View(ctx context.Context, chatID int64) (*model.Cart, error) {
	return buildCart(ctx, repository.NoTX, chatID, c.carts, c.prices, c.log)
}

// buildCart reads the cart rows and prices them. Lines whose product vanished
// or was deactivated are skipped.
func buildCart(ctx context.Context, tx repository.Tx, chatID int64, carts repository.CartRepository, prices priceResolver, log *zerolog.Logger) (*model.Cart, error) {
	items, err := carts.ListItems(ctx, tx, chatID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	cart := &model.Cart{ChatID: chatID}
	for _, it := range items {
		p, err := prices.products.FindByID(ctx, tx, it.ProductID)
		if errors.Is(err, domain.ErrNotFound) || (err == nil && !p.Active) {
			log.Debug().Int64("chat_id", chatID).Str("product_id", it.ProductID).Msg("skipping unavailable cart line")
			continue
		}
		if err != nil {
			return nil, err
		}
		unit, err := prices.unitPrice(ctx, tx, p, it.Quantity)
		if err != nil {
			return nil, err
		}
		line := model.CartLine{Product: p, Quantity: it.Quantity, UnitPrice: unit, LineTotal: unit * int64(it.Quantity)}
		cart.Lines = append(cart.Lines, line)
		cart.Total += line.LineTotal
	}
	return cart, nil
}
