package usecase

import (
	"context"
	"errors"

	"telegram-shop-bot/internal/domain"
	"telegram-shop-bot/internal/domain/model"
	"telegram-shop-bot/internal/domain/ports/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ProductPage is one page of a category listing. Page is zero-based.
type ProductPage struct {
	CategoryID string
	Products   []*model.Product
	Page       int
	TotalPages int
}

func (p *ProductPage) HasPrev() bool { return p.Page > 0 }
func (p *ProductPage) HasNext() bool { return p.Page+1 < p.TotalPages }

type CatalogUseCase interface {
	ListCategories(ctx context.Context) ([]*model.Category, error)
	ListProducts(ctx context.Context, categoryID string, page int) (*ProductPage, error)
	GetProduct(ctx context.Context, productID string) (*model.Product, error)

	// ToggleWishlist adds or removes productID and reports whether it is now saved.
	ToggleWishlist(ctx context.Context, chatID int64, productID string) (bool, error)
	InWishlist(ctx context.Context, chatID int64, productID string) (bool, error)
	ListWishlist(ctx context.Context, chatID int64) ([]*model.Product, error)

	// RateProduct stores 1..5 stars; a second rating by the same chat replaces the first.
	RateProduct(ctx context.Context, chatID int64, productID string, stars int) error
	ProductRating(ctx context.Context, productID string) (model.RatingSummary, error)
}

var _ CatalogUseCase = (*catalogUC)(nil)

type catalogUC struct {
	categories repository.CategoryRepository
	products   repository.ProductRepository
	wishlist   repository.WishlistRepository
	ratings    repository.RatingRepository
	pageSize   int
	log        *zerolog.Logger
}

func NewCatalogUseCase(
	categories repository.CategoryRepository,
	products repository.ProductRepository,
	wishlist repository.WishlistRepository,
	ratings repository.RatingRepository,
	pageSize int,
	logger *zerolog.Logger,
) CatalogUseCase {
	if pageSize <= 0 {
		pageSize = 6
	}
	l := logger.With().Str("component", "CatalogUseCase").Logger()
	return &catalogUC{
		categories: categories,
		products:   products,
		wishlist:   wishlist,
		ratings:    ratings,
		pageSize:   pageSize,
		log:        &l,
	}
}

func (c *catalogUC) ListCategories(ctx context.Context) ([]*model.Category, error) {
	return c.categories.ListActive(ctx, repository.NoTX)
}

func (c *catalogUC) ListProducts(ctx context.Context, categoryID string, page int) (*ProductPage, error) {
	if _, err := c.categories.FindByID(ctx, repository.NoTX, categoryID); err != nil {
		return nil, err
	}
	if page < 0 {
		page = 0
	}
	items, total, err := c.products.ListByCategory(ctx, repository.NoTX, categoryID, page*c.pageSize, c.pageSize)
	if err != nil {
		return nil, err
	}
	pages := (total + c.pageSize - 1) / c.pageSize
	if pages == 0 {
		pages = 1
	}
	if page >= pages {
		// Stale page button after products were removed: show the last page.
		page = pages - 1
		items, _, err = c.products.ListByCategory(ctx, repository.NoTX, categoryID, page*c.pageSize, c.pageSize)
		if err != nil {
			return nil, err
		}
	}
	return &ProductPage{CategoryID: categoryID, Products: items, Page: page, TotalPages: pages}, nil
}

func (c *catalogUC) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	p, err := c.products.FindByID(ctx, repository.NoTX, productID)
	if err != nil {
		return nil, err
	}
	if !p.Active {
		return nil, domain.ErrProductUnavailable
	}
	return p, nil
}

func (c *catalogUC) ToggleWishlist(ctx context.Context, chatID int64, productID string) (bool, error) {
	if _, err := c.GetProduct(ctx, productID); err != nil {
		return false, err
	}
	exists, err := c.wishlist.Exists(ctx, repository.NoTX, chatID, productID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, c.wishlist.Remove(ctx, repository.NoTX, chatID, productID)
	}
	return true, c.wishlist.Add(ctx, repository.NoTX, chatID, productID)
}

func (c *catalogUC) InWishlist(ctx context.Context, chatID int64, productID string) (bool, error) {
	return c.wishlist.Exists(ctx, repository.NoTX, chatID, productID)
}

func (c *catalogUC) ListWishlist(ctx context.Context, chatID int64) ([]*model.Product, error) {
	items, err := c.wishlist.List(ctx, repository.NoTX, chatID)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Product, 0, len(items))
	for _, it := range items {
		p, err := c.products.FindByID(ctx, repository.NoTX, it.ProductID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

func (c *catalogUC) RateProduct(ctx context.Context, chatID int64, productID string, stars int) error {
	if stars < 1 || stars > 5 {
		return domain.ErrInvalidArgument
	}
	if _, err := c.GetProduct(ctx, productID); err != nil {
		return err
	}
	return c.ratings.Upsert(ctx, repository.NoTX, &model.Rating{
		ID:        uuid.NewString(),
		ProductID: productID,
		ChatID:    chatID,
		Stars:     stars,
	})
}

func (c *catalogUC) ProductRating(ctx context.Context, productID string) (model.RatingSummary, error) {
	return c.ratings.Summary(ctx, repository.NoTX, productID)
}
