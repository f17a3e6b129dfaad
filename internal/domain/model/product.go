package model

import (
	"strings"
	"time"

	"telegram-shop-bot/internal/domain"
)

// Category groups products in the catalog menu.
type Category struct {
	ID        string
	Name      string
	SortOrder int
	Active    bool
	CreatedAt time.Time
}

// Product is a sellable catalog item. Prices are stored in minor units of the
// shop's base currency to avoid float errors.
type Product struct {
	ID          string
	CategoryID  string
	Name        string
	Description string
	PriceMinor  int64
	ImageURL    string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p *Product) IsZero() bool { return p == nil || p.ID == "" }

// HasImage reports whether the product should be rendered with a photo.
func (p *Product) HasImage() bool { return p != nil && strings.TrimSpace(p.ImageURL) != "" }

// maxRefIDLen fits a UUID while leaving room for the rest of a callback payload.
const maxRefIDLen = 36

// ValidRefID reports whether a catalog id can travel as a single callback argument.
func ValidRefID(id string) bool {
	return id != "" && len(id) <= maxRefIDLen && !strings.ContainsAny(id, "_ ")
}

// NewProduct validates and constructs an active product.
func NewProduct(id, categoryID, name, description string, priceMinor int64, imageURL string) (*Product, error) {
	if !ValidRefID(id) || !ValidRefID(categoryID) || strings.TrimSpace(name) == "" || priceMinor <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Product{
		ID:          id,
		CategoryID:  categoryID,
		Name:        strings.TrimSpace(name),
		Description: description,
		PriceMinor:  priceMinor,
		ImageURL:    imageURL,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
