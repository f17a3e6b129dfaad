package model

import (
	"math"
	"sort"
	"time"

	"telegram-shop-bot/internal/domain"
)

// PricingTier maps an inclusive quantity range to a unit price for one product.
// A nil MaxQuantity means the range is unbounded above.
type PricingTier struct {
	ID             string
	ProductID      string
	MinQuantity    int
	MaxQuantity    *int
	UnitPriceMinor int64
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewPricingTier validates the range and price.
func NewPricingTier(id, productID string, minQty int, maxQty *int, unitPriceMinor int64) (*PricingTier, error) {
	if productID == "" || minQty < 1 || unitPriceMinor <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	if maxQty != nil && *maxQty < minQty {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &PricingTier{
		ID:             id,
		ProductID:      productID,
		MinQuantity:    minQty,
		MaxQuantity:    maxQty,
		UnitPriceMinor: unitPriceMinor,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Contains reports whether qty falls inside [MinQuantity, MaxQuantity].
func (t *PricingTier) Contains(qty int) bool {
	if qty < t.MinQuantity {
		return false
	}
	return t.MaxQuantity == nil || qty <= *t.MaxQuantity
}

// upper returns the exclusive upper bound of the tier as a half-open interval.
func (t *PricingTier) upper() int {
	if t.MaxQuantity == nil {
		return math.MaxInt
	}
	return *t.MaxQuantity + 1
}

// Overlaps tests [min, max+1) against the other tier's half-open interval.
func (t *PricingTier) Overlaps(o *PricingTier) bool {
	return t.MinQuantity < o.upper() && o.MinQuantity < t.upper()
}

// ResolveUnitPrice picks the first tier (by ascending MinQuantity) containing qty,
// falling back to basePrice when nothing matches.
func ResolveUnitPrice(tiers []*PricingTier, basePrice int64, qty int) int64 {
	if len(tiers) == 0 {
		return basePrice
	}
	sorted := make([]*PricingTier, 0, len(tiers))
	for _, t := range tiers {
		if t != nil && t.Active {
			sorted = append(sorted, t)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MinQuantity < sorted[j].MinQuantity })
	for _, t := range sorted {
		if t.Contains(qty) {
			return t.UnitPriceMinor
		}
	}
	return basePrice
}

// IntPtr is a small helper for optional upper bounds.
func IntPtr(v int) *int { return &v }
