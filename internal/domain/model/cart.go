package model

import "time"

// CartItem is a persisted cart row for a chat.
type CartItem struct {
	ChatID    int64
	ProductID string
	Quantity  int
	AddedAt   time.Time
	UpdatedAt time.Time
}

// CartLine is a cart row resolved against the live catalog and pricing tiers.
type CartLine struct {
	Product   *Product
	Quantity  int
	UnitPrice int64
	LineTotal int64
}

// Cart is the priced view of a chat's cart at the time it was read.
type Cart struct {
	ChatID int64
	Lines  []CartLine
	Total  int64
}

func (c *Cart) IsEmpty() bool { return c == nil || len(c.Lines) == 0 }

// ItemCount returns the sum of quantities.
func (c *Cart) ItemCount() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// WishlistItem marks a product saved by a chat.
type WishlistItem struct {
	ChatID    int64
	ProductID string
	AddedAt   time.Time
}
