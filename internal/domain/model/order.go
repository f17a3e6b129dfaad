package model

import (
	"strconv"
	"time"
)

type OrderStatus string

const (
	OrderStatusAwaitingReview OrderStatus = "awaiting_review" // customer reported payment; admin verifies manually
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusShipped        OrderStatus = "shipped"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// OrderItem snapshots a cart line at completion time.
type OrderItem struct {
	ProductID      string
	Name           string
	Quantity       int
	UnitPriceMinor int64
}

// Order is created only by the terminal "Payment Completed" action.
type Order struct {
	ID               string
	Number           string
	ChatID           int64
	Status           OrderStatus
	Items            []OrderItem
	SubtotalMinor    int64
	DeliveryFeeMinor int64
	TotalMinor       int64
	DeliveryMethodID string
	PaymentMethodID  string
	Customer         CustomerInfo
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// orderNumberDigits bounds the order number so it fits inside callback payloads.
const orderNumberDigits = 8

// NewOrderNumber derives a human-readable order number from the clock.
// It is not checked for global uniqueness; orders are unique per (chat, number).
func NewOrderNumber(now time.Time) string {
	s := strconv.FormatInt(now.UnixMilli(), 10)
	if len(s) > orderNumberDigits {
		s = s[len(s)-orderNumberDigits:]
	}
	return s
}
