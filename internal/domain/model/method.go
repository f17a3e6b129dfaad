package model

import (
	"strings"

	"telegram-shop-bot/internal/domain"
)

// maxMethodIDLen keeps method ids short enough to embed in callback payloads.
const maxMethodIDLen = 16

// DeliveryMethod is an admin-managed shipping option.
type DeliveryMethod struct {
	ID              string
	Name            string
	FeeMinor        int64
	RequiresAddress bool
	Active          bool
	SortOrder       int
}

// PaymentMethod is a manual/instructional payment option.
type PaymentMethod struct {
	ID           string
	Name         string
	Instructions string
	Active       bool
	SortOrder    int
}

// ValidMethodID reports whether id can travel as a single callback argument.
func ValidMethodID(id string) bool {
	return id != "" && len(id) <= maxMethodIDLen && !strings.ContainsAny(id, "_ ")
}

func NewDeliveryMethod(id, name string, feeMinor int64, requiresAddress bool) (*DeliveryMethod, error) {
	if !ValidMethodID(id) || strings.TrimSpace(name) == "" || feeMinor < 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &DeliveryMethod{ID: id, Name: name, FeeMinor: feeMinor, RequiresAddress: requiresAddress, Active: true}, nil
}

func NewPaymentMethod(id, name, instructions string) (*PaymentMethod, error) {
	if !ValidMethodID(id) || strings.TrimSpace(name) == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &PaymentMethod{ID: id, Name: name, Instructions: instructions, Active: true}, nil
}
