package model

import (
	"strings"
	"time"
)

// UserPreference holds a chat's language and display currency.
type UserPreference struct {
	ChatID    int64
	Username  string
	Language  string
	Currency  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type InquiryStatus string

const (
	InquiryOpen   InquiryStatus = "open"
	InquiryClosed InquiryStatus = "closed"
)

// Inquiry is a support request created from unmatched text or the support flow.
type Inquiry struct {
	ID        string
	ChatID    int64
	Username  string
	Text      string
	Status    InquiryStatus
	CreatedAt time.Time
}

// Rating is one chat's star rating for a product; re-rating replaces it.
type Rating struct {
	ID        string
	ProductID string
	ChatID    int64
	Stars     int
	CreatedAt time.Time
}

type RatingSummary struct {
	Average float64
	Count   int
}

// CustomCommand is an admin-configured text trigger and its canned response.
type CustomCommand struct {
	Slot     int
	Command  string
	Response string
}

// Matches compares exactly, ignoring case and surrounding whitespace.
func (c CustomCommand) Matches(text string) bool {
	cmd := strings.TrimSpace(c.Command)
	return cmd != "" && strings.EqualFold(cmd, strings.TrimSpace(text))
}
