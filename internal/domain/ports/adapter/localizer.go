package adapter

import "context"

// Localizer renders strings and prices for a chat. Implementations may look up
// preferences and fetch exchange rates, so every call takes a context.
type Localizer interface {
	T(ctx context.Context, chatID int64, key string, args ...interface{}) string
	FormatPrice(ctx context.Context, chatID int64, amountMinor int64) string
	Language(ctx context.Context, chatID int64) string
}

// RateProvider returns exchange rates relative to base (1 base = rate[code]).
type RateProvider interface {
	Rates(ctx context.Context, base string) (map[string]float64, error)
}
