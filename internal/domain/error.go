package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid execution context")

	// Catalog & checkout
	ErrTierOverlap        = errors.New("pricing tier overlaps an existing tier")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrProductUnavailable = errors.New("product is not available")
	ErrMethodUnavailable  = errors.New("delivery or payment method is not available")

	// Callback tokens
	ErrTokenTooLong   = errors.New("callback token exceeds transport limit")
	ErrMalformedToken = errors.New("malformed callback token")
)
