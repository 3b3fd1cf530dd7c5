package discount

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidCode is returned when a discount code is unknown or has
	// already been used.
	ErrInvalidCode = errors.New("invalid or already used discount code")
	// ErrNotFound is returned by lookups when no code with the given
	// string exists.
	ErrNotFound = errors.New("discount code not found")
)

// Code is a single-use discount code. Once Used flips to true it never
// reverts and the code can no longer pass validation.
type Code struct {
	Code    string          `json:"code"`
	Percent decimal.Decimal `json:"discountPercent"`
	Used    bool            `json:"isUsed"`
}

// Apply returns the discount amount for the given code and subtotal:
// subtotal * percent / 100, rounded to 2 decimal places.
func Apply(c *Code, subtotal decimal.Decimal) decimal.Decimal {
	amount := subtotal.Mul(c.Percent).Div(hundred)
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount.Round(2)
}

var hundred = decimal.NewFromInt(100)

// Repository provides storage for discount codes.
//
// Add and Consume are the synchronization points for the Nth-order rule:
// Add must be insert-if-absent (two issuers racing on the same boundary
// converge on one stored code) and Consume must be an atomic test-and-set
// (first consumer wins, later attempts observe the used flag).
type Repository interface {
	// Add stores the code if no code with the same string exists.
	// It reports whether the code was inserted.
	Add(ctx context.Context, c *Code) (bool, error)
	// Find returns the code with the given string, or ErrNotFound.
	Find(ctx context.Context, code string) (*Code, error)
	// Consume atomically marks the code used. It reports false when the
	// code is unknown or was already used.
	Consume(ctx context.Context, code string) (bool, error)
}
