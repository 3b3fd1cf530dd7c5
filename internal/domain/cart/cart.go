package cart

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Item is a single line in a shopping cart. Items are identified by
// ProductID within a cart; adding the same product again merges quantities.
type Item struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Cart holds a user's pending items in insertion order, plus an optionally
// attached discount code. The code is not validated here; validation happens
// at checkout time.
type Cart struct {
	Items       []Item
	AppliedCode string
}

// IsEmpty reports whether the cart has no items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Subtotal returns the sum of price * quantity across all items.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range c.Items {
		line := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		sum = sum.Add(line)
	}
	return sum
}

// Clone returns a deep copy of the cart.
func (c *Cart) Clone() *Cart {
	items := make([]Item, len(c.Items))
	copy(items, c.Items)
	return &Cart{Items: items, AppliedCode: c.AppliedCode}
}

// ValidationError indicates a malformed cart item payload.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Repository defines persistence operations for carts. Get never fails with
// "not found": an empty cart is returned for unknown users.
type Repository interface {
	Get(ctx context.Context, userID string) (*Cart, error)
	Save(ctx context.Context, userID string, c *Cart) error
	Clear(ctx context.Context, userID string) error
}
