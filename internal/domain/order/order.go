package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/shopkart/shopkart/internal/domain/cart"
	"github.com/shopkart/shopkart/internal/domain/discount"
)

// ErrEmptyCart is returned when checkout is attempted on a cart with no items.
var ErrEmptyCart = errors.New("cart is empty")

// Order is an immutable record of a completed checkout. Items are a
// snapshot of the cart at checkout time; Final always equals
// Total minus Discount.
type Order struct {
	ID           string
	Items        []cart.Item
	Total        decimal.Decimal
	DiscountCode string
	Discount     decimal.Decimal
	Final        decimal.Decimal
	CreatedAt    time.Time
}

// Stats aggregates all recorded orders. It is derived by folding over the
// order log on demand; no incremental caching at this scale.
type Stats struct {
	TotalItemsPurchased int64
	TotalPurchaseAmount decimal.Decimal
	TotalDiscountAmount decimal.Decimal
	DiscountCodes       []discount.Code
}

// Repository defines persistence operations for orders and the
// completed-order counter.
type Repository interface {
	// Record appends the order and increments the counter, atomically.
	// It returns the counter value after the increment.
	Record(ctx context.Context, o *Order) (int64, error)
	// Count returns the number of completed orders.
	Count(ctx context.Context) (int64, error)
	// Stats folds over all recorded orders.
	Stats(ctx context.Context) (*Stats, error)
}
