package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopkart/shopkart/internal/domain/cart"
	"github.com/shopkart/shopkart/internal/domain/discount"
)

// CheckoutResult holds the recorded order and, when this checkout crossed an
// Nth-order boundary, the discount code issued for a future order.
type CheckoutResult struct {
	Order    *Order
	NextCode *discount.Code
}

// Service orchestrates checkout: precondition checks, pricing, discount
// consumption, order recording, cart clearing, and next-code issuance.
type Service struct {
	carts  cart.Repository
	codes  *discount.Engine
	orders Repository
	locks  UserLocker

	now   func() time.Time
	newID func() string
}

// NewService creates a checkout Service with the required dependencies.
func NewService(
	carts cart.Repository,
	codes *discount.Engine,
	orders Repository,
	locks UserLocker,
) *Service {
	return &Service{
		carts:  carts,
		codes:  codes,
		orders: orders,
		locks:  locks,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
}

// Checkout turns the user's cart into an order.
//
// The empty-cart and invalid-code preconditions are checked before anything
// is mutated, so a rejected checkout leaves the cart, the order log, and the
// counter untouched. Consuming the discount code is an atomic first-wins
// operation: if another checkout redeems the same code concurrently, this
// one fails with discount.ErrInvalidCode before recording anything.
func (s *Service) Checkout(ctx context.Context, userID string) (*CheckoutResult, error) {
	unlock := s.locks.LockUser(userID)
	defer unlock()

	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}

	total := c.Subtotal().Round(2)

	discountAmount := decimal.Zero
	usedCode := ""
	if c.AppliedCode != "" {
		dc, err := s.codes.Validate(ctx, c.AppliedCode)
		if err != nil {
			return nil, err
		}
		discountAmount = discount.Apply(dc, total)
		if err := s.codes.Consume(ctx, dc.Code); err != nil {
			return nil, err
		}
		usedCode = dc.Code
	}

	items := make([]cart.Item, len(c.Items))
	copy(items, c.Items)

	o := &Order{
		ID:           s.newID(),
		Items:        items,
		Total:        total,
		DiscountCode: usedCode,
		Discount:     discountAmount,
		Final:        total.Sub(discountAmount),
		CreatedAt:    s.now(),
	}

	count, err := s.orders.Record(ctx, o)
	if err != nil {
		return nil, errors.Wrap(err, "record order")
	}

	if err := s.carts.Clear(ctx, userID); err != nil {
		return nil, errors.Wrap(err, "clear cart")
	}

	// Issuance is derived from the count returned by Record, not re-read
	// from the store, so two checkouts crossing the same boundary cannot
	// both see a stale counter.
	next, _, err := s.codes.IssueAfter(ctx, count)
	if err != nil {
		return nil, errors.Wrap(err, "issue next code")
	}

	return &CheckoutResult{Order: o, NextCode: next}, nil
}
