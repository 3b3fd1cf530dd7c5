// Package memstore provides the in-memory storage backend: carts by user
// id, an append-only order log, discount codes by code string, and the
// completed-order counter. Data resets on process restart.
package memstore

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/shopkart/shopkart/internal/domain/cart"
	"github.com/shopkart/shopkart/internal/domain/discount"
	"github.com/shopkart/shopkart/internal/domain/order"
)

// Store is the single source of truth for all entities. A Store is safe for
// concurrent use; one RWMutex guards all state, which is plenty at this
// scale and keeps counter and code updates trivially serialized.
type Store struct {
	mu         sync.RWMutex
	carts      map[string]*cart.Cart
	orders     []*order.Order
	codes      map[string]*discount.Code
	codeOrder  []string
	orderCount int64
}

var (
	_ cart.Repository     = (*Store)(nil)
	_ discount.Repository = (*Store)(nil)
	_ order.Repository    = (*Store)(nil)
)

// New creates an empty Store.
func New() *Store {
	return &Store{
		carts: make(map[string]*cart.Cart),
		codes: make(map[string]*discount.Code),
	}
}

// Get returns a copy of the user's cart, creating an empty one if absent.
func (s *Store) Get(_ context.Context, userID string) (*cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[userID]
	if !ok {
		c = &cart.Cart{}
		s.carts[userID] = c
	}
	return c.Clone(), nil
}

// Save replaces the stored cart for the user.
func (s *Store) Save(_ context.Context, userID string, c *cart.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.carts[userID] = c.Clone()
	return nil
}

// Clear resets the user's cart to empty with no discount code.
func (s *Store) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.carts[userID] = &cart.Cart{}
	return nil
}

// Record appends the order and increments the completed-order counter,
// returning the new counter value.
func (s *Store) Record(_ context.Context, o *order.Order) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders = append(s.orders, o)
	s.orderCount++
	return s.orderCount, nil
}

// Count returns the number of completed orders.
func (s *Store) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.orderCount, nil
}

// Stats folds over all recorded orders and snapshots the discount codes in
// issuance order.
func (s *Store) Stats(_ context.Context) (*order.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := &order.Stats{
		TotalPurchaseAmount: decimal.Zero,
		TotalDiscountAmount: decimal.Zero,
		DiscountCodes:       make([]discount.Code, 0, len(s.codeOrder)),
	}
	for _, o := range s.orders {
		for _, item := range o.Items {
			st.TotalItemsPurchased += int64(item.Quantity)
		}
		st.TotalPurchaseAmount = st.TotalPurchaseAmount.Add(o.Total)
		st.TotalDiscountAmount = st.TotalDiscountAmount.Add(o.Discount)
	}
	for _, code := range s.codeOrder {
		st.DiscountCodes = append(st.DiscountCodes, *s.codes[code])
	}
	return st, nil
}

// Add stores the code unless one with the same string already exists.
func (s *Store) Add(_ context.Context, c *discount.Code) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.codes[c.Code]; ok {
		return false, nil
	}
	cp := *c
	s.codes[c.Code] = &cp
	s.codeOrder = append(s.codeOrder, c.Code)
	return true, nil
}

// Find returns a copy of the code, or discount.ErrNotFound.
func (s *Store) Find(_ context.Context, code string) (*discount.Code, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.codes[code]
	if !ok {
		return nil, discount.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// Consume marks the code used. It reports false when the code is unknown or
// a previous consumer already won.
func (s *Store) Consume(_ context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.codes[code]
	if !ok || c.Used {
		return false, nil
	}
	c.Used = true
	return true, nil
}
