package cart

import (
	"context"

	"github.com/go-faster/errors"
)

// Manager mutates user carts. It performs the semantic validation of
// incoming items; transport-level payload checks stay at the handler edge.
type Manager struct {
	carts Repository
}

// NewManager creates a cart Manager backed by the given repository.
func NewManager(carts Repository) *Manager {
	return &Manager{carts: carts}
}

// Get returns the user's cart, creating an empty one if absent.
func (m *Manager) Get(ctx context.Context, userID string) (*Cart, error) {
	c, err := m.carts.Get(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}
	return c, nil
}

// AddItem adds an item to the user's cart. If an item with the same
// ProductID already exists, its quantity is increased by the incoming
// quantity; otherwise the item is appended as a new line.
func (m *Manager) AddItem(ctx context.Context, userID string, item Item) (*Cart, error) {
	if err := validateItem(item); err != nil {
		return nil, err
	}

	c, err := m.carts.Get(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}

	merged := false
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID {
			c.Items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		c.Items = append(c.Items, item)
	}

	if err := m.carts.Save(ctx, userID, c); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return c, nil
}

// ApplyCode attaches a discount code to the user's cart. The code string is
// stored as-is; whether it is valid is only decided at checkout.
func (m *Manager) ApplyCode(ctx context.Context, userID, code string) (*Cart, error) {
	c, err := m.carts.Get(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}

	c.AppliedCode = code

	if err := m.carts.Save(ctx, userID, c); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return c, nil
}

func validateItem(item Item) error {
	switch {
	case item.ProductID == "":
		return &ValidationError{Field: "productId", Reason: "required"}
	case item.Name == "":
		return &ValidationError{Field: "name", Reason: "required"}
	case item.Price.IsNegative():
		return &ValidationError{Field: "price", Reason: "must not be negative"}
	case item.Quantity <= 0:
		return &ValidationError{Field: "quantity", Reason: "must be greater than 0"}
	}
	return nil
}
