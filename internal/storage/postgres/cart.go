package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopkart/shopkart/internal/domain/cart"
)

const (
	getCartSQL = `SELECT items, applied_code FROM carts WHERE user_id = $1`

	saveCartSQL = `INSERT INTO carts (user_id, items, applied_code)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET items = EXCLUDED.items, applied_code = EXCLUDED.applied_code`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL. Cart
// items are stored as a JSONB document per user.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Get returns the user's cart. Unknown users get an empty cart; the row is
// only written on the first Save.
func (r *CartRepository) Get(ctx context.Context, userID string) (*cart.Cart, error) {
	var (
		itemsJSON   []byte
		appliedCode string
	)
	err := r.pool.QueryRow(ctx, getCartSQL, userID).Scan(&itemsJSON, &appliedCode)
	if err == pgx.ErrNoRows {
		return &cart.Cart{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting cart for %q: %w", userID, err)
	}

	var items []cart.Item
	if err := json.Unmarshal(itemsJSON, &items); err != nil {
		return nil, fmt.Errorf("unmarshaling cart items for %q: %w", userID, err)
	}

	return &cart.Cart{Items: items, AppliedCode: appliedCode}, nil
}

// Save upserts the user's cart.
func (r *CartRepository) Save(ctx context.Context, userID string, c *cart.Cart) error {
	items := c.Items
	if items == nil {
		items = []cart.Item{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshaling cart items for %q: %w", userID, err)
	}

	if _, err := r.pool.Exec(ctx, saveCartSQL, userID, itemsJSON, c.AppliedCode); err != nil {
		return fmt.Errorf("saving cart for %q: %w", userID, err)
	}
	return nil
}

// Clear resets the user's cart to empty with no discount code.
func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	return r.Save(ctx, userID, &cart.Cart{})
}
