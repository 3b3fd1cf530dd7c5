package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopkart/shopkart/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (id, items, total, discount_code, discount, final, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	incrementCounterSQL = `UPDATE order_counter SET count = count + 1 WHERE id = 1 RETURNING count`

	countSQL = `SELECT count FROM order_counter WHERE id = 1`

	orderTotalsSQL = `SELECT COALESCE(SUM(total), 0), COALESCE(SUM(discount), 0) FROM orders`

	itemsPurchasedSQL = `SELECT COALESCE(SUM((item->>'quantity')::BIGINT), 0)
		FROM orders, jsonb_array_elements(items) AS item`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool  *pgxpool.Pool
	codes *DiscountRepository
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
// The discount repository supplies the code snapshot for Stats.
func NewOrderRepository(pool *pgxpool.Pool, codes *DiscountRepository) *OrderRepository {
	return &OrderRepository{pool: pool, codes: codes}
}

// Record inserts the order and increments the completed-order counter in a
// single transaction, returning the new counter value.
func (r *OrderRepository) Record(ctx context.Context, o *order.Order) (int64, error) {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return 0, fmt.Errorf("marshaling order items: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, createOrderSQL,
		o.ID, itemsJSON, o.Total, o.DiscountCode, o.Discount, o.Final, o.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("creating order %q: %w", o.ID, err)
	}

	var count int64
	if err := tx.QueryRow(ctx, incrementCounterSQL).Scan(&count); err != nil {
		return 0, fmt.Errorf("incrementing order counter: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing order %q: %w", o.ID, err)
	}
	return count, nil
}

// Count returns the number of completed orders.
func (r *OrderRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, countSQL).Scan(&count); err != nil {
		return 0, fmt.Errorf("reading order counter: %w", err)
	}
	return count, nil
}

// Stats aggregates all recorded orders and snapshots the discount codes.
func (r *OrderRepository) Stats(ctx context.Context) (*order.Stats, error) {
	st := &order.Stats{}

	err := r.pool.QueryRow(ctx, orderTotalsSQL).
		Scan(&st.TotalPurchaseAmount, &st.TotalDiscountAmount)
	if err != nil {
		return nil, fmt.Errorf("aggregating order totals: %w", err)
	}

	if err := r.pool.QueryRow(ctx, itemsPurchasedSQL).Scan(&st.TotalItemsPurchased); err != nil {
		return nil, fmt.Errorf("aggregating items purchased: %w", err)
	}

	codes, err := r.codes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing discount codes: %w", err)
	}
	st.DiscountCodes = codes

	return st, nil
}
