package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopkart/shopkart/internal/domain/discount"
)

const (
	addCodeSQL = `INSERT INTO discount_codes (code, percent, is_used)
		VALUES ($1, $2, $3)
		ON CONFLICT (code) DO NOTHING`

	findCodeSQL = `SELECT code, percent, is_used FROM discount_codes WHERE code = $1`

	consumeCodeSQL = `UPDATE discount_codes SET is_used = TRUE
		WHERE code = $1 AND is_used = FALSE`

	listCodesSQL = `SELECT code, percent, is_used FROM discount_codes ORDER BY created_at, code`
)

var _ discount.Repository = (*DiscountRepository)(nil)

// DiscountRepository implements discount.Repository backed by PostgreSQL.
// Insert-if-absent and first-wins consumption ride on ON CONFLICT DO
// NOTHING and a conditional UPDATE respectively.
type DiscountRepository struct {
	pool *pgxpool.Pool
}

// NewDiscountRepository returns a DiscountRepository that uses the given pool.
func NewDiscountRepository(pool *pgxpool.Pool) *DiscountRepository {
	return &DiscountRepository{pool: pool}
}

// Add inserts the code, reporting false when it already exists.
func (r *DiscountRepository) Add(ctx context.Context, c *discount.Code) (bool, error) {
	tag, err := r.pool.Exec(ctx, addCodeSQL, c.Code, c.Percent, c.Used)
	if err != nil {
		return false, fmt.Errorf("adding discount code %q: %w", c.Code, err)
	}
	return tag.RowsAffected() == 1, nil
}

// Find returns the code by its exact string, or discount.ErrNotFound.
func (r *DiscountRepository) Find(ctx context.Context, code string) (*discount.Code, error) {
	var c discount.Code
	err := r.pool.QueryRow(ctx, findCodeSQL, code).Scan(&c.Code, &c.Percent, &c.Used)
	if err == pgx.ErrNoRows {
		return nil, discount.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding discount code %q: %w", code, err)
	}
	return &c, nil
}

// Consume flips is_used for an unused code. The conditional UPDATE makes
// concurrent consumers race safely: exactly one affects a row.
func (r *DiscountRepository) Consume(ctx context.Context, code string) (bool, error) {
	tag, err := r.pool.Exec(ctx, consumeCodeSQL, code)
	if err != nil {
		return false, fmt.Errorf("consuming discount code %q: %w", code, err)
	}
	return tag.RowsAffected() == 1, nil
}

// List returns all codes in issuance order.
func (r *DiscountRepository) List(ctx context.Context) ([]discount.Code, error) {
	rows, err := r.pool.Query(ctx, listCodesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing discount codes: %w", err)
	}
	defer rows.Close()

	var codes []discount.Code
	for rows.Next() {
		var c discount.Code
		if err := rows.Scan(&c.Code, &c.Percent, &c.Used); err != nil {
			return nil, fmt.Errorf("scanning discount code: %w", err)
		}
		codes = append(codes, c)
	}
	return codes, rows.Err()
}
