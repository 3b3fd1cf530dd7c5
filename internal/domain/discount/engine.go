package discount

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Defaults for the issuance rule: one 10% code every 3rd completed order.
const (
	DefaultEveryN  = 3
	DefaultPercent = 10
)

// OrderCounter exposes the completed-order count the issuance rule is
// derived from.
type OrderCounter interface {
	Count(ctx context.Context) (int64, error)
}

// EngineConfig tunes the Nth-order issuance rule.
type EngineConfig struct {
	// EveryN issues a code after every Nth completed order.
	EveryN int64
	// Percent is the discount percentage carried by issued codes.
	Percent decimal.Decimal
}

// Engine enforces the Nth-order issuance rule and single-use semantics for
// discount codes.
type Engine struct {
	codes   Repository
	orders  OrderCounter
	everyN  int64
	percent decimal.Decimal
}

// NewEngine creates an Engine. Zero config fields fall back to the
// defaults (N = 3, 10%).
func NewEngine(codes Repository, orders OrderCounter, cfg EngineConfig) *Engine {
	if cfg.EveryN <= 0 {
		cfg.EveryN = DefaultEveryN
	}
	if cfg.Percent.IsZero() {
		cfg.Percent = decimal.NewFromInt(DefaultPercent)
	}
	return &Engine{
		codes:   codes,
		orders:  orders,
		everyN:  cfg.EveryN,
		percent: cfg.Percent,
	}
}

// ShouldIssueAfterOrder reports whether a code is due once the completed
// order count has reached the given value. Zero orders never triggers
// issuance even though 0 mod N == 0.
func (e *Engine) ShouldIssueAfterOrder(count int64) bool {
	return count > 0 && count%e.everyN == 0
}

// CodeForOrder returns the deterministic code string for the order count
// that triggered issuance, e.g. DISC10_3 after the third order. Embedding
// the count makes codes traceable and makes issuance idempotent per
// boundary: racing issuers mint the same string and the store keeps one.
func (e *Engine) CodeForOrder(count int64) string {
	return fmt.Sprintf("DISC%s_%d", e.percent.String(), count)
}

// IssueAfter issues the code due at the given completed-order count.
// When no code is due it is a pure no-op and returns (nil, false, nil).
// When the boundary's code already exists, the existing code is returned
// with issued = false.
func (e *Engine) IssueAfter(ctx context.Context, count int64) (*Code, bool, error) {
	if !e.ShouldIssueAfterOrder(count) {
		return nil, false, nil
	}

	c := &Code{
		Code:    e.CodeForOrder(count),
		Percent: e.percent,
	}
	inserted, err := e.codes.Add(ctx, c)
	if err != nil {
		return nil, false, errors.Wrap(err, "add code")
	}
	if inserted {
		return c, true, nil
	}

	existing, err := e.codes.Find(ctx, c.Code)
	if err != nil {
		return nil, false, errors.Wrap(err, "find existing code")
	}
	return existing, false, nil
}

// TryIssueCode reads the current order count and issues the code due at it,
// if any. Callers may invoke it defensively at any time.
func (e *Engine) TryIssueCode(ctx context.Context) (*Code, bool, error) {
	count, err := e.orders.Count(ctx)
	if err != nil {
		return nil, false, errors.Wrap(err, "order count")
	}
	return e.IssueAfter(ctx, count)
}

// Validate returns the code for the exact given string if it exists and has
// not been used. Unknown and used codes both yield ErrInvalidCode.
func (e *Engine) Validate(ctx context.Context, code string) (*Code, error) {
	c, err := e.codes.Find(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, errors.Wrap(err, "find code")
	}
	if c.Used {
		return nil, ErrInvalidCode
	}
	return c, nil
}

// Consume marks the code used. The first consumer wins; any later attempt,
// and any attempt on an unknown code, gets ErrInvalidCode.
func (e *Engine) Consume(ctx context.Context, code string) error {
	ok, err := e.codes.Consume(ctx, code)
	if err != nil {
		return errors.Wrap(err, "consume code")
	}
	if !ok {
		return ErrInvalidCode
	}
	return nil
}
