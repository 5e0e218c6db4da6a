package pricing

import (
	"errors"
	"fmt"

	"github.com/capirelay-lab/project-capirelay/internal/commerce"
	"github.com/shopspring/decimal"
)

// ErrUnpriced is returned when a variation carries no price in the current
// store. Callers must abort the whole event build rather than emit a
// zero-value event.
var ErrUnpriced = errors.New("variation has no resolvable price")

// Context is the pricing context a resolution runs under.
type Context struct {
	StoreID   string
	AccountID int64
}

// Resolver computes the effective unit price of a product variation.
type Resolver struct {
	ctx Context
}

// NewResolver creates a resolver for one pricing context.
func NewResolver(ctx Context) *Resolver {
	return &Resolver{ctx: ctx}
}

// Resolve returns the variation's unit price with only the selected
// adjustment kinds applied. Adjustments of unselected kinds are excluded even
// if they would normally apply. Deterministic given identical inputs: the
// variation's adjustment order is preserved and decimal arithmetic is exact.
func (r *Resolver) Resolve(variation *commerce.ProductVariation, adjustmentTypes []string) (decimal.Decimal, error) {
	if variation == nil {
		return decimal.Zero, fmt.Errorf("variation is nil: %w", ErrUnpriced)
	}
	if variation.Price.IsZero() {
		return decimal.Zero, fmt.Errorf("variation %d (store %q): %w", variation.ID, r.ctx.StoreID, ErrUnpriced)
	}

	selected := make(map[string]bool, len(adjustmentTypes))
	for _, t := range adjustmentTypes {
		if t != "" {
			selected[t] = true
		}
	}

	price := variation.Price.Number
	for _, adj := range variation.Adjustments {
		if selected[adj.Type] {
			price = price.Add(adj.Amount)
		}
	}

	return price, nil
}
