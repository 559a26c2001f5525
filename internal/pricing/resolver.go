package pricing

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrInvalidLineItem is returned for unknown products or variants and for non-positive quantities.
var ErrInvalidLineItem = errors.New("invalid line item")

// Behavior describes how a variant's modifier combines with the product price.
type Behavior string

const (
	// BehaviorOverride replaces the base price.
	BehaviorOverride Behavior = "override"
	// BehaviorAdd is added on top of the base or override price.
	BehaviorAdd Behavior = "add"
)

// Valid reports whether b is a known behaviour.
func (b Behavior) Valid() bool {
	return b == BehaviorOverride || b == BehaviorAdd
}

// Variant is the pricing-relevant projection of a product variant.
type Variant struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	Modifier  decimal.Decimal
	Behavior  Behavior
	// Priority ranks competing overrides, lower first. Nil ranks after every explicit value.
	Priority *int32
}

// ResolveUnitPrice computes the unit price for a product with the selected variants.
//
// The highest precedence override replaces base; every add modifier is summed on
// top. Overrides with equal priority fall back to the lowest variant id so the
// outcome never depends on selection order. A negative result is clamped to zero.
func ResolveUnitPrice(base decimal.Decimal, variants []Variant) (Money, error) {
	var (
		winner   *Variant
		additive = decimal.Zero
	)
	for i := range variants {
		v := &variants[i]
		switch v.Behavior {
		case BehaviorOverride:
			if winner == nil || outranks(v, winner) {
				winner = v
			}
		case BehaviorAdd:
			additive = additive.Add(v.Modifier)
		default:
			return Money{}, fmt.Errorf("%w: variant %s has unknown price behavior %q", ErrInvalidLineItem, v.ID, v.Behavior)
		}
	}

	price := base
	if winner != nil {
		price = winner.Modifier
	}
	price = price.Add(additive)
	if price.IsNegative() {
		price = decimal.Zero
	}
	return NewMoney(price), nil
}

func outranks(a, b *Variant) bool {
	switch {
	case a.Priority != nil && b.Priority == nil:
		return true
	case a.Priority == nil && b.Priority != nil:
		return false
	case a.Priority != nil && *a.Priority != *b.Priority:
		return *a.Priority < *b.Priority
	}
	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}
