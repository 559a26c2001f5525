package pricing

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxQuantity bounds a single cart line.
const MaxQuantity = 10000

// MaxAmount is the largest value the NUMERIC(12,2) price and total columns hold.
var MaxAmount = decimal.RequireFromString("9999999999.99")

// Product is the pricing-relevant projection of a catalog product.
type Product struct {
	ID        uuid.UUID
	BasePrice decimal.Decimal
}

// Selection is a requested cart line.
type Selection struct {
	ProductID  uuid.UUID   `json:"productId" validate:"required"`
	Quantity   int32       `json:"quantity" validate:"max=10000"`
	VariantIDs []uuid.UUID `json:"variantIds"`
}

// LineItem is a priced cart line. UnitPrice and TotalPrice are the values frozen on the order.
type LineItem struct {
	ProductID  uuid.UUID   `json:"productId"`
	VariantIDs []uuid.UUID `json:"variantIds"`
	Quantity   int32       `json:"quantity"`
	UnitPrice  Money       `json:"unitPrice"`
	TotalPrice Money       `json:"totalPrice"`
}

// Aggregate prices every selection against the supplied catalog snapshot and
// returns the line items with their subtotal. The first bad selection aborts the
// whole batch.
func Aggregate(selections []Selection, products map[uuid.UUID]Product, variants map[uuid.UUID]Variant) ([]LineItem, Money, error) {
	if len(selections) == 0 {
		return nil, Money{}, fmt.Errorf("%w: no items", ErrInvalidLineItem)
	}
	items := make([]LineItem, 0, len(selections))
	subtotal := decimal.Zero
	for idx, sel := range selections {
		item, err := priceSelection(sel, products, variants)
		if err != nil {
			return nil, Money{}, fmt.Errorf("item %d: %w", idx, err)
		}
		subtotal = subtotal.Add(item.TotalPrice.Decimal)
		if subtotal.GreaterThan(MaxAmount) {
			return nil, Money{}, fmt.Errorf("%w: subtotal exceeds %s", ErrInvalidLineItem, MaxAmount.StringFixed(2))
		}
		items = append(items, item)
	}
	return items, NewMoney(subtotal), nil
}

func priceSelection(sel Selection, products map[uuid.UUID]Product, variants map[uuid.UUID]Variant) (LineItem, error) {
	if sel.Quantity <= 0 || sel.Quantity > MaxQuantity {
		return LineItem{}, fmt.Errorf("%w: quantity must be between 1 and %d, got %d", ErrInvalidLineItem, MaxQuantity, sel.Quantity)
	}
	product, ok := products[sel.ProductID]
	if !ok {
		return LineItem{}, fmt.Errorf("%w: unknown product %s", ErrInvalidLineItem, sel.ProductID)
	}
	selected := make([]Variant, 0, len(sel.VariantIDs))
	seen := make(map[uuid.UUID]struct{}, len(sel.VariantIDs))
	for _, id := range sel.VariantIDs {
		if _, dup := seen[id]; dup {
			return LineItem{}, fmt.Errorf("%w: variant %s selected twice", ErrInvalidLineItem, id)
		}
		seen[id] = struct{}{}
		v, ok := variants[id]
		if !ok || v.ProductID != product.ID {
			return LineItem{}, fmt.Errorf("%w: unknown variant %s for product %s", ErrInvalidLineItem, id, product.ID)
		}
		selected = append(selected, v)
	}
	unit, err := ResolveUnitPrice(product.BasePrice, selected)
	if err != nil {
		return LineItem{}, err
	}
	if unit.GreaterThan(MaxAmount) {
		return LineItem{}, fmt.Errorf("%w: unit price of product %s exceeds %s", ErrInvalidLineItem, product.ID, MaxAmount.StringFixed(2))
	}
	total := NewMoney(unit.Mul(decimal.NewFromInt32(sel.Quantity)))
	if total.GreaterThan(MaxAmount) {
		return LineItem{}, fmt.Errorf("%w: line total of product %s exceeds %s", ErrInvalidLineItem, product.ID, MaxAmount.StringFixed(2))
	}
	return LineItem{
		ProductID:  product.ID,
		VariantIDs: append([]uuid.UUID(nil), sel.VariantIDs...),
		Quantity:   sel.Quantity,
		UnitPrice:  unit,
		TotalPrice: total,
	}, nil
}
