package pricing

import (
	"errors"
	"fmt"
)

// ErrNegativeTotal signals a discount that exceeded the order value after capping.
var ErrNegativeTotal = errors.New("negative order total")

// Summary aggregates computed pricing components.
type Summary struct {
	Subtotal    Money `json:"subtotal"`
	Discount    Money `json:"discountAmount"`
	DeliveryFee Money `json:"deliveryFee"`
	Total       Money `json:"totalAmount"`
}

// Compute calculates order totals. The total is subtotal + delivery fee - discount,
// never clamped: callers check it with Guard.
func Compute(subtotal, discount, deliveryFee Money) Summary {
	total := subtotal.Add(deliveryFee.Decimal).Sub(discount.Decimal)
	return Summary{
		Subtotal:    NewMoney(subtotal.Decimal),
		Discount:    NewMoney(discount.Decimal),
		DeliveryFee: NewMoney(deliveryFee.Decimal),
		Total:       NewMoney(total),
	}
}

// Guard returns ErrNegativeTotal when the discount pushed the total below zero.
func (s Summary) Guard() error {
	if s.Total.IsNegative() || s.Discount.GreaterThan(s.Subtotal.Decimal) {
		return ErrNegativeTotal
	}
	return nil
}

// Bounded rejects a delivery fee or total that would not fit the order columns.
func (s Summary) Bounded() error {
	if s.DeliveryFee.GreaterThan(MaxAmount) || s.Total.GreaterThan(MaxAmount) {
		return fmt.Errorf("%w: order total exceeds %s", ErrInvalidLineItem, MaxAmount.StringFixed(2))
	}
	return nil
}
