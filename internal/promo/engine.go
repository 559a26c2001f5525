package promo

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-pricing/internal/pricing"
)

var (
	// ErrInvalidCode is returned when no promo code matches the supplied value.
	ErrInvalidCode = errors.New("promo code invalid")
	// ErrInactive is returned for a code that exists but is switched off. It matches ErrInvalidCode.
	ErrInactive = fmt.Errorf("%w: inactive", ErrInvalidCode)
	// ErrExpired is returned once valid_until has passed.
	ErrExpired = errors.New("promo code expired")
	// ErrNotYetValid is returned before valid_from.
	ErrNotYetValid = errors.New("promo code not yet valid")
	// ErrUsageExhausted indicates the global usage quota is spent.
	ErrUsageExhausted = errors.New("promo code usage exhausted")
	// ErrUserLimitExceeded indicates the caller already used the code the permitted number of times.
	ErrUserLimitExceeded = errors.New("promo code per-user limit exceeded")
	// ErrMinOrderNotMet indicates the subtotal is below the code's threshold.
	ErrMinOrderNotMet = errors.New("promo code minimum order not met")
)

// DiscountType selects how the discount value is interpreted.
type DiscountType string

const (
	DiscountPercentage  DiscountType = "percentage"
	DiscountFixedAmount DiscountType = "fixed_amount"
)

var hundred = decimal.NewFromInt(100)

// Rule captures the runtime constraints of a promo code plus the caller's usage.
type Rule struct {
	ID             uuid.UUID
	Code           string
	Type           DiscountType
	Value          decimal.Decimal
	MinOrderAmount decimal.Decimal
	MaxDiscount    *decimal.Decimal
	UsageLimit     *int32
	UsageCount     int32
	UserUsageLimit int32
	ValidFrom      *time.Time
	ValidUntil     *time.Time
	Active         bool

	// UserUsed is the caller's recorded redemptions. Negative skips the per-user check.
	UserUsed int64
}

// NormalizeCode trims and upper-cases a user supplied code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks the rule against now and the order subtotal, stopping at the
// first failure in this order: active, window, global quota, per-user quota,
// minimum order. It never mutates state.
func (r Rule) Validate(now time.Time, subtotal decimal.Decimal) error {
	if !r.Active {
		return ErrInactive
	}
	if r.ValidFrom != nil && now.Before(*r.ValidFrom) {
		return ErrNotYetValid
	}
	if r.ValidUntil != nil && now.After(*r.ValidUntil) {
		return ErrExpired
	}
	if r.UsageLimit != nil && r.UsageCount >= *r.UsageLimit {
		return ErrUsageExhausted
	}
	if r.UserUsed >= 0 && r.UserUsed >= int64(r.userLimit()) {
		return ErrUserLimitExceeded
	}
	if subtotal.LessThan(r.MinOrderAmount) {
		return ErrMinOrderNotMet
	}
	return nil
}

func (r Rule) userLimit() int32 {
	if r.UserUsageLimit <= 0 {
		return 1
	}
	return r.UserUsageLimit
}

// Compute returns the discount the rule grants on subtotal. The value is capped by
// MaxDiscount when set and never exceeds subtotal.
func Compute(subtotal decimal.Decimal, r Rule) pricing.Money {
	if !subtotal.IsPositive() {
		return pricing.ZeroMoney()
	}
	var raw decimal.Decimal
	switch r.Type {
	case DiscountPercentage:
		raw = subtotal.Mul(r.Value).Div(hundred)
	case DiscountFixedAmount:
		raw = r.Value
	default:
		return pricing.ZeroMoney()
	}
	if r.MaxDiscount != nil && raw.GreaterThan(*r.MaxDiscount) {
		raw = *r.MaxDiscount
	}
	if raw.GreaterThan(subtotal) {
		raw = subtotal
	}
	if raw.IsNegative() {
		raw = decimal.Zero
	}
	return pricing.NewMoney(raw)
}
