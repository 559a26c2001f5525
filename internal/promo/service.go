package promo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	dbgen "github.com/noah-isme/toko-pricing/internal/db/gen"
	"github.com/noah-isme/toko-pricing/internal/pricing"
)

// Querier captures the read-only queries the validator needs.
type Querier interface {
	GetPromoCodeByCode(ctx context.Context, code string) (dbgen.PromoCode, error)
	CountPromoUsageByUser(ctx context.Context, arg dbgen.CountPromoUsageByUserParams) (int64, error)
}

// Applied is a validated promo code with the discount it grants.
type Applied struct {
	Rule     Rule          `json:"-"`
	Code     string        `json:"code"`
	Discount pricing.Money `json:"discountAmount"`
}

// Service validates promo codes and computes discounts.
type Service struct {
	Q   Querier
	Now func() time.Time
}

// Evaluate validates code for the given subtotal and returns the discount. A nil
// userID skips the per-user quota, which is only meaningful for anonymous quotes.
func (s *Service) Evaluate(ctx context.Context, code string, subtotal pricing.Money, userID *uuid.UUID) (Applied, error) {
	if s == nil || s.Q == nil {
		return Applied{}, errors.New("promo service not configured")
	}
	q := s.Q
	normalized := NormalizeCode(code)
	if normalized == "" {
		return Applied{}, ErrInvalidCode
	}
	row, err := q.GetPromoCodeByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Applied{}, ErrInvalidCode
		}
		return Applied{}, fmt.Errorf("load promo code: %w", err)
	}
	rule := RuleFromModel(row)
	rule.UserUsed = -1
	if userID != nil {
		used, err := q.CountPromoUsageByUser(ctx, dbgen.CountPromoUsageByUserParams{
			PromoCodeID: row.ID,
			UserID:      toPgUUID(*userID),
		})
		if err != nil {
			return Applied{}, fmt.Errorf("count promo usage: %w", err)
		}
		rule.UserUsed = used
	}
	if err := rule.Validate(s.now(), subtotal.Decimal); err != nil {
		return Applied{}, err
	}
	return Applied{Rule: rule, Code: rule.Code, Discount: Compute(subtotal.Decimal, rule)}, nil
}

// WithQuerier returns a copy of s reading through q, typically a transaction.
func (s *Service) WithQuerier(q Querier) *Service {
	cp := Service{Q: q}
	if s != nil {
		cp.Now = s.Now
	}
	return &cp
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// RuleFromModel converts the generated sqlc model into a Rule used for evaluation.
func RuleFromModel(p dbgen.PromoCode) Rule {
	rule := Rule{
		ID:             uuid.UUID(p.ID.Bytes),
		Code:           p.Code,
		Type:           DiscountType(p.DiscountType),
		Value:          p.DiscountValue,
		MinOrderAmount: p.MinOrderAmount,
		UsageCount:     p.UsageCount,
		UserUsageLimit: p.UserUsageLimit,
		Active:         p.IsActive,
	}
	if p.MaxDiscountAmount.Valid {
		capped := p.MaxDiscountAmount.Decimal
		rule.MaxDiscount = &capped
	}
	if p.UsageLimit.Valid {
		limit := p.UsageLimit.Int32
		rule.UsageLimit = &limit
	}
	if p.ValidFrom.Valid {
		from := p.ValidFrom.Time
		rule.ValidFrom = &from
	}
	if p.ValidUntil.Valid {
		until := p.ValidUntil.Time
		rule.ValidUntil = &until
	}
	return rule
}

func toPgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
