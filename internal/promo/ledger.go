package promo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/toko-pricing/internal/db"
	dbgen "github.com/noah-isme/toko-pricing/internal/db/gen"
	"github.com/noah-isme/toko-pricing/internal/obs"
	"github.com/noah-isme/toko-pricing/internal/pricing"
)

const usageWithinLimitConstraint = "promo_codes_usage_within_limit"

// LedgerQuerier is the write side of promo usage. Implementations must be bound
// to the transaction that persists the order.
type LedgerQuerier interface {
	ReservePromoUsage(ctx context.Context, id pgtype.UUID) (dbgen.ReservePromoUsageRow, error)
	PromoCodeIsActive(ctx context.Context, id pgtype.UUID) (bool, error)
	ReservePromoUserUsage(ctx context.Context, arg dbgen.ReservePromoUserUsageParams) (int32, error)
	InsertPromoUsage(ctx context.Context, arg dbgen.InsertPromoUsageParams) (dbgen.PromoUsage, error)
}

// Reservation identifies one redemption.
type Reservation struct {
	PromoCodeID uuid.UUID
	UserID      uuid.UUID
	OrderID     uuid.UUID
	Discount    pricing.Money
}

// Ledger is the only writer of promo usage counters.
type Ledger struct{}

// Reserve takes one unit of the code's global quota and of the user's quota and
// records the redemption. Each counter moves through a single conditional
// statement, so concurrent callers serialise on the row and the loser sees zero
// rows instead of overshooting. Nothing is visible to others until the enclosing
// transaction commits, and a rollback returns both units.
func (Ledger) Reserve(ctx context.Context, q LedgerQuerier, r Reservation) (dbgen.PromoUsage, error) {
	usage, err := reserve(ctx, q, r)
	obs.Inc(obs.PromoReservationsTotal, reservationResult(err))
	return usage, err
}

func reserve(ctx context.Context, q LedgerQuerier, r Reservation) (dbgen.PromoUsage, error) {
	if q == nil {
		return dbgen.PromoUsage{}, errors.New("promo ledger: querier not configured")
	}
	if r.PromoCodeID == uuid.Nil || r.UserID == uuid.Nil || r.OrderID == uuid.Nil {
		return dbgen.PromoUsage{}, errors.New("promo ledger: promo, user and order ids are required")
	}
	if r.Discount.IsNegative() {
		return dbgen.PromoUsage{}, errors.New("promo ledger: negative discount")
	}

	promoID := toPgUUID(r.PromoCodeID)
	row, err := q.ReservePromoUsage(ctx, promoID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dbgen.PromoUsage{}, classifyUnreserved(ctx, q, promoID)
		}
		if db.IsConstraintViolation(err, usageWithinLimitConstraint) {
			return dbgen.PromoUsage{}, ErrUsageExhausted
		}
		return dbgen.PromoUsage{}, fmt.Errorf("reserve promo usage: %w", err)
	}

	userID := toPgUUID(r.UserID)
	if _, err := q.ReservePromoUserUsage(ctx, dbgen.ReservePromoUserUsageParams{
		PromoCodeID:    promoID,
		UserID:         userID,
		UserUsageLimit: max(row.UserUsageLimit, 1),
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dbgen.PromoUsage{}, ErrUserLimitExceeded
		}
		return dbgen.PromoUsage{}, fmt.Errorf("reserve promo user usage: %w", err)
	}

	usage, err := q.InsertPromoUsage(ctx, dbgen.InsertPromoUsageParams{
		PromoCodeID:     promoID,
		UserID:          userID,
		OrderID:         toPgUUID(r.OrderID),
		DiscountApplied: r.Discount.Decimal,
	})
	if err != nil {
		return dbgen.PromoUsage{}, fmt.Errorf("record promo usage: %w", err)
	}
	return usage, nil
}

// classifyUnreserved tells why the conditional update matched no row. A code
// deactivated or deleted after evaluation is reported as such; otherwise the
// global quota ran out.
func classifyUnreserved(ctx context.Context, q LedgerQuerier, promoID pgtype.UUID) error {
	active, err := q.PromoCodeIsActive(ctx, promoID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return ErrInvalidCode
	case err != nil:
		return fmt.Errorf("reserve promo usage: %w", err)
	case !active:
		return ErrInactive
	default:
		return ErrUsageExhausted
	}
}

func reservationResult(err error) string {
	switch {
	case err == nil:
		return "reserved"
	case errors.Is(err, ErrUsageExhausted):
		return "exhausted"
	case errors.Is(err, ErrUserLimitExceeded):
		return "user_limit"
	case errors.Is(err, ErrInvalidCode):
		return "invalid"
	default:
		return "error"
	}
}
