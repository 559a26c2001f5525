// Package fixtures seeds a catalog and promo codes that reproduce the reference
// pricing scenarios. IDs are fixed so reseeding is idempotent.
package fixtures

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-pricing/internal/db"
	dbgen "github.com/noah-isme/toko-pricing/internal/db/gen"
)

// Store is the subset of generated queries the seeder writes through.
type Store interface {
	CreateProduct(ctx context.Context, arg dbgen.CreateProductParams) (dbgen.Product, error)
	CreateProductVariant(ctx context.Context, arg dbgen.CreateProductVariantParams) (dbgen.ProductVariant, error)
	CreatePromoCode(ctx context.Context, arg dbgen.CreatePromoCodeParams) (dbgen.PromoCode, error)
}

// Variant describes one seeded variant. A nil Priority means no override priority.
type Variant struct {
	ID       uuid.UUID
	Name     string
	Behavior dbgen.PriceBehavior
	Modifier string
	Priority *int32
}

// Product describes one seeded product and its variants.
type Product struct {
	ID       uuid.UUID
	Name     string
	Base     string
	Variants []Variant
}

// Promo describes one seeded promo code.
type Promo struct {
	Code        string
	Type        dbgen.DiscountType
	Value       string
	MinOrder    string
	MaxDiscount string
	UsageLimit  *int32
}

func id(n int) uuid.UUID {
	return uuid.MustParse(fmt.Sprintf("00000000-0000-4000-8000-%012d", n))
}

func prio(p int32) *int32 { return &p }

// Products are the catalog behind the pricing scenarios.
var Products = []Product{
	{ID: id(1), Name: "Override shirt", Base: "10", Variants: []Variant{
		{ID: id(101), Name: "Premium cut", Behavior: dbgen.PriceBehaviorOverride, Modifier: "15"},
	}},
	{ID: id(2), Name: "Add-on shirt", Base: "10", Variants: []Variant{
		{ID: id(201), Name: "Large", Behavior: dbgen.PriceBehaviorAdd, Modifier: "3"},
	}},
	{ID: id(3), Name: "Stacked mug", Base: "8", Variants: []Variant{
		{ID: id(301), Name: "Handle", Behavior: dbgen.PriceBehaviorAdd, Modifier: "2"},
		{ID: id(302), Name: "Lid", Behavior: dbgen.PriceBehaviorAdd, Modifier: "1.5"},
	}},
	{ID: id(4), Name: "Priority cap", Base: "5", Variants: []Variant{
		{ID: id(401), Name: "Silver", Behavior: dbgen.PriceBehaviorOverride, Modifier: "10", Priority: prio(1)},
		{ID: id(402), Name: "Gold", Behavior: dbgen.PriceBehaviorOverride, Modifier: "15", Priority: prio(0)},
		{ID: id(403), Name: "Embroidery", Behavior: dbgen.PriceBehaviorAdd, Modifier: "2"},
	}},
	{ID: id(5), Name: "Layered jacket", Base: "20", Variants: []Variant{
		{ID: id(501), Name: "Wool", Behavior: dbgen.PriceBehaviorOverride, Modifier: "25", Priority: prio(2)},
		{ID: id(502), Name: "Leather", Behavior: dbgen.PriceBehaviorOverride, Modifier: "30", Priority: prio(1)},
		{ID: id(503), Name: "Cashmere", Behavior: dbgen.PriceBehaviorOverride, Modifier: "35", Priority: prio(0)},
		{ID: id(504), Name: "Hood", Behavior: dbgen.PriceBehaviorAdd, Modifier: "3"},
		{ID: id(505), Name: "Lining", Behavior: dbgen.PriceBehaviorAdd, Modifier: "2"},
	}},
	{ID: id(6), Name: "Plain poster", Base: "15"},
}

// Promos are the codes behind the discount scenarios.
var Promos = []Promo{
	{Code: "TWENTYCAP10", Type: dbgen.DiscountTypePercentage, Value: "20", MaxDiscount: "10"},
	{Code: "SAVE5", Type: dbgen.DiscountTypeFixedAmount, Value: "5", MinOrder: "20"},
	{Code: "LIMITED", Type: dbgen.DiscountTypeFixedAmount, Value: "2", UsageLimit: prio(5)},
}

// Seed upserts every product and variant and creates promo codes that do not
// exist yet.
func Seed(ctx context.Context, s Store, logger zerolog.Logger) error {
	for _, p := range Products {
		if _, err := s.CreateProduct(ctx, dbgen.CreateProductParams{
			ID:        pgUUID(p.ID),
			Name:      p.Name,
			BasePrice: decimal.RequireFromString(p.Base),
		}); err != nil {
			return fmt.Errorf("seed product %s: %w", p.Name, err)
		}
		for _, v := range p.Variants {
			params := dbgen.CreateProductVariantParams{
				ID:            pgUUID(v.ID),
				ProductID:     pgUUID(p.ID),
				Name:          v.Name,
				PriceModifier: decimal.RequireFromString(v.Modifier),
				PriceBehavior: v.Behavior,
			}
			if v.Priority != nil {
				params.OverridePriority = pgtype.Int4{Int32: *v.Priority, Valid: true}
			}
			if _, err := s.CreateProductVariant(ctx, params); err != nil {
				return fmt.Errorf("seed variant %s/%s: %w", p.Name, v.Name, err)
			}
		}
	}
	for _, p := range Promos {
		_, err := s.CreatePromoCode(ctx, promoParams(p))
		switch {
		case db.IsUniqueViolation(err):
			logger.Debug().Str("promo_code", p.Code).Msg("promo fixture already present")
		case err != nil:
			return fmt.Errorf("seed promo %s: %w", p.Code, err)
		}
	}
	logger.Info().Int("products", len(Products)).Int("promos", len(Promos)).Msg("fixtures seeded")
	return nil
}

// Invalidator drops cached catalog entries.
type Invalidator interface {
	Invalidate(ctx context.Context, productID uuid.UUID, variantIDs ...uuid.UUID) error
}

// Evict drops the cached entries of every seeded product and variant, so a
// reseed that changed a price is visible to the next quote.
func Evict(ctx context.Context, inv Invalidator) error {
	for _, p := range Products {
		variants := make([]uuid.UUID, 0, len(p.Variants))
		for _, v := range p.Variants {
			variants = append(variants, v.ID)
		}
		if err := inv.Invalidate(ctx, p.ID, variants...); err != nil {
			return fmt.Errorf("evict product %s: %w", p.Name, err)
		}
	}
	return nil
}

func promoParams(p Promo) dbgen.CreatePromoCodeParams {
	params := dbgen.CreatePromoCodeParams{
		Code:           p.Code,
		DiscountType:   p.Type,
		DiscountValue:  decimal.RequireFromString(p.Value),
		MinOrderAmount: decimal.Zero,
		UserUsageLimit: 1,
		IsActive:       true,
	}
	if p.MinOrder != "" {
		params.MinOrderAmount = decimal.RequireFromString(p.MinOrder)
	}
	if p.MaxDiscount != "" {
		params.MaxDiscountAmount = decimal.NewNullDecimal(decimal.RequireFromString(p.MaxDiscount))
	}
	if p.UsageLimit != nil {
		params.UsageLimit = pgtype.Int4{Int32: *p.UsageLimit, Valid: true}
	}
	return params
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}
