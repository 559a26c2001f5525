package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	dbgen "github.com/noah-isme/toko-pricing/internal/db/gen"
	"github.com/noah-isme/toko-pricing/internal/pricing"
)

var (
	ErrProductNotFound = errors.New("catalog: product not found")
	ErrInvalidPrice    = errors.New("catalog: invalid base price")
)

// PriceWriter changes stored catalog prices.
type PriceWriter interface {
	UpdateProductBasePrice(ctx context.Context, arg dbgen.UpdateProductBasePriceParams) (int64, error)
}

// SetBasePrice stores a new base price for productID and drops its cached
// entry so the next quote sees it. Committed orders keep the prices frozen on
// their line items.
func (r *Reader) SetBasePrice(ctx context.Context, w PriceWriter, productID uuid.UUID, price pricing.Money) error {
	if w == nil {
		return errors.New("catalog: price writer not configured")
	}
	if price.IsNegative() || price.GreaterThan(pricing.MaxAmount) {
		return fmt.Errorf("%w: must be between 0 and %s", ErrInvalidPrice, pricing.MaxAmount.StringFixed(2))
	}
	n, err := w.UpdateProductBasePrice(ctx, dbgen.UpdateProductBasePriceParams{
		ID:        pgtype.UUID{Bytes: productID, Valid: true},
		BasePrice: price.Decimal,
	})
	if err != nil {
		return fmt.Errorf("update base price: %w", err)
	}
	if n == 0 {
		return ErrProductNotFound
	}
	if err := r.Invalidate(ctx, productID); err != nil {
		// The entry expires on its own; a stale quote is still re-priced at commit.
		r.Logger.Warn().Err(err).Str("product_id", productID.String()).Msg("catalog cache invalidation failed")
	}
	return nil
}
