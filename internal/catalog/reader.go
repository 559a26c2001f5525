package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	dbgen "github.com/noah-isme/toko-pricing/internal/db/gen"
	"github.com/noah-isme/toko-pricing/internal/pricing"
)

// Querier is the catalog subset of the generated queries.
type Querier interface {
	ListProductsByIDs(ctx context.Context, ids []pgtype.UUID) ([]dbgen.Product, error)
	ListVariantsByIDs(ctx context.Context, ids []pgtype.UUID) ([]dbgen.ProductVariant, error)
}

// Snapshot is the catalog state a cart is priced against.
type Snapshot struct {
	Products map[uuid.UUID]pricing.Product
	Variants map[uuid.UUID]pricing.Variant
}

// Reader loads products and variants, optionally through the cache.
type Reader struct {
	Q      Querier
	Cache  *Cache
	Logger zerolog.Logger
}

// WithQuerier returns an uncached reader over q. Commits read through the
// transaction so the prices they freeze are the ones in the database.
func (r *Reader) WithQuerier(q Querier) *Reader {
	cp := &Reader{Q: q}
	if r != nil {
		cp.Logger = r.Logger
	}
	return cp
}

// Load returns the products and variants referenced by selections. Ids that do
// not resolve are simply absent; pricing reports them.
func (r *Reader) Load(ctx context.Context, selections []pricing.Selection) (Snapshot, error) {
	var productIDs, variantIDs []uuid.UUID
	for _, sel := range selections {
		productIDs = append(productIDs, sel.ProductID)
		variantIDs = append(variantIDs, sel.VariantIDs...)
	}
	products, err := r.Products(ctx, productIDs)
	if err != nil {
		return Snapshot{}, err
	}
	variants, err := r.Variants(ctx, variantIDs)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Products: products, Variants: variants}, nil
}

// Products returns the active products among ids.
func (r *Reader) Products(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]pricing.Product, error) {
	out := make(map[uuid.UUID]pricing.Product, len(ids))
	misses := r.fromCache(ctx, "product:", dedupe(ids), func(id uuid.UUID, data []byte) error {
		var p pricing.Product
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		out[id] = p
		return nil
	})
	if len(misses) == 0 {
		return out, nil
	}
	if r.Q == nil {
		return nil, fmt.Errorf("catalog: querier not configured")
	}
	rows, err := r.Q.ListProductsByIDs(ctx, toPgUUIDs(misses))
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	fresh := make(map[string]any, len(rows))
	for _, row := range rows {
		p := pricing.Product{ID: uuid.UUID(row.ID.Bytes), BasePrice: row.BasePrice}
		out[p.ID] = p
		fresh[productKey(p.ID)] = p
	}
	r.store(ctx, fresh)
	return out, nil
}

// Variants returns the variants among ids.
func (r *Reader) Variants(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]pricing.Variant, error) {
	out := make(map[uuid.UUID]pricing.Variant, len(ids))
	misses := r.fromCache(ctx, "variant:", dedupe(ids), func(id uuid.UUID, data []byte) error {
		var v pricing.Variant
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		out[id] = v
		return nil
	})
	if len(misses) == 0 {
		return out, nil
	}
	if r.Q == nil {
		return nil, fmt.Errorf("catalog: querier not configured")
	}
	rows, err := r.Q.ListVariantsByIDs(ctx, toPgUUIDs(misses))
	if err != nil {
		return nil, fmt.Errorf("load variants: %w", err)
	}
	fresh := make(map[string]any, len(rows))
	for _, row := range rows {
		v := VariantFromModel(row)
		out[v.ID] = v
		fresh[variantKey(v.ID)] = v
	}
	r.store(ctx, fresh)
	return out, nil
}

// Invalidate drops the cached entries of a product and its variants.
func (r *Reader) Invalidate(ctx context.Context, productID uuid.UUID, variantIDs ...uuid.UUID) error {
	if r == nil {
		return nil
	}
	keys := []string{productKey(productID)}
	for _, id := range variantIDs {
		keys = append(keys, variantKey(id))
	}
	return r.Cache.Invalidate(ctx, keys...)
}

// VariantFromModel converts the generated row into its pricing projection.
func VariantFromModel(row dbgen.ProductVariant) pricing.Variant {
	v := pricing.Variant{
		ID:        uuid.UUID(row.ID.Bytes),
		ProductID: uuid.UUID(row.ProductID.Bytes),
		Modifier:  row.PriceModifier,
		Behavior:  pricing.Behavior(row.PriceBehavior),
	}
	if row.OverridePriority.Valid {
		prio := row.OverridePriority.Int32
		v.Priority = &prio
	}
	return v
}

func (r *Reader) fromCache(ctx context.Context, kind string, ids []uuid.UUID, decode func(uuid.UUID, []byte) error) []uuid.UUID {
	if len(ids) == 0 {
		return nil
	}
	if r.Cache == nil {
		return ids
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = keyPrefix + kind + id.String()
	}
	missKeys, err := r.Cache.GetJSON(ctx, keys, func(key string, data []byte) error {
		id, err := uuid.Parse(strings.TrimPrefix(key, keyPrefix+kind))
		if err != nil {
			return err
		}
		return decode(id, data)
	})
	if err != nil {
		r.Logger.Warn().Err(err).Msg("catalog cache read failed")
		return ids
	}
	misses := make([]uuid.UUID, 0, len(missKeys))
	for _, key := range missKeys {
		if id, err := uuid.Parse(strings.TrimPrefix(key, keyPrefix+kind)); err == nil {
			misses = append(misses, id)
		}
	}
	return misses
}

func (r *Reader) store(ctx context.Context, entries map[string]any) {
	if r.Cache == nil {
		return
	}
	if err := r.Cache.SetJSON(ctx, entries); err != nil {
		r.Logger.Warn().Err(err).Msg("catalog cache write failed")
	}
}

func productKey(id uuid.UUID) string { return keyPrefix + "product:" + id.String() }
func variantKey(id uuid.UUID) string { return keyPrefix + "variant:" + id.String() }

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func toPgUUIDs(ids []uuid.UUID) []pgtype.UUID {
	out := make([]pgtype.UUID, len(ids))
	for i, id := range ids {
		out[i] = pgtype.UUID{Bytes: id, Valid: true}
	}
	return out
}
