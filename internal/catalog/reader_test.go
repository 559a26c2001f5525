package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-pricing/internal/catalog"
	dbgen "github.com/noah-isme/toko-pricing/internal/db/gen"
	"github.com/noah-isme/toko-pricing/internal/pricing"
	"github.com/noah-isme/toko-pricing/internal/resilience"
)

type fakeCatalog struct {
	products     map[uuid.UUID]dbgen.Product
	variants     map[uuid.UUID]dbgen.ProductVariant
	productCalls int
	variantCalls int
}

func (f *fakeCatalog) ListProductsByIDs(_ context.Context, ids []pgtype.UUID) ([]dbgen.Product, error) {
	f.productCalls++
	var out []dbgen.Product
	for _, id := range ids {
		if p, ok := f.products[uuid.UUID(id.Bytes)]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCatalog) ListVariantsByIDs(_ context.Context, ids []pgtype.UUID) ([]dbgen.ProductVariant, error) {
	f.variantCalls++
	var out []dbgen.ProductVariant
	for _, id := range ids {
		if v, ok := f.variants[uuid.UUID(id.Bytes)]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeCatalog) UpdateProductBasePrice(_ context.Context, arg dbgen.UpdateProductBasePriceParams) (int64, error) {
	row, ok := f.products[uuid.UUID(arg.ID.Bytes)]
	if !ok {
		return 0, nil
	}
	row.BasePrice = arg.BasePrice
	f.products[uuid.UUID(arg.ID.Bytes)] = row
	return 1, nil
}

func pg(id uuid.UUID) pgtype.UUID { return pgtype.UUID{Bytes: id, Valid: true} }

func newFixture() (*fakeCatalog, uuid.UUID, uuid.UUID, uuid.UUID) {
	productID, overrideID, addID := uuid.New(), uuid.New(), uuid.New()
	f := &fakeCatalog{
		products: map[uuid.UUID]dbgen.Product{
			productID: {ID: pg(productID), Name: "Sourdough", BasePrice: decimal.RequireFromString("5"), IsActive: true},
		},
		variants: map[uuid.UUID]dbgen.ProductVariant{
			overrideID: {
				ID: pg(overrideID), ProductID: pg(productID), Name: "Large",
				PriceModifier: decimal.RequireFromString("15"), PriceBehavior: dbgen.PriceBehaviorOverride,
				OverridePriority: pgtype.Int4{Int32: 0, Valid: true},
			},
			addID: {
				ID: pg(addID), ProductID: pg(productID), Name: "Seeds",
				PriceModifier: decimal.RequireFromString("2"), PriceBehavior: dbgen.PriceBehaviorAdd,
			},
		},
	}
	return f, productID, overrideID, addID
}

func TestReaderLoadsSnapshot(t *testing.T) {
	f, productID, overrideID, addID := newFixture()
	r := &catalog.Reader{Q: f}

	snap, err := r.Load(context.Background(), []pricing.Selection{
		{ProductID: productID, Quantity: 1, VariantIDs: []uuid.UUID{overrideID, addID}},
		{ProductID: productID, Quantity: 2},
	})
	require.NoError(t, err)
	require.Len(t, snap.Products, 1)
	require.Len(t, snap.Variants, 2)
	require.NotNil(t, snap.Variants[overrideID].Priority)
	require.Nil(t, snap.Variants[addID].Priority)
	require.Equal(t, pricing.BehaviorAdd, snap.Variants[addID].Behavior)

	items, subtotal, err := pricing.Aggregate([]pricing.Selection{
		{ProductID: productID, Quantity: 1, VariantIDs: []uuid.UUID{overrideID, addID}},
	}, snap.Products, snap.Variants)
	require.NoError(t, err)
	require.Equal(t, "17.00", items[0].UnitPrice.StringFixed(2))
	require.Equal(t, "17.00", subtotal.StringFixed(2))
}

func TestReaderCachesAndInvalidates(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f, productID, overrideID, _ := newFixture()
	r := &catalog.Reader{Q: f, Cache: catalog.NewCache(client, time.Minute)}
	ctx := context.Background()

	_, err := r.Products(ctx, []uuid.UUID{productID})
	require.NoError(t, err)
	_, err = r.Variants(ctx, []uuid.UUID{overrideID})
	require.NoError(t, err)
	require.Equal(t, 1, f.productCalls)
	require.Equal(t, 1, f.variantCalls)

	products, err := r.Products(ctx, []uuid.UUID{productID, productID})
	require.NoError(t, err)
	require.Equal(t, "5", products[productID].BasePrice.String())
	variants, err := r.Variants(ctx, []uuid.UUID{overrideID})
	require.NoError(t, err)
	require.EqualValues(t, 0, *variants[overrideID].Priority)
	require.Equal(t, 1, f.productCalls, "second read should hit the cache")
	require.Equal(t, 1, f.variantCalls)

	mr.FastForward(2 * time.Minute)
	_, err = r.Products(ctx, []uuid.UUID{productID})
	require.NoError(t, err)
	require.Equal(t, 2, f.productCalls, "expired entries reload")

	row := f.products[productID]
	row.BasePrice = decimal.RequireFromString("6.50")
	f.products[productID] = row
	require.NoError(t, r.Invalidate(ctx, productID, overrideID))
	products, err = r.Products(ctx, []uuid.UUID{productID})
	require.NoError(t, err)
	require.Equal(t, "6.5", products[productID].BasePrice.String())
}

func TestReaderWithQuerierSkipsCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f, productID, _, _ := newFixture()
	cached := &catalog.Reader{Q: f, Cache: catalog.NewCache(client, time.Minute)}
	tx := cached.WithQuerier(f)
	for i := 0; i < 3; i++ {
		_, err := tx.Products(context.Background(), []uuid.UUID{productID})
		require.NoError(t, err)
	}
	require.Equal(t, 3, f.productCalls)
	require.Empty(t, mr.Keys())
}

func TestReaderFallsBackWhenRedisFails(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	f, productID, _, _ := newFixture()
	cache := catalog.NewCache(client, time.Minute)
	cache.Breaker = resilience.NewBreaker("catalog-cache", 2, 0.5, time.Hour)
	r := &catalog.Reader{Q: f, Cache: cache}
	ctx := context.Background()

	mr.SetError("LOADING redis is loading")
	for i := 0; i < 3; i++ {
		products, err := r.Products(ctx, []uuid.UUID{productID})
		require.NoError(t, err)
		require.Contains(t, products, productID)
	}
	require.Equal(t, 3, f.productCalls)
	require.Equal(t, resilience.Open, cache.Breaker.State())

	mr.SetError("")
	_, err := r.Products(ctx, []uuid.UUID{productID})
	require.NoError(t, err)
	require.Empty(t, mr.Keys(), "open breaker skips cache writes")
}

func TestReaderUnknownIDsAreAbsent(t *testing.T) {
	f, _, _, _ := newFixture()
	r := &catalog.Reader{Q: f}
	products, err := r.Products(context.Background(), []uuid.UUID{uuid.New()})
	require.NoError(t, err)
	require.Empty(t, products)
}
