//go:build integration

package checkout_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/noah-isme/toko-pricing/internal/catalog"
	"github.com/noah-isme/toko-pricing/internal/checkout"
	"github.com/noah-isme/toko-pricing/internal/db"
	dbgen "github.com/noah-isme/toko-pricing/internal/db/gen"
	"github.com/noah-isme/toko-pricing/internal/events"
	"github.com/noah-isme/toko-pricing/internal/pricing"
	"github.com/noah-isme/toko-pricing/internal/promo"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "toko",
				"POSTGRES_PASSWORD": "toko",
				"POSTGRES_DB":       "pricing",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://toko:toko@%s:%s/pricing?sslmode=disable", host, port.Port())
	require.NoError(t, db.MigrateUp(dsn))

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestCommittedPricesSurviveCatalogChangeAgainstPostgres(t *testing.T) {
	pool := startPostgres(t)
	q := dbgen.New(pool)
	ctx := context.Background()

	product, err := q.CreateProduct(ctx, dbgen.CreateProductParams{
		ID:        pgtype.UUID{Bytes: uuid.New(), Valid: true},
		Name:      "Stacked mug",
		BasePrice: decimal.RequireFromString("8"),
	})
	require.NoError(t, err)
	productID := uuid.UUID(product.ID.Bytes)

	instruments, err := checkout.NewInstruments(noop.NewMeterProvider().Meter("checkout_it"))
	require.NoError(t, err)
	reader := &catalog.Reader{Q: q}
	c := &checkout.Coordinator{
		DB:      pool,
		Catalog: reader,
		Promos:  &promo.Service{Q: q},
		Events:  &events.Bus{Store: q},
		Metrics: instruments,
		Logger:  zerolog.Nop(),
	}

	user := uuid.New()
	receipt, err := c.Commit(ctx, user, checkout.CommitInput{
		Items: []pricing.Selection{{ProductID: productID, Quantity: 3}},
	})
	require.NoError(t, err)
	require.Equal(t, "24.00", receipt.Total.StringFixed(2))

	require.NoError(t, reader.SetBasePrice(ctx, q, productID, pricing.MustMoney("12.40")))

	items, err := q.ListOrderItemsByOrder(ctx, pgtype.UUID{Bytes: receipt.OrderID, Valid: true})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "8.00", items[0].UnitPrice.StringFixed(2))
	require.Equal(t, "24.00", items[0].TotalPrice.StringFixed(2))

	ord, err := q.GetOrderByID(ctx, pgtype.UUID{Bytes: receipt.OrderID, Valid: true})
	require.NoError(t, err)
	require.Equal(t, "24.00", ord.TotalAmount.StringFixed(2))

	quote, err := c.Quote(ctx, checkout.QuoteInput{Items: []pricing.Selection{{ProductID: productID, Quantity: 3}}})
	require.NoError(t, err)
	require.Equal(t, "37.20", quote.Total.StringFixed(2))
}
