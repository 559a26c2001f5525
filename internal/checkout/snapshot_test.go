package checkout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-pricing/internal/catalog"
	"github.com/noah-isme/toko-pricing/internal/common"
	"github.com/noah-isme/toko-pricing/internal/order"
	"github.com/noah-isme/toko-pricing/internal/pricing"
)

type orderBody struct {
	Data struct {
		Subtotal    string `json:"subtotal"`
		TotalAmount string `json:"totalAmount"`
		Items       []struct {
			UnitPrice  string `json:"unitPrice"`
			TotalPrice string `json:"totalPrice"`
		} `json:"items"`
	} `json:"data"`
}

func getOrder(t *testing.T, q order.Querier, user, orderID uuid.UUID) orderBody {
	t.Helper()
	router := chi.NewRouter()
	router.Get("/orders/{orderId}", (&order.Handler{Q: q}).Get)
	req := httptest.NewRequest(http.MethodGet, "/orders/"+orderID.String(), nil)
	req = req.WithContext(common.WithUserID(req.Context(), user.String()))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body orderBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestCommittedOrderKeepsPricesAfterCatalogChange(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	h := newHarness(t)
	h.c.Catalog = &catalog.Reader{Q: h.store, Cache: catalog.NewCache(client, time.Minute)}
	items := h.cart()
	h.store.addPromo("SAVE5", nil)
	ctx := context.Background()

	q, err := h.c.Quote(ctx, QuoteInput{Items: items})
	require.NoError(t, err)
	require.Equal(t, "23.00", q.Subtotal.StringFixed(2))

	receipt, err := h.c.Commit(ctx, testUser, CommitInput{Items: items, PromoCode: "SAVE5"})
	require.NoError(t, err)
	require.Len(t, h.store.items, 1)

	require.NoError(t, h.c.Catalog.SetBasePrice(ctx, h.store, items[0].ProductID, pricing.MustMoney("20")))

	stored := h.store.items[0]
	require.Equal(t, "11.50", stored.UnitPrice.StringFixed(2))
	require.Equal(t, "23.00", stored.TotalPrice.StringFixed(2))
	require.Equal(t, "23.00", h.store.orders[0].Subtotal.StringFixed(2))
	require.Equal(t, "18.00", h.store.orders[0].TotalAmount.StringFixed(2))

	view := getOrder(t, h.store, testUser, receipt.OrderID)
	require.Equal(t, "23.00", view.Data.Subtotal)
	require.Equal(t, "18.00", view.Data.TotalAmount)
	require.Len(t, view.Data.Items, 1)
	require.Equal(t, "11.50", view.Data.Items[0].UnitPrice)
	require.Equal(t, "23.00", view.Data.Items[0].TotalPrice)

	// new carts see the new price once the cached product is dropped
	q, err = h.c.Quote(ctx, QuoteInput{Items: items})
	require.NoError(t, err)
	require.Equal(t, "23.50", q.Items[0].UnitPrice.StringFixed(2))
	require.Equal(t, "47.00", q.Subtotal.StringFixed(2))
}

func TestSetBasePriceUnknownProduct(t *testing.T) {
	h := newHarness(t)
	err := h.c.Catalog.SetBasePrice(context.Background(), h.store, uuid.New(), pricing.MustMoney("1"))
	require.ErrorIs(t, err, catalog.ErrProductNotFound)
}
