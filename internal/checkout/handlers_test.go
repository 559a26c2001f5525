package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-pricing/internal/common"
	"github.com/noah-isme/toko-pricing/internal/pricing"
	"github.com/noah-isme/toko-pricing/internal/promo"
)

type stubPricer struct {
	quote     Quote
	receipt   Receipt
	err       error
	gotUser   uuid.UUID
	gotCommit CommitInput
}

func (s *stubPricer) Quote(context.Context, QuoteInput) (Quote, error) {
	return s.quote, s.err
}

func (s *stubPricer) Commit(_ context.Context, userID uuid.UUID, in CommitInput) (Receipt, error) {
	s.gotUser, s.gotCommit = userID, in
	return s.receipt, s.err
}

func call(h http.HandlerFunc, body string, user string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if user != "" {
		req = req.WithContext(common.WithUserID(req.Context(), user))
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error common.ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestQuoteHandler(t *testing.T) {
	stub := &stubPricer{quote: Quote{
		Summary:   pricing.Compute(pricing.MustMoney("23"), pricing.MustMoney("5"), pricing.ZeroMoney()),
		PromoCode: "SAVE5",
	}}
	h := &Handler{Svc: stub, Validate: validator.New()}
	product := uuid.New()

	rec := call(h.Quote, fmt.Sprintf(`{"items":[{"productId":%q,"quantity":1}],"promoCode":"save5"}`, product), "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"subtotal":"23.00"`)
	require.Contains(t, rec.Body.String(), `"discountAmount":"5.00"`)
	require.Contains(t, rec.Body.String(), `"totalAmount":"18.00"`)

	rec = call(h.Quote, `{"items":[]}`, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(h.Quote, `{"items":[{"quantity":1}]}`, "")
	require.Equal(t, http.StatusBadRequest, rec.Code, "productId is required")

	rec = call(h.Quote, fmt.Sprintf(`{"items":[{"productId":%q,"quantity":2000000000}]}`, product), "")
	require.Equal(t, http.StatusBadRequest, rec.Code, "quantity is bounded")

	rec = call(h.Quote, `not json`, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckoutHandler(t *testing.T) {
	orderID := uuid.New()
	stub := &stubPricer{receipt: Receipt{OrderID: orderID, Status: "pending"}}
	h := &Handler{Svc: stub, Validate: validator.New()}
	user := uuid.New()
	body := fmt.Sprintf(`{"items":[{"productId":%q,"quantity":2}],"deliveryFee":"4.00"}`, uuid.New())

	rec := call(h.Checkout, body, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(h.Checkout, body, user.String())
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), orderID.String())
	require.Equal(t, user, stub.gotUser)
	require.Equal(t, "4.00", stub.gotCommit.DeliveryFee.StringFixed(2))
	require.Equal(t, int32(2), stub.gotCommit.Items[0].Quantity)
}

func TestCheckoutHandlerErrorCodes(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("item 0: %w", pricing.ErrInvalidLineItem), http.StatusUnprocessableEntity, "INVALID_LINE_ITEM"},
		{ErrInvalidDeliveryFee, http.StatusUnprocessableEntity, "INVALID_LINE_ITEM"},
		{&StageError{Stage: StateReserving, Err: promo.ErrUsageExhausted}, http.StatusConflict, "PROMO_USAGE_EXHAUSTED"},
		{promo.ErrUserLimitExceeded, http.StatusConflict, "PROMO_USER_LIMIT_EXCEEDED"},
		{promo.ErrInactive, http.StatusUnprocessableEntity, "PROMO_INACTIVE"},
		{promo.ErrInvalidCode, http.StatusNotFound, "PROMO_INVALID_CODE"},
		{promo.ErrMinOrderNotMet, http.StatusUnprocessableEntity, "PROMO_MIN_ORDER_NOT_MET"},
		{pricing.ErrNegativeTotal, http.StatusInternalServerError, "NEGATIVE_TOTAL_GUARD"},
		{&StageError{Stage: StateReserving, Err: &pgconn.PgError{Code: "40P01"}}, http.StatusServiceUnavailable, "COMMIT_CONFLICT"},
		{errors.New("db down"), http.StatusInternalServerError, "INTERNAL"},
	}
	user := uuid.New().String()
	body := fmt.Sprintf(`{"items":[{"productId":%q,"quantity":1}]}`, uuid.New())
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			h := &Handler{Svc: &stubPricer{err: tc.err}}
			rec := call(h.Checkout, body, user)
			require.Equal(t, tc.status, rec.Code)
			require.Equal(t, tc.code, errorCode(t, rec))
		})
	}
}
