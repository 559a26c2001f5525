package promo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-pricing/internal/common"
	dbgen "github.com/noah-isme/toko-pricing/internal/db/gen"
	"github.com/noah-isme/toko-pricing/internal/queue"
)

type adminStub struct {
	created []dbgen.CreatePromoCodeParams
	updated []dbgen.UpdatePromoCodeParams
	rows    map[string]dbgen.PromoCode
}

func (s *adminStub) CreatePromoCode(_ context.Context, arg dbgen.CreatePromoCodeParams) (dbgen.PromoCode, error) {
	if _, ok := s.rows[arg.Code]; ok {
		return dbgen.PromoCode{}, &pgconn.PgError{Code: "23505", ConstraintName: "promo_codes_code_key"}
	}
	s.created = append(s.created, arg)
	row := promoRow(arg.Code, func(p *dbgen.PromoCode) {
		p.DiscountType = arg.DiscountType
		p.DiscountValue = arg.DiscountValue
		p.MinOrderAmount = arg.MinOrderAmount
		p.MaxDiscountAmount = arg.MaxDiscountAmount
		p.UsageLimit = arg.UsageLimit
		p.UserUsageLimit = arg.UserUsageLimit
		p.IsActive = arg.IsActive
	})
	s.rows[arg.Code] = row
	return row, nil
}

func (s *adminStub) UpdatePromoCode(_ context.Context, arg dbgen.UpdatePromoCodeParams) (dbgen.PromoCode, error) {
	row, ok := s.rows[arg.Code]
	if !ok {
		return dbgen.PromoCode{}, pgx.ErrNoRows
	}
	s.updated = append(s.updated, arg)
	row.IsActive = arg.IsActive
	s.rows[arg.Code] = row
	return row, nil
}

func (s *adminStub) ListPromoCodes(context.Context, dbgen.ListPromoCodesParams) ([]dbgen.PromoCode, error) {
	out := make([]dbgen.PromoCode, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, row)
	}
	return out, nil
}

func (s *adminStub) ListPromoUsagesByCode(context.Context, dbgen.ListPromoUsagesByCodeParams) ([]dbgen.PromoUsage, error) {
	return nil, nil
}

func adminRouter(store *adminStub) http.Handler {
	h := &AdminHandler{
		Q:        store,
		Service:  &Service{Q: &stubQueries{codes: store.rows}},
		Validate: validator.New(),
	}
	r := chi.NewRouter()
	r.Post("/admin/promos", h.Create)
	r.Get("/admin/promos", h.List)
	r.Put("/admin/promos/{code}", h.Update)
	r.Get("/admin/promos/{code}/usages", h.Usages)
	r.Post("/admin/promos/preview", h.Preview)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return rec, out
}

func TestAdminCreatePromo(t *testing.T) {
	store := &adminStub{rows: map[string]dbgen.PromoCode{}}
	h := adminRouter(store)

	rec, body := do(t, h, http.MethodPost, "/admin/promos",
		`{"code":" save20 ","discountType":"percentage","discountValue":"20","maxDiscountAmount":10,"usageLimit":100}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, store.created, 1)
	require.Equal(t, "SAVE20", store.created[0].Code)
	require.EqualValues(t, 1, store.created[0].UserUsageLimit)
	require.True(t, store.created[0].IsActive)
	require.True(t, store.created[0].MaxDiscountAmount.Valid)

	data := body["data"].(map[string]any)
	require.Equal(t, "SAVE20", data["code"])
	require.Equal(t, "10.00", data["maxDiscountAmount"])

	rec, body = do(t, h, http.MethodPost, "/admin/promos",
		`{"code":"SAVE20","discountType":"percentage","discountValue":"5"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "CONFLICT", body["error"].(map[string]any)["code"])
}

func TestAdminCreateRejectsBadPayload(t *testing.T) {
	h := adminRouter(&adminStub{rows: map[string]dbgen.PromoCode{}})
	for _, payload := range []string{
		`{"code":"X","discountType":"bogus","discountValue":"5"}`,
		`{"code":"X","discountType":"percentage","discountValue":"120"}`,
		`{"code":"X","discountType":"fixed_amount","discountValue":"0"}`,
		`{"code":"X","discountType":"fixed_amount","discountValue":"5","minOrderAmount":"-1"}`,
		`{"code":"X","discountType":"fixed_amount","discountValue":"5","validFrom":"2025-02-01T00:00:00Z","validUntil":"2025-01-01T00:00:00Z"}`,
		`{"discountType":"fixed_amount","discountValue":"5"}`,
		`{`,
	} {
		rec, body := do(t, h, http.MethodPost, "/admin/promos", payload)
		require.Equal(t, http.StatusBadRequest, rec.Code, payload)
		require.Equal(t, "BAD_REQUEST", body["error"].(map[string]any)["code"], payload)
	}
}

func TestAdminUpdatePromo(t *testing.T) {
	store := &adminStub{rows: map[string]dbgen.PromoCode{"SAVE5": promoRow("SAVE5", nil)}}
	h := adminRouter(store)

	rec, body := do(t, h, http.MethodPut, "/admin/promos/save5",
		`{"discountType":"fixed_amount","discountValue":"5","isActive":false}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "SAVE5", store.updated[0].Code)
	require.Equal(t, false, body["data"].(map[string]any)["isActive"])

	rec, _ = do(t, h, http.MethodPut, "/admin/promos/MISSING",
		`{"discountType":"fixed_amount","discountValue":"5"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminPreview(t *testing.T) {
	store := &adminStub{rows: map[string]dbgen.PromoCode{"SAVE5": promoRow("SAVE5", nil)}}
	h := adminRouter(store)

	rec, body := do(t, h, http.MethodPost, "/admin/promos/preview", `{"code":"save5","subtotal":"23"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "5.00", body["data"].(map[string]any)["discountAmount"])

	rec, body = do(t, h, http.MethodPost, "/admin/promos/preview", `{"code":"save5","subtotal":"19.99"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "PROMO_MIN_ORDER_NOT_MET", body["error"].(map[string]any)["code"])

	rec, body = do(t, h, http.MethodPost, "/admin/promos/preview", `{"code":"unknown","subtotal":"50"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "PROMO_INVALID_CODE", body["error"].(map[string]any)["code"])
}

type auditRecorder struct {
	payloads []queue.PromoAuditPayload
	err      error
}

func (a *auditRecorder) EnqueuePromoAudit(_ context.Context, p queue.PromoAuditPayload) error {
	a.payloads = append(a.payloads, p)
	return a.err
}

func TestAdminRequestAudit(t *testing.T) {
	audits := &auditRecorder{}
	h := &AdminHandler{Audits: audits}
	req := httptest.NewRequest(http.MethodPost, "/admin/promos/audit", nil)
	req = req.WithContext(common.WithUserID(req.Context(), "ops-user"))
	rec := httptest.NewRecorder()
	h.RequestAudit(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, "ops-user", audits.payloads[0].RequestedBy)

	rec = httptest.NewRecorder()
	(&AdminHandler{}).RequestAudit(rec, httptest.NewRequest(http.MethodPost, "/admin/promos/audit", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestToAppErrorCodes(t *testing.T) {
	cases := map[error]string{
		ErrInvalidCode:       "PROMO_INVALID_CODE",
		ErrInactive:          "PROMO_INACTIVE",
		ErrExpired:           "PROMO_EXPIRED",
		ErrNotYetValid:       "PROMO_NOT_YET_VALID",
		ErrMinOrderNotMet:    "PROMO_MIN_ORDER_NOT_MET",
		ErrUsageExhausted:    "PROMO_USAGE_EXHAUSTED",
		ErrUserLimitExceeded: "PROMO_USER_LIMIT_EXCEEDED",
	}
	for in, code := range cases {
		rec := httptest.NewRecorder()
		common.WriteError(rec, ToAppError(in))
		var out map[string]map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		require.Equal(t, code, out["error"]["code"])
	}
}
