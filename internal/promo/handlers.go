package promo

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-pricing/internal/common"
	"github.com/noah-isme/toko-pricing/internal/db"
	dbgen "github.com/noah-isme/toko-pricing/internal/db/gen"
	"github.com/noah-isme/toko-pricing/internal/pricing"
	"github.com/noah-isme/toko-pricing/internal/queue"
)

// AdminStore is the subset of generated queries used by the admin endpoints.
type AdminStore interface {
	CreatePromoCode(ctx context.Context, arg dbgen.CreatePromoCodeParams) (dbgen.PromoCode, error)
	UpdatePromoCode(ctx context.Context, arg dbgen.UpdatePromoCodeParams) (dbgen.PromoCode, error)
	ListPromoCodes(ctx context.Context, arg dbgen.ListPromoCodesParams) ([]dbgen.PromoCode, error)
	ListPromoUsagesByCode(ctx context.Context, arg dbgen.ListPromoUsagesByCodeParams) ([]dbgen.PromoUsage, error)
}

// AuditRequester queues an out-of-schedule usage audit.
type AuditRequester interface {
	EnqueuePromoAudit(ctx context.Context, payload queue.PromoAuditPayload) error
}

// AdminHandler serves promo code management and the discount preview.
type AdminHandler struct {
	Q        AdminStore
	Service  *Service
	Audits   AuditRequester
	Validate *validator.Validate
}

type promoPayload struct {
	Code              string           `json:"code" validate:"omitempty,max=64"`
	DiscountType      string           `json:"discountType" validate:"required,oneof=percentage fixed_amount"`
	DiscountValue     decimal.Decimal  `json:"discountValue"`
	MinOrderAmount    decimal.Decimal  `json:"minOrderAmount"`
	MaxDiscountAmount *decimal.Decimal `json:"maxDiscountAmount"`
	UsageLimit        *int32           `json:"usageLimit" validate:"omitempty,min=0"`
	UserUsageLimit    int32            `json:"userUsageLimit" validate:"omitempty,min=1"`
	ValidFrom         *time.Time       `json:"validFrom"`
	ValidUntil        *time.Time       `json:"validUntil"`
	IsActive          *bool            `json:"isActive"`
}

type previewRequest struct {
	Code     string        `json:"code" validate:"required"`
	Subtotal pricing.Money `json:"subtotal"`
	UserID   *uuid.UUID    `json:"userId"`
}

type promoView struct {
	ID                uuid.UUID       `json:"id"`
	Code              string          `json:"code"`
	DiscountType      DiscountType    `json:"discountType"`
	DiscountValue     decimal.Decimal `json:"discountValue"`
	MinOrderAmount    pricing.Money   `json:"minOrderAmount"`
	MaxDiscountAmount *pricing.Money  `json:"maxDiscountAmount,omitempty"`
	UsageLimit        *int32          `json:"usageLimit,omitempty"`
	UsageCount        int32           `json:"usageCount"`
	UserUsageLimit    int32           `json:"userUsageLimit"`
	ValidFrom         *time.Time      `json:"validFrom,omitempty"`
	ValidUntil        *time.Time      `json:"validUntil,omitempty"`
	IsActive          bool            `json:"isActive"`
}

type usageView struct {
	ID              uuid.UUID     `json:"id"`
	UserID          uuid.UUID     `json:"userId"`
	OrderID         uuid.UUID     `json:"orderId"`
	DiscountApplied pricing.Money `json:"discountApplied"`
	UsedAt          time.Time     `json:"usedAt"`
}

// Create handles POST /admin/promos.
func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "promo store not configured", nil)
		return
	}
	payload, err := h.decode(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	code := NormalizeCode(payload.Code)
	if code == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "code is required", nil)
		return
	}
	row, err := h.Q.CreatePromoCode(r.Context(), dbgen.CreatePromoCodeParams(payload.params(code)))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, toView(row))
}

// Update handles PUT /admin/promos/{code}. The usage counter is never writable.
func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "promo store not configured", nil)
		return
	}
	payload, err := h.decode(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	row, err := h.Q.UpdatePromoCode(r.Context(), payload.params(NormalizeCode(chi.URLParam(r, "code"))))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	common.Data(w, http.StatusOK, toView(row))
}

// List handles GET /admin/promos.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "promo store not configured", nil)
		return
	}
	page := common.ParsePage(r, 20, 100)
	rows, err := h.Q.ListPromoCodes(r.Context(), dbgen.ListPromoCodesParams{Limit: page.Limit, Offset: page.Offset})
	if err != nil {
		common.WriteError(w, common.Internal(err))
		return
	}
	views := make([]promoView, 0, len(rows))
	for _, row := range rows {
		views = append(views, toView(row))
	}
	common.Data(w, http.StatusOK, views)
}

// Usages handles GET /admin/promos/{code}/usages.
func (h *AdminHandler) Usages(w http.ResponseWriter, r *http.Request) {
	if h.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "promo store not configured", nil)
		return
	}
	page := common.ParsePage(r, 50, 200)
	rows, err := h.Q.ListPromoUsagesByCode(r.Context(), dbgen.ListPromoUsagesByCodeParams{
		Code:   NormalizeCode(chi.URLParam(r, "code")),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		common.WriteError(w, common.Internal(err))
		return
	}
	views := make([]usageView, 0, len(rows))
	for _, row := range rows {
		views = append(views, usageView{
			ID:              uuid.UUID(row.ID.Bytes),
			UserID:          uuid.UUID(row.UserID.Bytes),
			OrderID:         uuid.UUID(row.OrderID.Bytes),
			DiscountApplied: pricing.NewMoney(row.DiscountApplied),
			UsedAt:          row.UsedAt.Time,
		})
	}
	common.Data(w, http.StatusOK, views)
}

// Preview handles POST /admin/promos/preview. It validates without reserving.
func (h *AdminHandler) Preview(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "promo service not configured", nil)
		return
	}
	var req previewRequest
	if err := common.DecodeJSON(r, &req, h.Validate); err != nil {
		common.WriteError(w, err)
		return
	}
	if req.Subtotal.IsNegative() {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "subtotal must not be negative", nil)
		return
	}
	applied, err := h.Service.Evaluate(r.Context(), req.Code, req.Subtotal, req.UserID)
	if err != nil {
		common.WriteError(w, ToAppError(err))
		return
	}
	common.Data(w, http.StatusOK, applied)
}

// RequestAudit handles POST /admin/promos/audit.
func (h *AdminHandler) RequestAudit(w http.ResponseWriter, r *http.Request) {
	if h.Audits == nil {
		common.JSONError(w, http.StatusServiceUnavailable, "AUDIT_UNAVAILABLE", "audit queue not configured", nil)
		return
	}
	requestedBy, _ := common.UserID(r.Context())
	if err := h.Audits.EnqueuePromoAudit(r.Context(), queue.PromoAuditPayload{RequestedBy: requestedBy}); err != nil {
		common.WriteError(w, common.Internal(err))
		return
	}
	common.Data(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (h *AdminHandler) decode(r *http.Request) (promoPayload, error) {
	var p promoPayload
	if err := common.DecodeJSON(r, &p, h.Validate); err != nil {
		return p, err
	}
	if p.UserUsageLimit == 0 {
		p.UserUsageLimit = 1
	}
	if p.IsActive == nil {
		active := true
		p.IsActive = &active
	}
	return p, p.check()
}

func (p promoPayload) check() error {
	switch {
	case !p.DiscountValue.IsPositive():
		return common.BadRequest("discountValue must be positive", nil)
	case p.DiscountType == string(DiscountPercentage) && p.DiscountValue.GreaterThan(hundred):
		return common.BadRequest("percentage discount must not exceed 100", nil)
	case p.MinOrderAmount.IsNegative():
		return common.BadRequest("minOrderAmount must not be negative", nil)
	case p.MaxDiscountAmount != nil && p.MaxDiscountAmount.IsNegative():
		return common.BadRequest("maxDiscountAmount must not be negative", nil)
	case p.ValidFrom != nil && p.ValidUntil != nil && p.ValidUntil.Before(*p.ValidFrom):
		return common.BadRequest("validUntil must not precede validFrom", nil)
	}
	return nil
}

func (p promoPayload) params(code string) dbgen.UpdatePromoCodeParams {
	params := dbgen.UpdatePromoCodeParams{
		Code:              code,
		DiscountType:      dbgen.DiscountType(p.DiscountType),
		DiscountValue:     p.DiscountValue,
		MinOrderAmount:    p.MinOrderAmount,
		MaxDiscountAmount: nullDecimal(p.MaxDiscountAmount),
		UserUsageLimit:    p.UserUsageLimit,
		ValidFrom:         timestamptz(p.ValidFrom),
		ValidUntil:        timestamptz(p.ValidUntil),
		IsActive:          p.IsActive != nil && *p.IsActive,
	}
	if p.UsageLimit != nil {
		params.UsageLimit = pgtype.Int4{Int32: *p.UsageLimit, Valid: true}
	}
	return params
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case db.IsNotFound(err):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "promo code not found", nil)
	case db.IsUniqueViolation(err):
		common.JSONError(w, http.StatusConflict, "CONFLICT", "promo code already exists", nil)
	case db.IsConstraintViolation(err, ""):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "promo code violates a constraint", nil)
	default:
		common.WriteError(w, common.Internal(err))
	}
}

func toView(row dbgen.PromoCode) promoView {
	rule := RuleFromModel(row)
	v := promoView{
		ID:             rule.ID,
		Code:           rule.Code,
		DiscountType:   rule.Type,
		DiscountValue:  rule.Value,
		MinOrderAmount: pricing.NewMoney(rule.MinOrderAmount),
		UsageLimit:     rule.UsageLimit,
		UsageCount:     rule.UsageCount,
		UserUsageLimit: rule.UserUsageLimit,
		ValidFrom:      rule.ValidFrom,
		ValidUntil:     rule.ValidUntil,
		IsActive:       rule.Active,
	}
	if rule.MaxDiscount != nil {
		capped := pricing.NewMoney(*rule.MaxDiscount)
		v.MaxDiscountAmount = &capped
	}
	return v
}

func timestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}
