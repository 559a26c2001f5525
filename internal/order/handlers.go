package order

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/toko-pricing/internal/common"
	dbgen "github.com/noah-isme/toko-pricing/internal/db/gen"
	"github.com/noah-isme/toko-pricing/internal/pricing"
)

// Querier is the read side of committed orders.
type Querier interface {
	GetOrderByID(ctx context.Context, id pgtype.UUID) (dbgen.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID pgtype.UUID) ([]dbgen.OrderItem, error)
}

type Handler struct {
	Q Querier
}

type itemView struct {
	LineNo     int32         `json:"lineNo"`
	ProductID  uuid.UUID     `json:"productId"`
	VariantIDs []uuid.UUID   `json:"variantIds"`
	Quantity   int32         `json:"quantity"`
	UnitPrice  pricing.Money `json:"unitPrice"`
	TotalPrice pricing.Money `json:"totalPrice"`
}

type orderView struct {
	ID             uuid.UUID     `json:"id"`
	Status         string        `json:"status"`
	PromoCodeID    *uuid.UUID    `json:"promoCodeId,omitempty"`
	Subtotal       pricing.Money `json:"subtotal"`
	DiscountAmount pricing.Money `json:"discountAmount"`
	DeliveryFee    pricing.Money `json:"deliveryFee"`
	TotalAmount    pricing.Money `json:"totalAmount"`
	CreatedAt      time.Time     `json:"createdAt"`
	Items          []itemView    `json:"items"`
}

// Get handles GET /orders/{orderId}. Prices come from the order rows, never
// from the current catalog. Other users' orders are reported as missing.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order queries not configured", nil)
		return
	}
	userID, ok := common.UserUUID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	ord, err := h.Q.GetOrderByID(r.Context(), pgtype.UUID{Bytes: orderID, Valid: true})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.WriteError(w, common.Internal(err))
		return
	}
	if uuid.UUID(ord.UserID.Bytes) != userID && !common.HasRole(r.Context(), "admin") {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		return
	}
	items, err := h.Q.ListOrderItemsByOrder(r.Context(), ord.ID)
	if err != nil {
		common.WriteError(w, common.Internal(err))
		return
	}
	common.Data(w, http.StatusOK, toView(ord, items))
}

func toView(ord dbgen.Order, items []dbgen.OrderItem) orderView {
	view := orderView{
		ID:             uuid.UUID(ord.ID.Bytes),
		Status:         ord.Status,
		Subtotal:       pricing.NewMoney(ord.Subtotal),
		DiscountAmount: pricing.NewMoney(ord.DiscountAmount),
		DeliveryFee:    pricing.NewMoney(ord.DeliveryFee),
		TotalAmount:    pricing.NewMoney(ord.TotalAmount),
		CreatedAt:      ord.CreatedAt.Time,
		Items:          make([]itemView, 0, len(items)),
	}
	if ord.PromoCodeID.Valid {
		id := uuid.UUID(ord.PromoCodeID.Bytes)
		view.PromoCodeID = &id
	}
	for _, it := range items {
		variants := make([]uuid.UUID, 0, len(it.VariantIds))
		for _, v := range it.VariantIds {
			variants = append(variants, uuid.UUID(v.Bytes))
		}
		view.Items = append(view.Items, itemView{
			LineNo:     it.LineNo,
			ProductID:  uuid.UUID(it.ProductID.Bytes),
			VariantIDs: variants,
			Quantity:   it.Quantity,
			UnitPrice:  pricing.NewMoney(it.UnitPrice),
			TotalPrice: pricing.NewMoney(it.TotalPrice),
		})
	}
	return view
}
