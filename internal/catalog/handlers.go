package catalog

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/noah-isme/toko-pricing/internal/common"
	"github.com/noah-isme/toko-pricing/internal/pricing"
)

// AdminHandler serves catalog price maintenance.
type AdminHandler struct {
	Reader   *Reader
	W        PriceWriter
	Validate *validator.Validate
}

type priceRequest struct {
	BasePrice *pricing.Money `json:"basePrice" validate:"required"`
}

type priceView struct {
	ProductID uuid.UUID     `json:"productId"`
	BasePrice pricing.Money `json:"basePrice"`
}

// SetPrice handles PUT /admin/products/{productId}/price.
func (h *AdminHandler) SetPrice(w http.ResponseWriter, r *http.Request) {
	if h.Reader == nil || h.W == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog store not configured", nil)
		return
	}
	productID, err := uuid.Parse(chi.URLParam(r, "productId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid product id", nil)
		return
	}
	var req priceRequest
	if err := common.DecodeJSON(r, &req, h.Validate); err != nil {
		common.WriteError(w, err)
		return
	}
	price := *req.BasePrice
	switch err := h.Reader.SetBasePrice(r.Context(), h.W, productID, price); {
	case err == nil:
		common.Data(w, http.StatusOK, priceView{ProductID: productID, BasePrice: price})
	case errors.Is(err, ErrInvalidPrice):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, ErrProductNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
	default:
		common.WriteError(w, common.Internal(err))
	}
}
