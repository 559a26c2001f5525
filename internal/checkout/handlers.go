package checkout

import (
	"context"
	"errors"
	"net/http"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/noah-isme/toko-pricing/internal/common"
	"github.com/noah-isme/toko-pricing/internal/db"
	"github.com/noah-isme/toko-pricing/internal/pricing"
	"github.com/noah-isme/toko-pricing/internal/promo"
)

// Pricer is the coordinator surface the handlers need.
type Pricer interface {
	Quote(ctx context.Context, in QuoteInput) (Quote, error)
	Commit(ctx context.Context, userID uuid.UUID, in CommitInput) (Receipt, error)
}

type Handler struct {
	Svc      Pricer
	Validate *validator.Validate
}

// Quote handles POST /checkout/quote.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	var payload QuoteInput
	if err := h.decode(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	out, err := h.Svc.Quote(r.Context(), payload)
	if err != nil {
		common.WriteError(w, ToAppError(err))
		return
	}
	common.Data(w, http.StatusOK, out)
}

// Checkout handles POST /checkout for the authenticated user.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	userID, ok := common.UserUUID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	var payload CommitInput
	if err := h.decode(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	out, err := h.Svc.Commit(r.Context(), userID, payload)
	if err != nil {
		common.WriteError(w, ToAppError(err))
		return
	}
	common.Data(w, http.StatusCreated, out)
}

func (h *Handler) decode(r *http.Request, dst any) error {
	return common.DecodeJSON(r, dst, h.Validate)
}

// ToAppError maps pricing and promo failures onto the API error codes.
func ToAppError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pricing.ErrInvalidLineItem):
		return common.NewAppError("INVALID_LINE_ITEM", err.Error(), http.StatusUnprocessableEntity, err)
	case errors.Is(err, pricing.ErrNegativeTotal):
		return common.NewAppError("NEGATIVE_TOTAL_GUARD", "order total could not be computed", http.StatusInternalServerError, err)
	case db.IsRetryable(err):
		return common.NewAppError("COMMIT_CONFLICT", "order could not be committed, retry", http.StatusServiceUnavailable, err)
	}
	if mapped := promo.ToAppError(err); mapped != err {
		return mapped
	}
	if _, ok := common.AsAppError(err); ok {
		return err
	}
	return common.Internal(err)
}
