package promo

import (
	"errors"
	"net/http"

	"github.com/noah-isme/toko-pricing/internal/common"
)

// ToAppError maps promo failures to their HTTP representation. Unknown errors
// are returned unchanged.
func ToAppError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInactive):
		return common.NewAppError("PROMO_INACTIVE", "promo code is not active", http.StatusUnprocessableEntity, err)
	case errors.Is(err, ErrInvalidCode):
		return common.NewAppError("PROMO_INVALID_CODE", "promo code not found", http.StatusNotFound, err)
	case errors.Is(err, ErrExpired):
		return common.NewAppError("PROMO_EXPIRED", "promo code has expired", http.StatusUnprocessableEntity, err)
	case errors.Is(err, ErrNotYetValid):
		return common.NewAppError("PROMO_NOT_YET_VALID", "promo code is not valid yet", http.StatusUnprocessableEntity, err)
	case errors.Is(err, ErrMinOrderNotMet):
		return common.NewAppError("PROMO_MIN_ORDER_NOT_MET", "order subtotal below promo minimum", http.StatusUnprocessableEntity, err)
	case errors.Is(err, ErrUsageExhausted):
		return common.NewAppError("PROMO_USAGE_EXHAUSTED", "promo code usage limit reached", http.StatusConflict, err)
	case errors.Is(err, ErrUserLimitExceeded):
		return common.NewAppError("PROMO_USER_LIMIT_EXCEEDED", "promo code already used", http.StatusConflict, err)
	}
	return err
}
