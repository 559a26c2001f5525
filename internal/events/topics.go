package events

import (
	"github.com/google/uuid"

	"github.com/noah-isme/toko-pricing/internal/pricing"
)

// Topic constants for domain events emitted after a checkout commits.
const (
	TopicOrderCommitted = "order.committed"
	TopicPromoRedeemed  = "promo.redeemed"
)

// OrderCommitted is the payload of TopicOrderCommitted.
type OrderCommitted struct {
	OrderID        uuid.UUID     `json:"orderId"`
	UserID         uuid.UUID     `json:"userId"`
	PromoCode      string        `json:"promoCode,omitempty"`
	Subtotal       pricing.Money `json:"subtotal"`
	DiscountAmount pricing.Money `json:"discountAmount"`
	DeliveryFee    pricing.Money `json:"deliveryFee"`
	TotalAmount    pricing.Money `json:"totalAmount"`
	ItemCount      int           `json:"itemCount"`
}

// PromoRedeemed is the payload of TopicPromoRedeemed.
type PromoRedeemed struct {
	PromoCodeID     uuid.UUID     `json:"promoCodeId"`
	Code            string        `json:"code"`
	UserID          uuid.UUID     `json:"userId"`
	OrderID         uuid.UUID     `json:"orderId"`
	DiscountApplied pricing.Money `json:"discountApplied"`
}
