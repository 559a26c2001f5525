package dbgen

import (
	"database/sql/driver"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountTypePercentage  DiscountType = "percentage"
	DiscountTypeFixedAmount DiscountType = "fixed_amount"
)

func (e *DiscountType) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = DiscountType(s)
	case string:
		*e = DiscountType(s)
	default:
		return fmt.Errorf("unsupported scan type for DiscountType: %T", src)
	}
	return nil
}

type NullDiscountType struct {
	DiscountType DiscountType `json:"discountType"`
	Valid        bool         `json:"valid"` // Valid is true if DiscountType is not NULL
}

// Scan implements the Scanner interface.
func (ns *NullDiscountType) Scan(value interface{}) error {
	if value == nil {
		ns.DiscountType, ns.Valid = "", false
		return nil
	}
	ns.Valid = true
	return ns.DiscountType.Scan(value)
}

// Value implements the driver Valuer interface.
func (ns NullDiscountType) Value() (driver.Value, error) {
	if !ns.Valid {
		return nil, nil
	}
	return string(ns.DiscountType), nil
}

type PriceBehavior string

const (
	PriceBehaviorOverride PriceBehavior = "override"
	PriceBehaviorAdd      PriceBehavior = "add"
)

func (e *PriceBehavior) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = PriceBehavior(s)
	case string:
		*e = PriceBehavior(s)
	default:
		return fmt.Errorf("unsupported scan type for PriceBehavior: %T", src)
	}
	return nil
}

type NullPriceBehavior struct {
	PriceBehavior PriceBehavior `json:"priceBehavior"`
	Valid         bool          `json:"valid"` // Valid is true if PriceBehavior is not NULL
}

// Scan implements the Scanner interface.
func (ns *NullPriceBehavior) Scan(value interface{}) error {
	if value == nil {
		ns.PriceBehavior, ns.Valid = "", false
		return nil
	}
	ns.Valid = true
	return ns.PriceBehavior.Scan(value)
}

// Value implements the driver Valuer interface.
func (ns NullPriceBehavior) Value() (driver.Value, error) {
	if !ns.Valid {
		return nil, nil
	}
	return string(ns.PriceBehavior), nil
}

type DomainEvent struct {
	ID          pgtype.UUID        `json:"id"`
	Topic       string             `json:"topic"`
	AggregateID pgtype.UUID        `json:"aggregateId"`
	Payload     []byte             `json:"payload"`
	OccurredAt  pgtype.Timestamptz `json:"occurredAt"`
}

type Order struct {
	ID             pgtype.UUID        `json:"id"`
	UserID         pgtype.UUID        `json:"userId"`
	PromoCodeID    pgtype.UUID        `json:"promoCodeId"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	DiscountAmount decimal.Decimal    `json:"discountAmount"`
	DeliveryFee    decimal.Decimal    `json:"deliveryFee"`
	TotalAmount    decimal.Decimal    `json:"totalAmount"`
	Status         string             `json:"status"`
	CreatedAt      pgtype.Timestamptz `json:"createdAt"`
}

type OrderItem struct {
	ID         pgtype.UUID     `json:"id"`
	OrderID    pgtype.UUID     `json:"orderId"`
	LineNo     int32           `json:"lineNo"`
	ProductID  pgtype.UUID     `json:"productId"`
	VariantIds []pgtype.UUID   `json:"variantIds"`
	Quantity   int32           `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

type Product struct {
	ID        pgtype.UUID        `json:"id"`
	Name      string             `json:"name"`
	BasePrice decimal.Decimal    `json:"basePrice"`
	IsActive  bool               `json:"isActive"`
	CreatedAt pgtype.Timestamptz `json:"createdAt"`
	UpdatedAt pgtype.Timestamptz `json:"updatedAt"`
}

type ProductVariant struct {
	ID               pgtype.UUID        `json:"id"`
	ProductID        pgtype.UUID        `json:"productId"`
	Name             string             `json:"name"`
	PriceModifier    decimal.Decimal    `json:"priceModifier"`
	PriceBehavior    PriceBehavior      `json:"priceBehavior"`
	OverridePriority pgtype.Int4        `json:"overridePriority"`
	CreatedAt        pgtype.Timestamptz `json:"createdAt"`
}

type PromoCode struct {
	ID                pgtype.UUID         `json:"id"`
	Code              string              `json:"code"`
	DiscountType      DiscountType        `json:"discountType"`
	DiscountValue     decimal.Decimal     `json:"discountValue"`
	MinOrderAmount    decimal.Decimal     `json:"minOrderAmount"`
	MaxDiscountAmount decimal.NullDecimal `json:"maxDiscountAmount"`
	UsageLimit        pgtype.Int4         `json:"usageLimit"`
	UsageCount        int32               `json:"usageCount"`
	UserUsageLimit    int32               `json:"userUsageLimit"`
	ValidFrom         pgtype.Timestamptz  `json:"validFrom"`
	ValidUntil        pgtype.Timestamptz  `json:"validUntil"`
	IsActive          bool                `json:"isActive"`
	CreatedAt         pgtype.Timestamptz  `json:"createdAt"`
	UpdatedAt         pgtype.Timestamptz  `json:"updatedAt"`
}

type PromoUsage struct {
	ID              pgtype.UUID        `json:"id"`
	PromoCodeID     pgtype.UUID        `json:"promoCodeId"`
	UserID          pgtype.UUID        `json:"userId"`
	OrderID         pgtype.UUID        `json:"orderId"`
	DiscountApplied decimal.Decimal    `json:"discountApplied"`
	UsedAt          pgtype.Timestamptz `json:"usedAt"`
}

type PromoUserUsage struct {
	PromoCodeID pgtype.UUID        `json:"promoCodeId"`
	UserID      pgtype.UUID        `json:"userId"`
	UsageCount  int32              `json:"usageCount"`
	UpdatedAt   pgtype.Timestamptz `json:"updatedAt"`
}
