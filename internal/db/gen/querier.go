package dbgen

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type Querier interface {
	CountPromoUsageByUser(ctx context.Context, arg CountPromoUsageByUserParams) (int64, error)
	CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error)
	CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error)
	CreateProduct(ctx context.Context, arg CreateProductParams) (Product, error)
	CreateProductVariant(ctx context.Context, arg CreateProductVariantParams) (ProductVariant, error)
	CreatePromoCode(ctx context.Context, arg CreatePromoCodeParams) (PromoCode, error)
	GetOrderByID(ctx context.Context, id pgtype.UUID) (Order, error)
	GetPromoCodeByCode(ctx context.Context, code string) (PromoCode, error)
	InsertDomainEvent(ctx context.Context, arg InsertDomainEventParams) (DomainEvent, error)
	InsertPromoUsage(ctx context.Context, arg InsertPromoUsageParams) (PromoUsage, error)
	ListOrderItemsByOrder(ctx context.Context, orderID pgtype.UUID) ([]OrderItem, error)
	ListProductsByIDs(ctx context.Context, ids []pgtype.UUID) ([]Product, error)
	ListPromoCodes(ctx context.Context, arg ListPromoCodesParams) ([]PromoCode, error)
	ListPromoUsageStats(ctx context.Context) ([]ListPromoUsageStatsRow, error)
	ListPromoUsagesByCode(ctx context.Context, arg ListPromoUsagesByCodeParams) ([]PromoUsage, error)
	ListVariantsByIDs(ctx context.Context, ids []pgtype.UUID) ([]ProductVariant, error)
	PromoCodeIsActive(ctx context.Context, id pgtype.UUID) (bool, error)
	ReservePromoUsage(ctx context.Context, id pgtype.UUID) (ReservePromoUsageRow, error)
	ReservePromoUserUsage(ctx context.Context, arg ReservePromoUserUsageParams) (int32, error)
	UpdateProductBasePrice(ctx context.Context, arg UpdateProductBasePriceParams) (int64, error)
	UpdatePromoCode(ctx context.Context, arg UpdatePromoCodeParams) (PromoCode, error)
}

var _ Querier = (*Queries)(nil)
