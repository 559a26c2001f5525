// Queries from orders.sql.

package dbgen

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const createOrder = `-- name: CreateOrder :one
INSERT INTO orders (id, user_id, promo_code_id, subtotal, discount_amount, delivery_fee, total_amount)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, user_id, promo_code_id, subtotal, discount_amount, delivery_fee, total_amount, status, created_at
`

type CreateOrderParams struct {
	ID             pgtype.UUID     `json:"id"`
	UserID         pgtype.UUID     `json:"userId"`
	PromoCodeID    pgtype.UUID     `json:"promoCodeId"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	DeliveryFee    decimal.Decimal `json:"deliveryFee"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.ID,
		arg.UserID,
		arg.PromoCodeID,
		arg.Subtotal,
		arg.DiscountAmount,
		arg.DeliveryFee,
		arg.TotalAmount,
	)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.PromoCodeID,
		&i.Subtotal,
		&i.DiscountAmount,
		&i.DeliveryFee,
		&i.TotalAmount,
		&i.Status,
		&i.CreatedAt,
	)
	return i, err
}

const createOrderItem = `-- name: CreateOrderItem :one
INSERT INTO order_items (order_id, line_no, product_id, variant_ids, quantity, unit_price, total_price)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, order_id, line_no, product_id, variant_ids, quantity, unit_price, total_price
`

type CreateOrderItemParams struct {
	OrderID    pgtype.UUID     `json:"orderId"`
	LineNo     int32           `json:"lineNo"`
	ProductID  pgtype.UUID     `json:"productId"`
	VariantIds []pgtype.UUID   `json:"variantIds"`
	Quantity   int32           `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID,
		arg.LineNo,
		arg.ProductID,
		arg.VariantIds,
		arg.Quantity,
		arg.UnitPrice,
		arg.TotalPrice,
	)
	var i OrderItem
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.LineNo,
		&i.ProductID,
		&i.VariantIds,
		&i.Quantity,
		&i.UnitPrice,
		&i.TotalPrice,
	)
	return i, err
}

const getOrderByID = `-- name: GetOrderByID :one
SELECT id, user_id, promo_code_id, subtotal, discount_amount, delivery_fee, total_amount, status, created_at
FROM orders
WHERE id = $1
`

func (q *Queries) GetOrderByID(ctx context.Context, id pgtype.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, getOrderByID, id)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.PromoCodeID,
		&i.Subtotal,
		&i.DiscountAmount,
		&i.DeliveryFee,
		&i.TotalAmount,
		&i.Status,
		&i.CreatedAt,
	)
	return i, err
}

const listOrderItemsByOrder = `-- name: ListOrderItemsByOrder :many
SELECT id, order_id, line_no, product_id, variant_ids, quantity, unit_price, total_price
FROM order_items
WHERE order_id = $1
ORDER BY line_no
`

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID pgtype.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItem
	for rows.Next() {
		var i OrderItem
		if err := rows.Scan(
			&i.ID,
			&i.OrderID,
			&i.LineNo,
			&i.ProductID,
			&i.VariantIds,
			&i.Quantity,
			&i.UnitPrice,
			&i.TotalPrice,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
