// Queries from catalog.sql.

package dbgen

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const createProduct = `-- name: CreateProduct :one
INSERT INTO products (id, name, base_price)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, base_price = EXCLUDED.base_price, updated_at = now()
RETURNING id, name, base_price, is_active, created_at, updated_at
`

type CreateProductParams struct {
	ID        pgtype.UUID     `json:"id"`
	Name      string          `json:"name"`
	BasePrice decimal.Decimal `json:"basePrice"`
}

func (q *Queries) CreateProduct(ctx context.Context, arg CreateProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, createProduct, arg.ID, arg.Name, arg.BasePrice)
	var i Product
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.BasePrice,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createProductVariant = `-- name: CreateProductVariant :one
INSERT INTO product_variants (id, product_id, name, price_modifier, price_behavior, override_priority)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    price_modifier = EXCLUDED.price_modifier,
    price_behavior = EXCLUDED.price_behavior,
    override_priority = EXCLUDED.override_priority
RETURNING id, product_id, name, price_modifier, price_behavior, override_priority, created_at
`

type CreateProductVariantParams struct {
	ID               pgtype.UUID     `json:"id"`
	ProductID        pgtype.UUID     `json:"productId"`
	Name             string          `json:"name"`
	PriceModifier    decimal.Decimal `json:"priceModifier"`
	PriceBehavior    PriceBehavior   `json:"priceBehavior"`
	OverridePriority pgtype.Int4     `json:"overridePriority"`
}

func (q *Queries) CreateProductVariant(ctx context.Context, arg CreateProductVariantParams) (ProductVariant, error) {
	row := q.db.QueryRow(ctx, createProductVariant,
		arg.ID,
		arg.ProductID,
		arg.Name,
		arg.PriceModifier,
		arg.PriceBehavior,
		arg.OverridePriority,
	)
	var i ProductVariant
	err := row.Scan(
		&i.ID,
		&i.ProductID,
		&i.Name,
		&i.PriceModifier,
		&i.PriceBehavior,
		&i.OverridePriority,
		&i.CreatedAt,
	)
	return i, err
}

const listProductsByIDs = `-- name: ListProductsByIDs :many
SELECT id, name, base_price, is_active, created_at, updated_at
FROM products
WHERE id = ANY($1::uuid[]) AND is_active
`

func (q *Queries) ListProductsByIDs(ctx context.Context, ids []pgtype.UUID) ([]Product, error) {
	rows, err := q.db.Query(ctx, listProductsByIDs, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Product
	for rows.Next() {
		var i Product
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.BasePrice,
			&i.IsActive,
			&i.CreatedAt,
			&i.UpdatedAt,
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

const listVariantsByIDs = `-- name: ListVariantsByIDs :many
SELECT id, product_id, name, price_modifier, price_behavior, override_priority, created_at
FROM product_variants
WHERE id = ANY($1::uuid[])
ORDER BY id
`

func (q *Queries) ListVariantsByIDs(ctx context.Context, ids []pgtype.UUID) ([]ProductVariant, error) {
	rows, err := q.db.Query(ctx, listVariantsByIDs, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ProductVariant
	for rows.Next() {
		var i ProductVariant
		if err := rows.Scan(
			&i.ID,
			&i.ProductID,
			&i.Name,
			&i.PriceModifier,
			&i.PriceBehavior,
			&i.OverridePriority,
			&i.CreatedAt,
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

const updateProductBasePrice = `-- name: UpdateProductBasePrice :execrows
UPDATE products SET base_price = $2, updated_at = now() WHERE id = $1
`

type UpdateProductBasePriceParams struct {
	ID        pgtype.UUID     `json:"id"`
	BasePrice decimal.Decimal `json:"basePrice"`
}

func (q *Queries) UpdateProductBasePrice(ctx context.Context, arg UpdateProductBasePriceParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateProductBasePrice, arg.ID, arg.BasePrice)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
