// Queries from promos.sql.

package dbgen

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const countPromoUsageByUser = `-- name: CountPromoUsageByUser :one
SELECT COUNT(*) FROM promo_usages
WHERE promo_code_id = $1 AND user_id = $2
`

type CountPromoUsageByUserParams struct {
	PromoCodeID pgtype.UUID `json:"promoCodeId"`
	UserID      pgtype.UUID `json:"userId"`
}

func (q *Queries) CountPromoUsageByUser(ctx context.Context, arg CountPromoUsageByUserParams) (int64, error) {
	row := q.db.QueryRow(ctx, countPromoUsageByUser, arg.PromoCodeID, arg.UserID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createPromoCode = `-- name: CreatePromoCode :one
INSERT INTO promo_codes (
    code, discount_type, discount_value, min_order_amount, max_discount_amount,
    usage_limit, user_usage_limit, valid_from, valid_until, is_active
) VALUES (
    upper($1), $2, $3, $4, $5, $6, $7, $8, $9, $10
)
RETURNING id, code, discount_type, discount_value, min_order_amount, max_discount_amount,
          usage_limit, usage_count, user_usage_limit, valid_from, valid_until, is_active, created_at, updated_at
`

type CreatePromoCodeParams struct {
	Code              string              `json:"code"`
	DiscountType      DiscountType        `json:"discountType"`
	DiscountValue     decimal.Decimal     `json:"discountValue"`
	MinOrderAmount    decimal.Decimal     `json:"minOrderAmount"`
	MaxDiscountAmount decimal.NullDecimal `json:"maxDiscountAmount"`
	UsageLimit        pgtype.Int4         `json:"usageLimit"`
	UserUsageLimit    int32               `json:"userUsageLimit"`
	ValidFrom         pgtype.Timestamptz  `json:"validFrom"`
	ValidUntil        pgtype.Timestamptz  `json:"validUntil"`
	IsActive          bool                `json:"isActive"`
}

func (q *Queries) CreatePromoCode(ctx context.Context, arg CreatePromoCodeParams) (PromoCode, error) {
	row := q.db.QueryRow(ctx, createPromoCode,
		arg.Code,
		arg.DiscountType,
		arg.DiscountValue,
		arg.MinOrderAmount,
		arg.MaxDiscountAmount,
		arg.UsageLimit,
		arg.UserUsageLimit,
		arg.ValidFrom,
		arg.ValidUntil,
		arg.IsActive,
	)
	var i PromoCode
	err := scanPromoCode(row, &i)
	return i, err
}

const getPromoCodeByCode = `-- name: GetPromoCodeByCode :one
SELECT id, code, discount_type, discount_value, min_order_amount, max_discount_amount,
       usage_limit, usage_count, user_usage_limit, valid_from, valid_until, is_active, created_at, updated_at
FROM promo_codes
WHERE code = upper($1)
`

func (q *Queries) GetPromoCodeByCode(ctx context.Context, code string) (PromoCode, error) {
	row := q.db.QueryRow(ctx, getPromoCodeByCode, code)
	var i PromoCode
	err := scanPromoCode(row, &i)
	return i, err
}

const insertPromoUsage = `-- name: InsertPromoUsage :one
INSERT INTO promo_usages (promo_code_id, user_id, order_id, discount_applied)
VALUES ($1, $2, $3, $4)
RETURNING id, promo_code_id, user_id, order_id, discount_applied, used_at
`

type InsertPromoUsageParams struct {
	PromoCodeID     pgtype.UUID     `json:"promoCodeId"`
	UserID          pgtype.UUID     `json:"userId"`
	OrderID         pgtype.UUID     `json:"orderId"`
	DiscountApplied decimal.Decimal `json:"discountApplied"`
}

func (q *Queries) InsertPromoUsage(ctx context.Context, arg InsertPromoUsageParams) (PromoUsage, error) {
	row := q.db.QueryRow(ctx, insertPromoUsage,
		arg.PromoCodeID,
		arg.UserID,
		arg.OrderID,
		arg.DiscountApplied,
	)
	var i PromoUsage
	err := row.Scan(
		&i.ID,
		&i.PromoCodeID,
		&i.UserID,
		&i.OrderID,
		&i.DiscountApplied,
		&i.UsedAt,
	)
	return i, err
}

const listPromoCodes = `-- name: ListPromoCodes :many
SELECT id, code, discount_type, discount_value, min_order_amount, max_discount_amount,
       usage_limit, usage_count, user_usage_limit, valid_from, valid_until, is_active, created_at, updated_at
FROM promo_codes
ORDER BY created_at DESC
LIMIT $1 OFFSET $2
`

type ListPromoCodesParams struct {
	Limit  int32 `json:"limit"`
	Offset int32 `json:"offset"`
}

func (q *Queries) ListPromoCodes(ctx context.Context, arg ListPromoCodesParams) ([]PromoCode, error) {
	rows, err := q.db.Query(ctx, listPromoCodes, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PromoCode
	for rows.Next() {
		var i PromoCode
		if err := scanPromoCode(rows, &i); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listPromoUsageStats = `-- name: ListPromoUsageStats :many
SELECT p.id, p.code, p.usage_count, p.usage_limit, p.user_usage_limit,
       (SELECT COUNT(*) FROM promo_usages u WHERE u.promo_code_id = p.id)::bigint AS recorded_usages,
       (SELECT COALESCE(MAX(uu.usage_count), 0) FROM promo_user_usages uu WHERE uu.promo_code_id = p.id)::int AS max_user_usage
FROM promo_codes p
ORDER BY p.code
`

type ListPromoUsageStatsRow struct {
	ID             pgtype.UUID `json:"id"`
	Code           string      `json:"code"`
	UsageCount     int32       `json:"usageCount"`
	UsageLimit     pgtype.Int4 `json:"usageLimit"`
	UserUsageLimit int32       `json:"userUsageLimit"`
	RecordedUsages int64       `json:"recordedUsages"`
	MaxUserUsage   int32       `json:"maxUserUsage"`
}

func (q *Queries) ListPromoUsageStats(ctx context.Context) ([]ListPromoUsageStatsRow, error) {
	rows, err := q.db.Query(ctx, listPromoUsageStats)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListPromoUsageStatsRow
	for rows.Next() {
		var i ListPromoUsageStatsRow
		if err := rows.Scan(
			&i.ID,
			&i.Code,
			&i.UsageCount,
			&i.UsageLimit,
			&i.UserUsageLimit,
			&i.RecordedUsages,
			&i.MaxUserUsage,
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

const listPromoUsagesByCode = `-- name: ListPromoUsagesByCode :many
SELECT u.id, u.promo_code_id, u.user_id, u.order_id, u.discount_applied, u.used_at
FROM promo_usages u
JOIN promo_codes p ON p.id = u.promo_code_id
WHERE p.code = upper($1)
ORDER BY u.used_at DESC
LIMIT $2 OFFSET $3
`

type ListPromoUsagesByCodeParams struct {
	Code   string `json:"code"`
	Limit  int32  `json:"limit"`
	Offset int32  `json:"offset"`
}

func (q *Queries) ListPromoUsagesByCode(ctx context.Context, arg ListPromoUsagesByCodeParams) ([]PromoUsage, error) {
	rows, err := q.db.Query(ctx, listPromoUsagesByCode, arg.Code, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PromoUsage
	for rows.Next() {
		var i PromoUsage
		if err := rows.Scan(
			&i.ID,
			&i.PromoCodeID,
			&i.UserID,
			&i.OrderID,
			&i.DiscountApplied,
			&i.UsedAt,
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

const reservePromoUsage = `-- name: ReservePromoUsage :one
UPDATE promo_codes
SET usage_count = usage_count + 1, updated_at = now()
WHERE id = $1
  AND is_active
  AND (usage_limit IS NULL OR usage_count < usage_limit)
RETURNING id, usage_count, usage_limit, user_usage_limit
`

type ReservePromoUsageRow struct {
	ID             pgtype.UUID `json:"id"`
	UsageCount     int32       `json:"usageCount"`
	UsageLimit     pgtype.Int4 `json:"usageLimit"`
	UserUsageLimit int32       `json:"userUsageLimit"`
}

func (q *Queries) ReservePromoUsage(ctx context.Context, id pgtype.UUID) (ReservePromoUsageRow, error) {
	row := q.db.QueryRow(ctx, reservePromoUsage, id)
	var i ReservePromoUsageRow
	err := row.Scan(
		&i.ID,
		&i.UsageCount,
		&i.UsageLimit,
		&i.UserUsageLimit,
	)
	return i, err
}

const promoCodeIsActive = `-- name: PromoCodeIsActive :one
SELECT is_active FROM promo_codes
WHERE id = $1
`

func (q *Queries) PromoCodeIsActive(ctx context.Context, id pgtype.UUID) (bool, error) {
	row := q.db.QueryRow(ctx, promoCodeIsActive, id)
	var is_active bool
	err := row.Scan(&is_active)
	return is_active, err
}

const reservePromoUserUsage = `-- name: ReservePromoUserUsage :one
INSERT INTO promo_user_usages (promo_code_id, user_id, usage_count)
VALUES ($1, $2, 1)
ON CONFLICT (promo_code_id, user_id) DO UPDATE
SET usage_count = promo_user_usages.usage_count + 1, updated_at = now()
WHERE promo_user_usages.usage_count < $3::int
RETURNING usage_count
`

type ReservePromoUserUsageParams struct {
	PromoCodeID    pgtype.UUID `json:"promoCodeId"`
	UserID         pgtype.UUID `json:"userId"`
	UserUsageLimit int32       `json:"userUsageLimit"`
}

func (q *Queries) ReservePromoUserUsage(ctx context.Context, arg ReservePromoUserUsageParams) (int32, error) {
	row := q.db.QueryRow(ctx, reservePromoUserUsage, arg.PromoCodeID, arg.UserID, arg.UserUsageLimit)
	var usage_count int32
	err := row.Scan(&usage_count)
	return usage_count, err
}

const updatePromoCode = `-- name: UpdatePromoCode :one
UPDATE promo_codes
SET discount_type = $2,
    discount_value = $3,
    min_order_amount = $4,
    max_discount_amount = $5,
    usage_limit = $6,
    user_usage_limit = $7,
    valid_from = $8,
    valid_until = $9,
    is_active = $10,
    updated_at = now()
WHERE code = upper($1)
RETURNING id, code, discount_type, discount_value, min_order_amount, max_discount_amount,
          usage_limit, usage_count, user_usage_limit, valid_from, valid_until, is_active, created_at, updated_at
`

type UpdatePromoCodeParams struct {
	Code              string              `json:"code"`
	DiscountType      DiscountType        `json:"discountType"`
	DiscountValue     decimal.Decimal     `json:"discountValue"`
	MinOrderAmount    decimal.Decimal     `json:"minOrderAmount"`
	MaxDiscountAmount decimal.NullDecimal `json:"maxDiscountAmount"`
	UsageLimit        pgtype.Int4         `json:"usageLimit"`
	UserUsageLimit    int32               `json:"userUsageLimit"`
	ValidFrom         pgtype.Timestamptz  `json:"validFrom"`
	ValidUntil        pgtype.Timestamptz  `json:"validUntil"`
	IsActive          bool                `json:"isActive"`
}

func (q *Queries) UpdatePromoCode(ctx context.Context, arg UpdatePromoCodeParams) (PromoCode, error) {
	row := q.db.QueryRow(ctx, updatePromoCode,
		arg.Code,
		arg.DiscountType,
		arg.DiscountValue,
		arg.MinOrderAmount,
		arg.MaxDiscountAmount,
		arg.UsageLimit,
		arg.UserUsageLimit,
		arg.ValidFrom,
		arg.ValidUntil,
		arg.IsActive,
	)
	var i PromoCode
	err := scanPromoCode(row, &i)
	return i, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPromoCode(row rowScanner, i *PromoCode) error {
	return row.Scan(
		&i.ID,
		&i.Code,
		&i.DiscountType,
		&i.DiscountValue,
		&i.MinOrderAmount,
		&i.MaxDiscountAmount,
		&i.UsageLimit,
		&i.UsageCount,
		&i.UserUsageLimit,
		&i.ValidFrom,
		&i.ValidUntil,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
}
