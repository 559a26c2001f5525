package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/toko-pricing/internal/catalog"
	"github.com/noah-isme/toko-pricing/internal/common"
	"github.com/noah-isme/toko-pricing/internal/db"
	dbgen "github.com/noah-isme/toko-pricing/internal/db/gen"
	"github.com/noah-isme/toko-pricing/internal/events"
	"github.com/noah-isme/toko-pricing/internal/obs"
	"github.com/noah-isme/toko-pricing/internal/pricing"
	"github.com/noah-isme/toko-pricing/internal/promo"
)

// ErrInvalidDeliveryFee rejects a negative delivery fee. It is a line-item class error.
var ErrInvalidDeliveryFee = fmt.Errorf("%w: delivery fee must not be negative", pricing.ErrInvalidLineItem)

var tracer = otel.Tracer("github.com/noah-isme/toko-pricing/internal/checkout")

// Store is everything a commit reads and writes inside its transaction.
type Store interface {
	catalog.Querier
	promo.Querier
	promo.LedgerQuerier
	CreateOrder(ctx context.Context, arg dbgen.CreateOrderParams) (dbgen.Order, error)
	CreateOrderItem(ctx context.Context, arg dbgen.CreateOrderItemParams) (dbgen.OrderItem, error)
}

// QuoteInput is a price preview request.
type QuoteInput struct {
	Items       []pricing.Selection `json:"items" validate:"required,min=1,dive"`
	PromoCode   string              `json:"promoCode"`
	DeliveryFee pricing.Money       `json:"deliveryFee"`
}

// CommitInput is an order placement request.
type CommitInput struct {
	Items       []pricing.Selection `json:"items" validate:"required,min=1,dive"`
	PromoCode   string              `json:"promoCode"`
	DeliveryFee pricing.Money       `json:"deliveryFee"`
}

// Quote is the priced cart returned by a dry run.
type Quote struct {
	pricing.Summary
	PromoCode string             `json:"promoCode,omitempty"`
	Items     []pricing.LineItem `json:"items"`
}

// Receipt is a committed order.
type Receipt struct {
	OrderID   uuid.UUID `json:"orderId"`
	UserID    uuid.UUID `json:"userId"`
	Status    string    `json:"status"`
	PromoCode string    `json:"promoCode,omitempty"`
	pricing.Summary
	Items     []pricing.LineItem `json:"items"`
	CreatedAt time.Time          `json:"createdAt"`

	promoCodeID uuid.UUID
}

// Coordinator prices carts and commits orders. Quote reads the cached catalog
// and never touches the promo ledger; Commit runs every stage inside one
// transaction so a failure at any point leaves nothing behind.
type Coordinator struct {
	DB      db.TxBeginner
	Bind    func(pgx.Tx) Store
	Catalog *catalog.Reader
	Promos  *promo.Service
	Ledger  promo.Ledger
	Events  *events.Bus
	Metrics *Instruments
	Logger  zerolog.Logger
	Now     func() time.Time
}

// Quote prices in without reserving anything. The per-user promo quota is
// checked only when ctx carries an authenticated user.
func (c *Coordinator) Quote(ctx context.Context, in QuoteInput) (Quote, error) {
	ctx, span := tracer.Start(ctx, "checkout.quote")
	defer span.End()

	out, err := c.quote(ctx, in)
	result := "ok"
	if err != nil {
		result = failureLabel(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, result)
	}
	obs.Inc(obs.QuotesTotal, result)
	return out, err
}

func (c *Coordinator) quote(ctx context.Context, in QuoteInput) (Quote, error) {
	if c.Catalog == nil {
		return Quote{}, errors.New("checkout: catalog not configured")
	}
	if in.DeliveryFee.IsNegative() {
		return Quote{}, ErrInvalidDeliveryFee
	}
	snap, err := c.Catalog.Load(ctx, in.Items)
	if err != nil {
		return Quote{}, fmt.Errorf("load catalog: %w", err)
	}
	items, subtotal, err := pricing.Aggregate(in.Items, snap.Products, snap.Variants)
	if err != nil {
		return Quote{}, err
	}
	if err := pricing.Compute(subtotal, pricing.ZeroMoney(), in.DeliveryFee).Bounded(); err != nil {
		return Quote{}, err
	}
	discount := pricing.ZeroMoney()
	var code string
	if strings.TrimSpace(in.PromoCode) != "" {
		var user *uuid.UUID
		if id, ok := common.UserUUID(ctx); ok {
			user = &id
		}
		applied, err := c.Promos.Evaluate(ctx, in.PromoCode, subtotal, user)
		if err != nil {
			return Quote{}, err
		}
		discount, code = applied.Discount, applied.Code
	}
	summary := pricing.Compute(subtotal, discount, in.DeliveryFee)
	if err := summary.Guard(); err != nil {
		c.logGuard(summary, code)
		return Quote{}, err
	}
	return Quote{Summary: summary, PromoCode: code, Items: items}, nil
}

// Commit prices in for userID, applies and reserves the promo code if any, and
// persists the order with its frozen line items. A lost reservation race fails
// the whole order; the promo is never dropped silently.
func (c *Coordinator) Commit(ctx context.Context, userID uuid.UUID, in CommitInput) (Receipt, error) {
	start := c.now()
	ctx, span := tracer.Start(ctx, "checkout.commit", trace.WithAttributes(attribute.String("user.id", userID.String())))
	defer span.End()

	p := &pipeline{state: StatePricing, span: span, logger: c.Logger.With().Str("user_id", userID.String()).Logger()}
	receipt, err := c.commit(ctx, p, userID, in)
	elapsed := obs.DurationMillis(c.now().Sub(start))
	c.Metrics.recordCommit(ctx, p.state, elapsed)
	if obs.OrderCommitDuration != nil {
		obs.OrderCommitDuration.Observe(elapsed)
	}

	if err != nil {
		label := failureLabel(err)
		obs.Inc(obs.OrderCommitsTotal, label)
		span.RecordError(err)
		span.SetStatus(codes.Error, label)
		var stageErr *StageError
		stage := StateFailed
		if errors.As(err, &stageErr) {
			stage = stageErr.Stage
		}
		ev := p.logger.Warn()
		if label == "error" {
			ev = p.logger.Error()
		}
		ev.Err(err).Str("stage", string(stage)).Str("result", label).Float64("duration_ms", elapsed).Msg("order commit failed")
		return Receipt{}, err
	}

	obs.Inc(obs.OrderCommitsTotal, "committed")
	c.Metrics.recordDiscount(ctx, receipt.PromoCode, receipt.Discount)
	p.logger.Info().
		Str("order_id", receipt.OrderID.String()).
		Str("promo_code", receipt.PromoCode).
		Str("total", receipt.Total.StringFixed(2)).
		Float64("duration_ms", elapsed).
		Msg("order committed")
	c.emit(ctx, receipt)
	return receipt, nil
}

func (c *Coordinator) commit(ctx context.Context, p *pipeline, userID uuid.UUID, in CommitInput) (Receipt, error) {
	if userID == uuid.Nil {
		return Receipt{}, p.fail(errors.New("checkout: user id required"))
	}
	if in.DeliveryFee.IsNegative() {
		return Receipt{}, p.fail(ErrInvalidDeliveryFee)
	}

	orderID := uuid.New()
	var receipt Receipt
	err := db.WithTx(ctx, c.DB, func(tx pgx.Tx) error {
		q := c.bind(tx)

		snap, err := c.Catalog.WithQuerier(q).Load(ctx, in.Items)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		items, subtotal, err := pricing.Aggregate(in.Items, snap.Products, snap.Variants)
		if err != nil {
			return err
		}
		// A discount only lowers the total, so the undiscounted order is the one to fit.
		if err := pricing.Compute(subtotal, pricing.ZeroMoney(), in.DeliveryFee).Bounded(); err != nil {
			return err
		}

		if err := p.enter(StatePromoValidating); err != nil {
			return err
		}
		discount := pricing.ZeroMoney()
		var applied *promo.Applied
		if strings.TrimSpace(in.PromoCode) != "" {
			a, err := c.Promos.WithQuerier(q).Evaluate(ctx, in.PromoCode, subtotal, &userID)
			if err != nil {
				return err
			}
			applied, discount = &a, a.Discount
		}

		summary := pricing.Compute(subtotal, discount, in.DeliveryFee)
		if err := summary.Guard(); err != nil {
			c.logGuard(summary, in.PromoCode)
			return err
		}

		if err := p.enter(StateReserving); err != nil {
			return err
		}
		var promoID pgtype.UUID
		if applied != nil {
			if _, err := c.Ledger.Reserve(ctx, q, promo.Reservation{
				PromoCodeID: applied.Rule.ID,
				UserID:      userID,
				OrderID:     orderID,
				Discount:    applied.Discount,
			}); err != nil {
				return err
			}
			promoID = pgtype.UUID{Bytes: applied.Rule.ID, Valid: true}
		}

		// Committed only sticks once the transaction commits.
		if err := p.enter(StateCommitted); err != nil {
			return err
		}
		order, err := q.CreateOrder(ctx, dbgen.CreateOrderParams{
			ID:             pgtype.UUID{Bytes: orderID, Valid: true},
			UserID:         pgtype.UUID{Bytes: userID, Valid: true},
			PromoCodeID:    promoID,
			Subtotal:       summary.Subtotal.Decimal,
			DiscountAmount: summary.Discount.Decimal,
			DeliveryFee:    summary.DeliveryFee.Decimal,
			TotalAmount:    summary.Total.Decimal,
		})
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		for idx, item := range items {
			if _, err := q.CreateOrderItem(ctx, dbgen.CreateOrderItemParams{
				OrderID:    order.ID,
				LineNo:     int32(idx + 1),
				ProductID:  pgtype.UUID{Bytes: item.ProductID, Valid: true},
				VariantIds: toPgUUIDs(item.VariantIDs),
				Quantity:   item.Quantity,
				UnitPrice:  item.UnitPrice.Decimal,
				TotalPrice: item.TotalPrice.Decimal,
			}); err != nil {
				return fmt.Errorf("create order item %d: %w", idx+1, err)
			}
		}

		receipt = Receipt{
			OrderID:   orderID,
			UserID:    userID,
			Status:    order.Status,
			Summary:   summary,
			Items:     items,
			CreatedAt: order.CreatedAt.Time,
		}
		if applied != nil {
			receipt.PromoCode = applied.Code
			receipt.promoCodeID = applied.Rule.ID
		}
		return nil
	})
	if err != nil {
		return Receipt{}, p.fail(err)
	}
	return receipt, nil
}

// emit publishes the commit after the fact. The order is already durable, so
// failures here are logged and never reported to the caller.
func (c *Coordinator) emit(ctx context.Context, r Receipt) {
	if c.Events == nil {
		return
	}
	aggregate := pgtype.UUID{Bytes: r.OrderID, Valid: true}
	if _, err := c.Events.Emit(ctx, events.TopicOrderCommitted, aggregate, events.OrderCommitted{
		OrderID:        r.OrderID,
		UserID:         r.UserID,
		PromoCode:      r.PromoCode,
		Subtotal:       r.Subtotal,
		DiscountAmount: r.Discount,
		DeliveryFee:    r.DeliveryFee,
		TotalAmount:    r.Total,
		ItemCount:      len(r.Items),
	}); err != nil {
		c.Logger.Warn().Err(err).Str("order_id", r.OrderID.String()).Msg("emit order.committed failed")
	}
	if r.PromoCode == "" {
		return
	}
	if _, err := c.Events.Emit(ctx, events.TopicPromoRedeemed, aggregate, events.PromoRedeemed{
		PromoCodeID:     r.promoCodeID,
		Code:            r.PromoCode,
		UserID:          r.UserID,
		OrderID:         r.OrderID,
		DiscountApplied: r.Discount,
	}); err != nil {
		c.Logger.Warn().Err(err).Str("order_id", r.OrderID.String()).Msg("emit promo.redeemed failed")
	}
}

func (c *Coordinator) logGuard(s pricing.Summary, code string) {
	c.Logger.Error().
		Str("subtotal", s.Subtotal.StringFixed(2)).
		Str("discount", s.Discount.StringFixed(2)).
		Str("delivery_fee", s.DeliveryFee.StringFixed(2)).
		Str("total", s.Total.StringFixed(2)).
		Str("promo_code", code).
		Msg("negative total guard triggered")
}

func (c *Coordinator) bind(tx pgx.Tx) Store {
	if c.Bind != nil {
		return c.Bind(tx)
	}
	return dbgen.New(tx)
}

func (c *Coordinator) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// pipeline tracks one commit through its states.
type pipeline struct {
	state  State
	span   trace.Span
	logger zerolog.Logger
}

func (p *pipeline) enter(next State) error {
	if !p.state.CanTransition(next) {
		return fmt.Errorf("checkout: illegal transition %s -> %s", p.state, next)
	}
	p.state = next
	p.span.AddEvent("checkout.state", trace.WithAttributes(attribute.String("state", string(next))))
	p.logger.Debug().Str("state", string(next)).Msg("checkout stage")
	return nil
}

func (p *pipeline) fail(err error) error {
	stage := p.state
	p.state = StateFailed
	p.span.SetAttributes(attribute.String("checkout.failed_stage", string(stage)))
	return &StageError{Stage: stage, Err: err}
}

func failureLabel(err error) string {
	switch {
	case errors.Is(err, pricing.ErrInvalidLineItem):
		return "invalid_line_item"
	case errors.Is(err, pricing.ErrNegativeTotal):
		return "negative_total"
	case errors.Is(err, promo.ErrUsageExhausted), errors.Is(err, promo.ErrUserLimitExceeded):
		return "promo_quota"
	case errors.Is(err, promo.ErrInvalidCode), errors.Is(err, promo.ErrExpired),
		errors.Is(err, promo.ErrNotYetValid), errors.Is(err, promo.ErrMinOrderNotMet):
		return "promo_rejected"
	default:
		return "error"
	}
}

func toPgUUIDs(ids []uuid.UUID) []pgtype.UUID {
	out := make([]pgtype.UUID, len(ids))
	for i, id := range ids {
		out[i] = pgtype.UUID{Bytes: id, Valid: true}
	}
	return out
}
