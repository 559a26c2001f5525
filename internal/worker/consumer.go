package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	dbgen "github.com/noah-isme/toko-pricing/internal/db/gen"
	"github.com/noah-isme/toko-pricing/internal/events"
	"github.com/noah-isme/toko-pricing/internal/lock"
	"github.com/noah-isme/toko-pricing/internal/obs"
	"github.com/noah-isme/toko-pricing/internal/promo"
	"github.com/noah-isme/toko-pricing/internal/queue"
)

const auditLockKey = "pricing:lock:promo-audit"

// Auditor runs the promo usage audit.
type Auditor interface {
	Run(ctx context.Context) ([]promo.Drift, error)
}

// TryLocker runs fn only when key is free.
type TryLocker interface {
	TryWithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// PromoLookup loads a promo code by its normalized code.
type PromoLookup interface {
	GetPromoCodeByCode(ctx context.Context, code string) (dbgen.PromoCode, error)
}

// Consumer handles pricing tasks.
type Consumer struct {
	Auditor Auditor
	Locker  TryLocker
	LockTTL time.Duration
	Promos  PromoLookup
	Logger  zerolog.Logger
}

// Register wires every handler onto mux.
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		return
	}
	mux.HandleFunc(queue.TaskOrderCommitted, c.instrument(queue.TaskOrderCommitted, c.handleOrderCommitted))
	mux.HandleFunc(queue.TaskPromoRedeemed, c.instrument(queue.TaskPromoRedeemed, c.handlePromoRedeemed))
	mux.HandleFunc(queue.TaskPromoAudit, c.instrument(queue.TaskPromoAudit, c.handlePromoAudit))
}

func (c *Consumer) instrument(taskType string, fn asynq.HandlerFunc) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		err := fn(ctx, task)
		result := "ok"
		if err != nil {
			result = "error"
			c.Logger.Warn().Err(err).Str("task", taskType).Msg("task failed")
		}
		obs.Inc(obs.TasksProcessedTotal, taskType, result)
		return err
	}
}

func decodeEvent(task *asynq.Task, data any) (queue.EventPayload, error) {
	var payload queue.EventPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("decode %s: %v: %w", task.Type(), err, asynq.SkipRetry)
	}
	if err := json.Unmarshal(payload.Data, data); err != nil {
		return payload, fmt.Errorf("decode %s data: %v: %w", task.Type(), err, asynq.SkipRetry)
	}
	return payload, nil
}

// handleOrderCommitted is the hand-off point for downstream fulfilment. The
// service itself only records that the order left the pricing boundary.
func (c *Consumer) handleOrderCommitted(_ context.Context, task *asynq.Task) error {
	var data events.OrderCommitted
	payload, err := decodeEvent(task, &data)
	if err != nil {
		return err
	}
	c.Logger.Info().
		Str("event_id", payload.EventID.String()).
		Str("order_id", data.OrderID.String()).
		Str("user_id", data.UserID.String()).
		Str("promo_code", data.PromoCode).
		Str("total", data.TotalAmount.StringFixed(2)).
		Int("items", data.ItemCount).
		Msg("order committed")
	return nil
}

// handlePromoRedeemed reports codes whose global quota has just run out.
func (c *Consumer) handlePromoRedeemed(ctx context.Context, task *asynq.Task) error {
	var data events.PromoRedeemed
	if _, err := decodeEvent(task, &data); err != nil {
		return err
	}
	if c.Promos == nil || data.Code == "" {
		return nil
	}
	row, err := c.Promos.GetPromoCodeByCode(ctx, promo.NormalizeCode(data.Code))
	if err != nil {
		return fmt.Errorf("load promo %s: %w", data.Code, err)
	}
	if row.UsageLimit.Valid && row.UsageCount >= row.UsageLimit.Int32 {
		c.Logger.Info().
			Str("promo_code", row.Code).
			Int32("usage_count", row.UsageCount).
			Int32("usage_limit", row.UsageLimit.Int32).
			Msg("promo code exhausted")
	}
	return nil
}

// handlePromoAudit runs the audit on at most one worker at a time. A replica
// that finds the lock taken skips the run.
func (c *Consumer) handlePromoAudit(ctx context.Context, task *asynq.Task) error {
	if c.Auditor == nil {
		return fmt.Errorf("promo audit not configured: %w", asynq.SkipRetry)
	}
	var payload queue.PromoAuditPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("decode %s: %v: %w", task.Type(), err, asynq.SkipRetry)
		}
	}
	run := func(ctx context.Context) error {
		drifted, err := c.Auditor.Run(ctx)
		if err != nil {
			return err
		}
		c.Logger.Info().Int("drifted", len(drifted)).Str("requested_by", payload.RequestedBy).Msg("promo audit finished")
		return nil
	}
	if c.Locker == nil {
		return run(ctx)
	}
	err := c.Locker.TryWithLock(ctx, auditLockKey, c.LockTTL, run)
	if errors.Is(err, lock.ErrNotAcquired) {
		c.Logger.Debug().Msg("promo audit already running elsewhere")
		return nil
	}
	return err
}
