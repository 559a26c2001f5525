package worker

import (
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/noah-isme/toko-pricing/internal/queue"
)

// Registrar is satisfied by *asynq.Scheduler.
type Registrar interface {
	Register(cronspec string, task *asynq.Task, opts ...asynq.Option) (string, error)
}

// RegisterSchedules adds the periodic promo usage audit. A non-positive
// interval disables it.
func RegisterSchedules(s Registrar, auditInterval time.Duration) error {
	if s == nil {
		return errors.New("worker: scheduler not configured")
	}
	if auditInterval <= 0 {
		return nil
	}
	task, err := queue.NewPromoAuditTask(queue.PromoAuditPayload{RequestedBy: "scheduler"})
	if err != nil {
		return err
	}
	spec := fmt.Sprintf("@every %s", auditInterval)
	if _, err := s.Register(spec, task, asynq.Queue(queue.DefaultQueue), asynq.MaxRetry(0), asynq.Unique(auditInterval)); err != nil {
		return fmt.Errorf("register promo audit: %w", err)
	}
	return nil
}
