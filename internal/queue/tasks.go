package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue is the asynq queue every task is enqueued on.
	DefaultQueue = "pricing"

	TaskOrderCommitted = "order:committed"
	TaskPromoRedeemed  = "promo:redeemed"
	TaskPromoAudit     = "promo:audit"
)

// EventPayload wraps a persisted domain event for the worker.
type EventPayload struct {
	EventID     uuid.UUID       `json:"eventId"`
	Topic       string          `json:"topic"`
	AggregateID uuid.UUID       `json:"aggregateId"`
	OccurredAt  time.Time       `json:"occurredAt"`
	Data        json.RawMessage `json:"data"`
}

// PromoAuditPayload carries an optional requester for ad-hoc audits.
type PromoAuditPayload struct {
	RequestedBy string `json:"requestedBy,omitempty"`
}

// NewEventTask builds a task of the given type around an event payload.
func NewEventTask(taskType string, payload EventPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, body), nil
}

// NewPromoAuditTask creates a promo usage audit task.
func NewPromoAuditTask(payload PromoAuditPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPromoAudit, body), nil
}
