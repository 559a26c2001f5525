package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	dbgen "github.com/noah-isme/toko-pricing/internal/db/gen"
	"github.com/noah-isme/toko-pricing/internal/events"
)

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Client enqueues pricing tasks.
type Client struct {
	enq          Enqueuer
	defaultQueue string
	maxRetry     int
}

// NewClient wraps enq. A nil enqueuer yields a disabled client whose methods are no-ops.
func NewClient(enq Enqueuer) *Client {
	return &Client{enq: enq, defaultQueue: DefaultQueue, maxRetry: 10}
}

// Enabled reports whether tasks are actually enqueued.
func (c *Client) Enabled() bool {
	return c != nil && c.enq != nil
}

// RedisOpt parses a redis:// URL into asynq connection options.
func RedisOpt(redisURL string) (asynq.RedisConnOpt, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("queue: parse redis url: %w", err)
	}
	return opt, nil
}

// Notify implements events.Notifier. Events of unknown topics are ignored. The
// event id doubles as the task id so a replayed event is not processed twice.
func (c *Client) Notify(ctx context.Context, ev dbgen.DomainEvent) error {
	if !c.Enabled() {
		return nil
	}
	var taskType string
	switch ev.Topic {
	case events.TopicOrderCommitted:
		taskType = TaskOrderCommitted
	case events.TopicPromoRedeemed:
		taskType = TaskPromoRedeemed
	default:
		return nil
	}
	eventID := uuid.UUID(ev.ID.Bytes)
	task, err := NewEventTask(taskType, EventPayload{
		EventID:     eventID,
		Topic:       ev.Topic,
		AggregateID: uuid.UUID(ev.AggregateID.Bytes),
		OccurredAt:  ev.OccurredAt.Time,
		Data:        ev.Payload,
	})
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task, asynq.TaskID(eventID.String()))
}

// EnqueuePromoAudit requests an immediate audit. Audits requested within the
// same minute collapse into one.
func (c *Client) EnqueuePromoAudit(ctx context.Context, payload PromoAuditPayload) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewPromoAuditTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task, asynq.Unique(time.Minute), asynq.MaxRetry(0))
}

func (c *Client) enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) error {
	options := append([]asynq.Option{asynq.Queue(c.defaultQueue), asynq.MaxRetry(c.maxRetry)}, opts...)
	_, err := c.enq.EnqueueContext(ctx, task, options...)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

// ServerConfig returns the asynq server configuration for the worker.
func ServerConfig(concurrency int) asynq.Config {
	if concurrency <= 0 {
		concurrency = 10
	}
	return asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{DefaultQueue: 1},
	}
}
