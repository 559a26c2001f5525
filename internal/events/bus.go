package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	dbgen "github.com/noah-isme/toko-pricing/internal/db/gen"
	"github.com/noah-isme/toko-pricing/internal/obs"
)

var (
	ErrNoStore      = errors.New("events: store not configured")
	ErrUnknownTopic = errors.New("events: unknown topic")
	ErrNoAggregate  = errors.New("events: aggregate id is required")
)

// EventStore appends to the domain_events table.
type EventStore interface {
	InsertDomainEvent(ctx context.Context, arg dbgen.InsertDomainEventParams) (dbgen.DomainEvent, error)
}

// Notifier is told about every persisted event, typically to enqueue follow-up work.
type Notifier interface {
	Notify(ctx context.Context, event dbgen.DomainEvent) error
}

// Bus records post-commit facts about orders and promo redemptions. Only the
// topics declared in this package are accepted.
type Bus struct {
	Store     EventStore
	Notifiers []Notifier
	Logger    zerolog.Logger
}

// Emit stores payload under topic for the given aggregate and then calls each
// notifier. A stored event is returned even when notifiers fail.
func (b *Bus) Emit(ctx context.Context, topic string, aggregateID pgtype.UUID, payload any) (ev dbgen.DomainEvent, err error) {
	if b == nil || b.Store == nil {
		return dbgen.DomainEvent{}, ErrNoStore
	}
	if !Known(topic) {
		return dbgen.DomainEvent{}, fmt.Errorf("%w: %q", ErrUnknownTopic, topic)
	}
	if !aggregateID.Valid {
		return dbgen.DomainEvent{}, ErrNoAggregate
	}
	ctx, end := obs.StartSpan(ctx, "events.emit",
		attribute.String("event.topic", topic),
		attribute.String("event.aggregate_id", uuid.UUID(aggregateID.Bytes).String()),
	)
	defer func() { end(err) }()

	body, err := marshal(payload)
	if err != nil {
		return dbgen.DomainEvent{}, fmt.Errorf("events: encode %s: %w", topic, err)
	}
	ev, err = b.Store.InsertDomainEvent(ctx, dbgen.InsertDomainEventParams{
		Topic:       topic,
		AggregateID: aggregateID,
		Payload:     body,
	})
	if err != nil {
		return dbgen.DomainEvent{}, fmt.Errorf("events: store %s: %w", topic, err)
	}
	return ev, b.fanOut(ctx, ev)
}

func (b *Bus) fanOut(ctx context.Context, ev dbgen.DomainEvent) error {
	var errs []error
	for i, n := range b.Notifiers {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, ev); err != nil {
			b.Logger.Warn().Err(err).
				Str("topic", ev.Topic).
				Int("notifier", i).
				Msg("event notifier failed")
			errs = append(errs, fmt.Errorf("events: notifier %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Known reports whether topic is one the bus will accept.
func Known(topic string) bool {
	switch topic {
	case TopicOrderCommitted, TopicPromoRedeemed:
		return true
	}
	return false
}

func marshal(payload any) ([]byte, error) {
	switch v := payload.(type) {
	case nil:
		return []byte("{}"), nil
	case json.RawMessage:
		if len(v) == 0 {
			return []byte("{}"), nil
		}
		if !json.Valid(v) {
			return nil, errors.New("raw payload is not valid json")
		}
		return append([]byte(nil), v...), nil
	default:
		return json.Marshal(v)
	}
}
