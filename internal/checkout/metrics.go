package checkout

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/noah-isme/toko-pricing/internal/pricing"
)

// Instruments are the OpenTelemetry instruments the coordinator records into.
type Instruments struct {
	commitDuration metric.Float64Histogram
	discounts      metric.Float64Counter
}

// NewInstruments creates the coordinator instruments on meter.
func NewInstruments(meter metric.Meter) (*Instruments, error) {
	duration, err := meter.Float64Histogram("checkout.commit.duration",
		metric.WithUnit("ms"),
		metric.WithDescription("Order commit latency by final state."),
	)
	if err != nil {
		return nil, err
	}
	discounts, err := meter.Float64Counter("checkout.discount.granted",
		metric.WithDescription("Sum of promo discounts on committed orders."),
	)
	if err != nil {
		return nil, err
	}
	return &Instruments{commitDuration: duration, discounts: discounts}, nil
}

func (i *Instruments) recordCommit(ctx context.Context, state State, ms float64) {
	if i == nil {
		return
	}
	i.commitDuration.Record(ctx, ms, metric.WithAttributes(attribute.String("state", string(state))))
}

func (i *Instruments) recordDiscount(ctx context.Context, code string, amount pricing.Money) {
	if i == nil || code == "" {
		return
	}
	i.discounts.Add(ctx, amount.InexactFloat64(), metric.WithAttributes(attribute.String("promo.code", code)))
}
