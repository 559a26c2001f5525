package app

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	limiter "github.com/ulule/limiter/v3"
)

func TestNewValidatorUsesJSONNames(t *testing.T) {
	type payload struct {
		ProductID uuid.UUID `json:"productId" validate:"required"`
		Ignored   string    `json:"-"`
	}
	err := NewValidator().Struct(payload{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "productId")
}

func TestNewRedisAndLimiterStore(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	client, err := NewRedis(ctx, "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store, err := NewLimiterStore(client)
	require.NoError(t, err)
	lc, err := limiter.New(store, limiter.Rate{Period: time.Minute, Limit: 1}).Get(ctx, "ip")
	require.NoError(t, err)
	require.False(t, lc.Reached)
	require.NotEmpty(t, mr.Keys())

	_, err = NewRedis(ctx, "not-a-url")
	require.Error(t, err)
}

func TestNewPoolRejectsBadURL(t *testing.T) {
	_, err := NewPool(context.Background(), "::bad::", "test")
	require.Error(t, err)
}
