package promo

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	dbgen "github.com/noah-isme/toko-pricing/internal/db/gen"
	"github.com/noah-isme/toko-pricing/internal/pricing"
)

// memLedger mimics the conditional statements of the promo queries.
type memLedger struct {
	mu        sync.Mutex
	limit     *int32
	userLimit int32
	count     int32
	perUser   map[uuid.UUID]int32
	records   []dbgen.InsertPromoUsageParams
	reserveFn func() error
	inactive  bool
	deleted   bool
}

func (m *memLedger) ReservePromoUsage(_ context.Context, id pgtype.UUID) (dbgen.ReservePromoUsageRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reserveFn != nil {
		if err := m.reserveFn(); err != nil {
			return dbgen.ReservePromoUsageRow{}, err
		}
	}
	if m.deleted || m.inactive || (m.limit != nil && m.count >= *m.limit) {
		return dbgen.ReservePromoUsageRow{}, pgx.ErrNoRows
	}
	m.count++
	return dbgen.ReservePromoUsageRow{ID: id, UsageCount: m.count, UserUsageLimit: m.userLimit}, nil
}

func (m *memLedger) PromoCodeIsActive(context.Context, pgtype.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleted {
		return false, pgx.ErrNoRows
	}
	return !m.inactive, nil
}

func (m *memLedger) ReservePromoUserUsage(_ context.Context, arg dbgen.ReservePromoUserUsageParams) (int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.perUser == nil {
		m.perUser = map[uuid.UUID]int32{}
	}
	user := uuid.UUID(arg.UserID.Bytes)
	if m.perUser[user] >= arg.UserUsageLimit {
		return 0, pgx.ErrNoRows
	}
	m.perUser[user]++
	return m.perUser[user], nil
}

func (m *memLedger) InsertPromoUsage(_ context.Context, arg dbgen.InsertPromoUsageParams) (dbgen.PromoUsage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, arg)
	return dbgen.PromoUsage{PromoCodeID: arg.PromoCodeID, UserID: arg.UserID, OrderID: arg.OrderID, DiscountApplied: arg.DiscountApplied}, nil
}

func reservation(promoID, userID uuid.UUID) Reservation {
	return Reservation{PromoCodeID: promoID, UserID: userID, OrderID: uuid.New(), Discount: pricing.MustMoney("5")}
}

func TestLedgerReserveRecordsUsage(t *testing.T) {
	m := &memLedger{userLimit: 1}
	promoID, userID := uuid.New(), uuid.New()

	usage, err := Ledger{}.Reserve(context.Background(), m, reservation(promoID, userID))
	require.NoError(t, err)
	require.Equal(t, promoID, uuid.UUID(usage.PromoCodeID.Bytes))
	require.Equal(t, "5", usage.DiscountApplied.String())
	require.Len(t, m.records, 1)

	_, err = Ledger{}.Reserve(context.Background(), m, reservation(promoID, userID))
	require.ErrorIs(t, err, ErrUserLimitExceeded)
}

func TestLedgerConcurrentReservationsNeverOvershoot(t *testing.T) {
	const limit, attempts = 5, 40
	m := &memLedger{limit: int32Ptr(limit), userLimit: 1}
	promoID := uuid.New()

	var ok, exhausted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := Ledger{}.Reserve(context.Background(), m, reservation(promoID, uuid.New()))
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, ErrUsageExhausted):
				exhausted.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, limit, ok.Load())
	require.EqualValues(t, attempts-limit, exhausted.Load())
	require.EqualValues(t, limit, m.count)
	require.Len(t, m.records, limit)
}

func TestLedgerMapsCheckViolation(t *testing.T) {
	m := &memLedger{reserveFn: func() error {
		return &pgconn.PgError{Code: "23514", ConstraintName: usageWithinLimitConstraint}
	}}
	_, err := Ledger{}.Reserve(context.Background(), m, reservation(uuid.New(), uuid.New()))
	require.ErrorIs(t, err, ErrUsageExhausted)

	boom := errors.New("conn closed")
	m.reserveFn = func() error { return boom }
	_, err = Ledger{}.Reserve(context.Background(), m, reservation(uuid.New(), uuid.New()))
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, ErrUsageExhausted)
}

func TestLedgerReportsWhyNothingWasReserved(t *testing.T) {
	cases := []struct {
		name string
		m    *memLedger
		want error
		not  error
	}{
		{name: "deactivated after evaluation", m: &memLedger{userLimit: 1, inactive: true}, want: ErrInactive, not: ErrUsageExhausted},
		{name: "deleted after evaluation", m: &memLedger{userLimit: 1, deleted: true}, want: ErrInvalidCode, not: ErrInactive},
		{name: "quota spent", m: &memLedger{userLimit: 1, limit: int32Ptr(0)}, want: ErrUsageExhausted, not: ErrInvalidCode},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Ledger{}.Reserve(context.Background(), tc.m, reservation(uuid.New(), uuid.New()))
			require.ErrorIs(t, err, tc.want)
			require.NotErrorIs(t, err, tc.not)
			require.Zero(t, tc.m.count)
			require.Empty(t, tc.m.perUser)
			require.Empty(t, tc.m.records)
		})
	}
}

func TestLedgerRejectsIncompleteReservation(t *testing.T) {
	m := &memLedger{}
	_, err := Ledger{}.Reserve(context.Background(), m, Reservation{PromoCodeID: uuid.New(), UserID: uuid.New()})
	require.Error(t, err)

	r := reservation(uuid.New(), uuid.New())
	r.Discount = pricing.MustMoney("-1")
	_, err = Ledger{}.Reserve(context.Background(), m, r)
	require.Error(t, err)
	require.Zero(t, m.count)
}
