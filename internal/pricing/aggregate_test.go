package pricing

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	products map[uuid.UUID]Product
	variants map[uuid.UUID]Variant
}

func newFixture() *fixture {
	return &fixture{products: map[uuid.UUID]Product{}, variants: map[uuid.UUID]Variant{}}
}

func (f *fixture) product(base string) uuid.UUID {
	id := uuid.New()
	f.products[id] = Product{ID: id, BasePrice: dec(base)}
	return id
}

func (f *fixture) variant(productID uuid.UUID, v Variant) uuid.UUID {
	v.ProductID = productID
	f.variants[v.ID] = v
	return v.ID
}

func TestAggregateGoldenQuantity(t *testing.T) {
	f := newFixture()
	p := f.product("8")
	a := f.variant(p, add("2"))
	b := f.variant(p, add("1.5"))

	items, subtotal, err := Aggregate([]Selection{{ProductID: p, Quantity: 2, VariantIDs: []uuid.UUID{a, b}}}, f.products, f.variants)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "11.50", items[0].UnitPrice.String())
	require.Equal(t, "23.00", items[0].TotalPrice.String())
	require.Equal(t, "23.00", subtotal.String())
}

func TestAggregateOverridesWithQuantity(t *testing.T) {
	f := newFixture()
	p := f.product("20")
	ids := []uuid.UUID{
		f.variant(p, override("25", prio(2))),
		f.variant(p, override("30", prio(1))),
		f.variant(p, override("35", prio(0))),
		f.variant(p, add("3")),
		f.variant(p, add("2")),
	}
	items, subtotal, err := Aggregate([]Selection{{ProductID: p, Quantity: 2, VariantIDs: ids}}, f.products, f.variants)
	require.NoError(t, err)
	require.Equal(t, "40.00", items[0].UnitPrice.String())
	require.Equal(t, "80.00", subtotal.String())
}

func TestAggregateSumsManySmallItemsExactly(t *testing.T) {
	f := newFixture()
	p := f.product("0.10")
	selections := make([]Selection, 0, 1000)
	for i := 0; i < 1000; i++ {
		selections = append(selections, Selection{ProductID: p, Quantity: 1})
	}
	_, subtotal, err := Aggregate(selections, f.products, f.variants)
	require.NoError(t, err)
	require.Equal(t, "100.00", subtotal.String())
}

func TestAggregateRejectsBadSelections(t *testing.T) {
	f := newFixture()
	p := f.product("10")
	other := f.product("10")
	foreign := f.variant(other, add("1"))
	own := f.variant(p, add("1"))

	cases := map[string][]Selection{
		"empty":          nil,
		"zero quantity":  {{ProductID: p, Quantity: 0}},
		"negative qty":   {{ProductID: p, Quantity: -3}},
		"unknown prod":   {{ProductID: uuid.New(), Quantity: 1}},
		"unknown var":    {{ProductID: p, Quantity: 1, VariantIDs: []uuid.UUID{uuid.New()}}},
		"foreign var":    {{ProductID: p, Quantity: 1, VariantIDs: []uuid.UUID{foreign}}},
		"duplicate var":  {{ProductID: p, Quantity: 1, VariantIDs: []uuid.UUID{own, own}}},
		"second is last": {{ProductID: p, Quantity: 1}, {ProductID: p, Quantity: 0}},
	}
	for name, sel := range cases {
		t.Run(name, func(t *testing.T) {
			items, _, err := Aggregate(sel, f.products, f.variants)
			if !errors.Is(err, ErrInvalidLineItem) {
				t.Fatalf("expected ErrInvalidLineItem, got %v", err)
			}
			if items != nil {
				t.Fatalf("expected no partial pricing, got %d items", len(items))
			}
		})
	}
}

func TestComputeAndGuard(t *testing.T) {
	s := Compute(MustMoney("60"), MustMoney("5"), MustMoney("2.50"))
	require.Equal(t, "57.50", s.Total.String())
	require.NoError(t, s.Guard())

	bad := Compute(MustMoney("10"), MustMoney("12"), MustMoney("0"))
	require.ErrorIs(t, bad.Guard(), ErrNegativeTotal)
}

func TestAggregateRejectsAmountsBeyondColumnRange(t *testing.T) {
	f := newFixture()
	cheap := f.product("17")
	pricey := f.product("9999999999.99")
	huge := f.product("6000000000")
	bump := f.variant(pricey, add("0.01"))

	cases := map[string][]Selection{
		"quantity above max": {{ProductID: cheap, Quantity: 2_000_000_000}},
		"unit price":         {{ProductID: pricey, Quantity: 1, VariantIDs: []uuid.UUID{bump}}},
		"line total":         {{ProductID: huge, Quantity: 2}},
		"subtotal":           {{ProductID: huge, Quantity: 1}, {ProductID: huge, Quantity: 1}},
	}
	for name, sel := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := Aggregate(sel, f.products, f.variants)
			require.ErrorIs(t, err, ErrInvalidLineItem)
		})
	}

	_, subtotal, err := Aggregate([]Selection{{ProductID: pricey, Quantity: 1}}, f.products, f.variants)
	require.NoError(t, err)
	require.Equal(t, "9999999999.99", subtotal.String())

	_, _, err = Aggregate([]Selection{{ProductID: cheap, Quantity: MaxQuantity}}, f.products, f.variants)
	require.NoError(t, err)
}

func TestSummaryBounded(t *testing.T) {
	require.NoError(t, Compute(MustMoney("9999999999.00"), MustMoney("0"), MustMoney("0.99")).Bounded())

	err := Compute(MustMoney("9999999999.00"), MustMoney("0"), MustMoney("1.00")).Bounded()
	require.ErrorIs(t, err, ErrInvalidLineItem)

	err = Compute(MustMoney("1"), MustMoney("0"), MustMoney("10000000000")).Bounded()
	require.ErrorIs(t, err, ErrInvalidLineItem)
}
