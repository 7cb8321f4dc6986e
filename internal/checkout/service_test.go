package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PLManuel/Mitikas-sub000/internal/cart"
	"github.com/PLManuel/Mitikas-sub000/internal/fault"
	"github.com/PLManuel/Mitikas-sub000/internal/payment"
	"github.com/PLManuel/Mitikas-sub000/internal/promo"
	"github.com/PLManuel/Mitikas-sub000/internal/shipping"
)

type fakeCart struct{ view cart.View }

func (f *fakeCart) View(context.Context, string) (cart.View, error) { return f.view, nil }

type fakePayments struct {
	methods map[int64]payment.PaymentMethod
	cards   map[int64]payment.Card
}

func (f *fakePayments) GetMethod(_ context.Context, id int64) (payment.PaymentMethod, error) {
	m, ok := f.methods[id]
	if !ok {
		return payment.PaymentMethod{}, payment.ErrNotFound
	}
	return m, nil
}

func (f *fakePayments) GetCard(_ context.Context, id int64) (payment.Card, error) {
	c, ok := f.cards[id]
	if !ok {
		return payment.Card{}, payment.ErrNotFound
	}
	return c, nil
}

type fakeZones struct{ zones map[int64]shipping.Zone }

func (f *fakeZones) GetZone(_ context.Context, id int64) (shipping.Zone, error) {
	z, ok := f.zones[id]
	if !ok {
		return shipping.Zone{}, shipping.ErrNotFound
	}
	return z, nil
}

type fakePlacer struct {
	placed []Placement
	err    error
}

func (f *fakePlacer) PlaceOrder(_ context.Context, p Placement) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.placed = append(f.placed, p)
	return "ord-1", nil
}

func pricedCart() cart.View {
	now := time.Now()
	pid := int64(5)
	pr := &promo.Promotion{ID: 5, Kind: promo.KindPercentage, Value: 10,
		StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour), Active: true}
	stored := []cart.StoredItem{
		{Item: cart.Item{ID: 1, UserID: "u1", ProductID: 1, VariantID: 10, Quantity: 2, PromotionID: &pid},
			UnitCents: 10000, Promotion: pr},
		{Item: cart.Item{ID: 2, UserID: "u1", ProductID: 1, VariantID: 11, Quantity: 1},
			UnitCents: 4000},
	}
	return cart.Price(stored, now) // subtotal 24000, discount 2000, total 22000
}

func fixture(balance int64) (*Service, *fakePlacer) {
	placer := &fakePlacer{}
	svc := &Service{
		Cart: &fakeCart{view: pricedCart()},
		Payments: &fakePayments{
			methods: map[int64]payment.PaymentMethod{
				1: {ID: 1, Name: "Efectivo", Kind: payment.KindCash, Active: true},
				2: {ID: 2, Name: "Tarjeta simulada", Kind: payment.KindCard, Active: true},
				3: {ID: 3, Name: "Retirado", Kind: payment.KindCash, Active: false},
			},
			cards: map[int64]payment.Card{
				7: {ID: 7, UserID: "u1", BalanceCents: balance},
				8: {ID: 8, UserID: "someone-else", BalanceCents: 999999},
			},
		},
		Zones: &fakeZones{zones: map[int64]shipping.Zone{
			4: {ID: 4, District: "Miraflores", CostCents: 1500, Active: true},
			5: {ID: 5, District: "Cerrado", CostCents: 1000, Active: false},
		}},
		Orders: placer,
	}
	return svc, placer
}

func TestPlaceOrderPickupCash(t *testing.T) {
	svc, placer := fixture(0)
	res, err := svc.PlaceOrder(context.Background(), "u1", Input{
		Name: "Ana", Surname: "Quispe", PaymentMethodID: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, "ord-1", res.OrderID)
	assert.Equal(t, int64(24000), res.SubtotalCents)
	assert.Equal(t, int64(2000), res.DiscountCents)
	assert.Equal(t, int64(22000), res.TotalCents)
	assert.Equal(t, int64(0), res.ShippingCents)
	assert.Equal(t, int64(22000), res.GrandTotalCents)
	assert.Equal(t, string(payment.KindCash), res.PaymentKind)

	require.Len(t, placer.placed, 1)
	p := placer.placed[0]
	assert.Equal(t, payment.KindCash, p.Method.Kind)
	assert.Nil(t, p.Address)
	assert.Nil(t, p.ShippingCents)

	// lines are the cart's prices at call time, frozen
	require.Len(t, p.Lines, 2)
	assert.Equal(t, int64(10000), p.Lines[0].UnitCents)
	assert.Equal(t, int64(9000), p.Lines[0].PromoCents)
	assert.Equal(t, int64(18000), p.Lines[0].SubtotalCents)
	assert.Equal(t, int64(4000), p.Lines[1].PromoCents)
}

func TestPlaceOrderDeliveryAddsShipping(t *testing.T) {
	svc, placer := fixture(0)
	zone := int64(4)
	res, err := svc.PlaceOrder(context.Background(), "u1", Input{
		Name: "Ana", Surname: "Quispe", PaymentMethodID: 1,
		DeliveryZoneID: &zone, Address: "Av. Larco 123",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1500), res.ShippingCents)
	assert.Equal(t, int64(23500), res.GrandTotalCents)
	require.Len(t, placer.placed, 1)
	require.NotNil(t, placer.placed[0].ShippingCents)
	assert.Equal(t, int64(1500), *placer.placed[0].ShippingCents)
	require.NotNil(t, placer.placed[0].Address)
}

func TestPlaceOrderPreconditions(t *testing.T) {
	zone4, zone5, zone99 := int64(4), int64(5), int64(99)
	card7 := int64(7)

	cases := []struct {
		name string
		in   Input
		kind fault.Kind
	}{
		{"missing name", Input{Surname: "Q", PaymentMethodID: 1}, fault.KindInvalid},
		{"missing surname", Input{Name: "A", PaymentMethodID: 1}, fault.KindInvalid},
		{"missing method", Input{Name: "A", Surname: "Q"}, fault.KindInvalid},
		{"unknown method", Input{Name: "A", Surname: "Q", PaymentMethodID: 99}, fault.KindNotFound},
		{"inactive method", Input{Name: "A", Surname: "Q", PaymentMethodID: 3}, fault.KindInvalid},
		{"unknown zone", Input{Name: "A", Surname: "Q", PaymentMethodID: 1, DeliveryZoneID: &zone99, Address: "x"}, fault.KindNotFound},
		{"inactive zone", Input{Name: "A", Surname: "Q", PaymentMethodID: 1, DeliveryZoneID: &zone5, Address: "x"}, fault.KindInvalid},
		{"delivery without address", Input{Name: "A", Surname: "Q", PaymentMethodID: 1, DeliveryZoneID: &zone4}, fault.KindInvalid},
		{"card method without card", Input{Name: "A", Surname: "Q", PaymentMethodID: 2}, fault.KindInvalid},
		{"card of another user", Input{Name: "A", Surname: "Q", PaymentMethodID: 2, SimulatedCardID: func() *int64 { v := int64(8); return &v }()}, fault.KindForbidden},
		{"insufficient balance", Input{Name: "A", Surname: "Q", PaymentMethodID: 2, SimulatedCardID: &card7}, fault.KindConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, placer := fixture(100) // far below the 22000 total
			_, err := svc.PlaceOrder(context.Background(), "u1", tc.in)
			require.Error(t, err)
			assert.Equal(t, tc.kind, fault.KindOf(err))
			assert.Empty(t, placer.placed, "no order may exist after a failed checkout")
		})
	}
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	svc, placer := fixture(0)
	svc.Cart = &fakeCart{view: cart.View{}}
	_, err := svc.PlaceOrder(context.Background(), "u1", Input{
		Name: "Ana", Surname: "Quispe", PaymentMethodID: 1,
	})
	require.Error(t, err)
	assert.Equal(t, fault.KindInvalid, fault.KindOf(err))
	assert.Empty(t, placer.placed)
}

func TestPlaceOrderInsufficientFunds(t *testing.T) {
	// balance 50.00, total 220.00 -> conflict, nothing placed
	svc, placer := fixture(5000)
	card := int64(7)
	_, err := svc.PlaceOrder(context.Background(), "u1", Input{
		Name: "Ana", Surname: "Quispe", PaymentMethodID: 2, SimulatedCardID: &card,
	})
	require.Error(t, err)
	assert.Equal(t, fault.KindConflict, fault.KindOf(err))
	assert.Empty(t, placer.placed)
}

func TestPlaceOrderCardHappyPath(t *testing.T) {
	svc, placer := fixture(30000)
	card := int64(7)
	res, err := svc.PlaceOrder(context.Background(), "u1", Input{
		Name: "Ana", Surname: "Quispe", PaymentMethodID: 2, SimulatedCardID: &card,
	})
	require.NoError(t, err)
	require.Len(t, placer.placed, 1)
	p := placer.placed[0]
	assert.Equal(t, payment.KindCard, p.Method.Kind)
	assert.Equal(t, int64(7), p.Method.CardID)
	assert.Equal(t, res.GrandTotalCents, p.GrandTotalCents)
	assert.Equal(t, string(payment.KindCard), res.PaymentKind)
}

func TestPlaceOrderDebitRace(t *testing.T) {
	svc, placer := fixture(30000)
	placer.err = payment.ErrInsufficientFunds
	card := int64(7)
	_, err := svc.PlaceOrder(context.Background(), "u1", Input{
		Name: "Ana", Surname: "Quispe", PaymentMethodID: 2, SimulatedCardID: &card,
	})
	require.Error(t, err)
	assert.Equal(t, fault.KindConflict, fault.KindOf(err))
}
