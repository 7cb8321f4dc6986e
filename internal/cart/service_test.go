package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PLManuel/Mitikas-sub000/internal/catalog"
	"github.com/PLManuel/Mitikas-sub000/internal/fault"
	"github.com/PLManuel/Mitikas-sub000/internal/promo"
)

type fakeStore struct {
	items  map[int64]Item
	nextID int64
	merged int
	failAt int // fail MergeAll when >0 (simulated infra error)
}

func newFakeStore() *fakeStore { return &fakeStore{items: map[int64]Item{}, nextID: 1} }

func (f *fakeStore) ListPriced(context.Context, string) ([]StoredItem, error) { return nil, nil }

func (f *fakeStore) Upsert(_ context.Context, userID string, in AddInput) (Item, error) {
	for id, it := range f.items {
		if it.UserID == userID && it.VariantID == in.VariantID {
			it.Quantity += in.Quantity
			it.PromotionID = in.PromotionID
			f.items[id] = it
			return it, nil
		}
	}
	it := Item{ID: f.nextID, UserID: userID, ProductID: in.ProductID,
		VariantID: in.VariantID, Quantity: in.Quantity, PromotionID: in.PromotionID}
	f.items[f.nextID] = it
	f.nextID++
	return it, nil
}

func (f *fakeStore) GetItem(_ context.Context, id int64) (Item, error) {
	it, ok := f.items[id]
	if !ok {
		return Item{}, ErrNotFound
	}
	return it, nil
}

func (f *fakeStore) UpdateQuantity(_ context.Context, id int64, qty int32) error {
	it := f.items[id]
	it.Quantity = qty
	f.items[id] = it
	return nil
}

func (f *fakeStore) UpdatePromotion(_ context.Context, id int64, p *int64) error {
	it := f.items[id]
	it.PromotionID = p
	f.items[id] = it
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id int64) error { delete(f.items, id); return nil }
func (f *fakeStore) Clear(_ context.Context, userID string) error {
	for id, it := range f.items {
		if it.UserID == userID {
			delete(f.items, id)
		}
	}
	return nil
}

func (f *fakeStore) MergeAll(ctx context.Context, userID string, items []AddInput) error {
	if f.failAt > 0 {
		return errors.New("connection reset")
	}
	for _, in := range items {
		if _, err := f.Upsert(ctx, userID, in); err != nil {
			return err
		}
	}
	f.merged++
	return nil
}

type fakeCatalog struct {
	products map[int64]catalog.Product
	variants map[int64]catalog.Variant
}

func (f *fakeCatalog) GetProduct(_ context.Context, id int64) (catalog.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

func (f *fakeCatalog) GetVariant(_ context.Context, id int64) (catalog.Variant, error) {
	v, ok := f.variants[id]
	if !ok {
		return catalog.Variant{}, catalog.ErrNotFound
	}
	return v, nil
}

type fakeResolver struct{ byVariant map[int64]*promo.Promotion }

func (f *fakeResolver) Resolve(_ context.Context, variantID int64, _ time.Time) (*promo.Promotion, error) {
	return f.byVariant[variantID], nil
}

type fakePromos struct {
	promos map[int64]promo.Promotion
	links  map[[2]int64]bool
}

func (f *fakePromos) Get(_ context.Context, id int64) (promo.Promotion, error) {
	p, ok := f.promos[id]
	if !ok {
		return promo.Promotion{}, promo.ErrNotFound
	}
	return p, nil
}

func (f *fakePromos) IsLinked(_ context.Context, promotionID, variantID int64) (bool, error) {
	return f.links[[2]int64{promotionID, variantID}], nil
}

func fixture() (*Service, *fakeStore) {
	store := newFakeStore()
	cat := &fakeCatalog{
		products: map[int64]catalog.Product{
			1: {ID: 1, Name: "Alfajor", Active: true},
			2: {ID: 2, Name: "Retired", Active: false},
		},
		variants: map[int64]catalog.Variant{
			10: {ID: 10, ProductID: 1, Name: "Caja x6", PriceCents: 10000, Active: true},
			11: {ID: 11, ProductID: 1, Name: "Caja x12", PriceCents: 18000, Active: false},
			20: {ID: 20, ProductID: 2, Name: "Unidad", PriceCents: 500, Active: true},
		},
	}
	now := time.Now()
	promos := &fakePromos{
		promos: map[int64]promo.Promotion{
			5: {ID: 5, Kind: promo.KindPercentage, Value: 10,
				StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour), Active: true},
			6: {ID: 6, Kind: promo.KindPercentage, Value: 50,
				StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour), Active: false},
			7: {ID: 7, Kind: promo.KindPercentage, Value: 20,
				StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour), Active: true},
		},
		links: map[[2]int64]bool{{5, 10}: true, {6, 10}: true},
	}
	return NewService(store, cat, promos, &fakeResolver{}), store
}

func TestAddCreatesThenIncrements(t *testing.T) {
	svc, store := fixture()
	ctx := context.Background()

	it, err := svc.Add(ctx, "u1", AddInput{ProductID: 1, VariantID: 10, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, int32(2), it.Quantity)

	it, err = svc.Add(ctx, "u1", AddInput{ProductID: 1, VariantID: 10, Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, int32(5), it.Quantity)
	assert.Len(t, store.items, 1, "same variant must never create a second row")
}

func TestAddDefaultsAndRejectsQuantity(t *testing.T) {
	svc, _ := fixture()
	ctx := context.Background()

	it, err := svc.Add(ctx, "u1", AddInput{ProductID: 1, VariantID: 10})
	require.NoError(t, err)
	assert.Equal(t, int32(1), it.Quantity)

	_, err = svc.Add(ctx, "u1", AddInput{ProductID: 1, VariantID: 10, Quantity: -2})
	assert.Equal(t, fault.KindInvalid, fault.KindOf(err))
}

func TestAddValidation(t *testing.T) {
	svc, _ := fixture()
	ctx := context.Background()
	pid := func(v int64) *int64 { return &v }

	cases := []struct {
		name string
		in   AddInput
		kind fault.Kind
	}{
		{"unknown product", AddInput{ProductID: 99, VariantID: 10}, fault.KindNotFound},
		{"inactive product", AddInput{ProductID: 2, VariantID: 20}, fault.KindInvalid},
		{"unknown variant", AddInput{ProductID: 1, VariantID: 99}, fault.KindNotFound},
		{"inactive variant", AddInput{ProductID: 1, VariantID: 11}, fault.KindInvalid},
		{"variant of other product", AddInput{ProductID: 1, VariantID: 20}, fault.KindInvalid},
		{"unknown promotion", AddInput{ProductID: 1, VariantID: 10, PromotionID: pid(99)}, fault.KindNotFound},
		{"inactive promotion", AddInput{ProductID: 1, VariantID: 10, PromotionID: pid(6)}, fault.KindInvalid},
		{"unlinked promotion", AddInput{ProductID: 1, VariantID: 10, PromotionID: pid(7)}, fault.KindInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Add(ctx, "u1", tc.in)
			require.Error(t, err)
			assert.Equal(t, tc.kind, fault.KindOf(err))
		})
	}
}

func TestRepeatedAddOverwritesPromotion(t *testing.T) {
	svc, store := fixture()
	ctx := context.Background()
	five := int64(5)

	_, err := svc.Add(ctx, "u1", AddInput{ProductID: 1, VariantID: 10, Quantity: 1, PromotionID: &five})
	require.NoError(t, err)

	// a second add with no promotion silently drops the stored one
	it, err := svc.Add(ctx, "u1", AddInput{ProductID: 1, VariantID: 10, Quantity: 1})
	require.NoError(t, err)
	assert.Nil(t, it.PromotionID)
	assert.Nil(t, store.items[it.ID].PromotionID)
}

func TestPriceSummary(t *testing.T) {
	now := time.Now()
	active := &promo.Promotion{ID: 5, Kind: promo.KindPercentage, Value: 10,
		StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour), Active: true}

	stored := []StoredItem{
		{Item: Item{ID: 1, Quantity: 2}, UnitCents: 10000, Promotion: active},
		{Item: Item{ID: 2, Quantity: 1}, UnitCents: 500},
	}
	v := Price(stored, now)

	assert.Equal(t, int64(9000), v.Items[0].DiscountedCents)
	assert.Equal(t, int64(18000), v.Items[0].SubtotalCents)
	assert.Equal(t, int64(2000), v.Items[0].DiscountCents)

	assert.Equal(t, 2, v.Summary.ItemCount)
	assert.Equal(t, int32(3), v.Summary.UnitCount)
	assert.Equal(t, int64(20500), v.Summary.SubtotalCents)
	assert.Equal(t, int64(2000), v.Summary.DiscountCents)
	assert.Equal(t, v.Summary.SubtotalCents-v.Summary.DiscountCents, v.Summary.TotalCents)
}

func TestPriceStalePromotionDoesNotDiscount(t *testing.T) {
	now := time.Now()
	expired := &promo.Promotion{ID: 5, Kind: promo.KindPercentage, Value: 10,
		StartDate: now.Add(-2 * time.Hour), EndDate: now.Add(-time.Hour), Active: true}
	deactivated := &promo.Promotion{ID: 6, Kind: promo.KindPercentage, Value: 50,
		StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour), Active: false}

	v := Price([]StoredItem{
		{Item: Item{ID: 1, Quantity: 1}, UnitCents: 10000, Promotion: expired},
		{Item: Item{ID: 2, Quantity: 1}, UnitCents: 10000, Promotion: deactivated},
	}, now)

	assert.Equal(t, int64(0), v.Summary.DiscountCents)
	assert.Equal(t, int64(20000), v.Summary.TotalCents)
}

type listStore struct {
	fakeStore
	stored []StoredItem
}

func (l *listStore) ListPriced(context.Context, string) ([]StoredItem, error) {
	return l.stored, nil
}

func TestViewResolvesPromotionForUnmarkedItems(t *testing.T) {
	now := time.Now()
	current := &promo.Promotion{ID: 5, Kind: promo.KindPercentage, Value: 10,
		StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour), Active: true}
	store := &listStore{stored: []StoredItem{
		{Item: Item{ID: 1, UserID: "u1", VariantID: 10, Quantity: 1}, UnitCents: 10000},
	}}
	svc := NewService(store, &fakeCatalog{}, &fakePromos{},
		&fakeResolver{byVariant: map[int64]*promo.Promotion{10: current}})

	v, err := svc.View(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, v.Items, 1)
	assert.Equal(t, int64(9000), v.Items[0].DiscountedCents)
	assert.Equal(t, int64(1000), v.Summary.DiscountCents)
}

func TestSetQuantityOwnershipAndBounds(t *testing.T) {
	svc, _ := fixture()
	ctx := context.Background()

	it, err := svc.Add(ctx, "u1", AddInput{ProductID: 1, VariantID: 10, Quantity: 1})
	require.NoError(t, err)

	assert.Equal(t, fault.KindInvalid, fault.KindOf(svc.SetQuantity(ctx, "u1", it.ID, 0)))
	assert.Equal(t, fault.KindForbidden, fault.KindOf(svc.SetQuantity(ctx, "u2", it.ID, 2)))
	assert.Equal(t, fault.KindNotFound, fault.KindOf(svc.SetQuantity(ctx, "u1", 999, 2)))
	require.NoError(t, svc.SetQuantity(ctx, "u1", it.ID, 7))
}

func TestMergeLocalSumsAndCreates(t *testing.T) {
	svc, store := fixture()
	ctx := context.Background()

	_, err := svc.Add(ctx, "u1", AddInput{ProductID: 1, VariantID: 10, Quantity: 2})
	require.NoError(t, err)

	err = svc.MergeLocal(ctx, "u1", []AddInput{
		{ProductID: 1, VariantID: 10, Quantity: 3},
		{ProductID: 2, VariantID: 20, Quantity: 1},
	})
	// product 2 is inactive -> whole merge must fail up front
	require.Error(t, err)
	assert.Equal(t, 0, store.merged)
	assert.Len(t, store.items, 1)
	for _, it := range store.items {
		assert.Equal(t, int32(2), it.Quantity, "failed merge must not touch the account cart")
	}

	err = svc.MergeLocal(ctx, "u1", []AddInput{
		{ProductID: 1, VariantID: 10, Quantity: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, store.merged)
	for _, it := range store.items {
		assert.Equal(t, int32(5), it.Quantity)
	}
}

func TestMergeLocalSurfacesStoreFailure(t *testing.T) {
	svc, store := fixture()
	store.failAt = 1
	err := svc.MergeLocal(context.Background(), "u1", []AddInput{
		{ProductID: 1, VariantID: 10, Quantity: 1},
	})
	require.Error(t, err)
	assert.Len(t, store.items, 0)
}
