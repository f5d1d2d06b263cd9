package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/printops/internal/apperr"
	"github.com/Simplici0/printops/internal/db/dbtest"
)

func TestStore_CreateDerivesCostPerSqm(t *testing.T) {
	ctx := context.Background()
	store := NewStore(dbtest.Open(t))

	created, err := store.Create(ctx, Product{
		Name:    "Banner vinyl",
		Variant: WideFormat{RollCost: Float(225), WidthM: Float(1.5), LengthM: Float(50)},
	})
	require.NoError(t, err)

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	wf, ok := got.Variant.(WideFormat)
	require.True(t, ok)
	require.NotNil(t, wf.CostPerSqm)
	assert.InDelta(t, 3, *wf.CostPerSqm, 1e-9)
}

func TestStore_UpdateRederivesCostPerSqm(t *testing.T) {
	ctx := context.Background()
	store := NewStore(dbtest.Open(t))

	created, err := store.Create(ctx, Product{
		Name:    "Banner vinyl",
		Variant: WideFormat{RollCost: Float(225), WidthM: Float(1.5), LengthM: Float(50)},
	})
	require.NoError(t, err)

	// Edit as a client would: read, raise the roll cost, send the stored
	// cost per square metre back unchanged.
	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	edited := ToPayload(got)
	edited.RollCost = Float(300)
	product, err := edited.Product()
	require.NoError(t, err)

	_, err = store.Update(ctx, created.ID, product)
	require.NoError(t, err)

	cost, err := store.UnitCost(ctx, created.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4, cost, 1e-9)
}

func TestStore_KeepsCostPerSqmWithoutRollInputs(t *testing.T) {
	ctx := context.Background()
	store := NewStore(dbtest.Open(t))

	created, err := store.Create(ctx, Product{Name: "Mesh", Variant: WideFormat{CostPerSqm: Float(2.5), RollCost: Float(100)}})
	require.NoError(t, err)

	cost, err := store.UnitCost(ctx, created.ID)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, cost, 1e-9)
}

func TestStore_FinishedProductResolvesThroughComponents(t *testing.T) {
	ctx := context.Background()
	store := NewStore(dbtest.Open(t))

	a, err := store.Create(ctx, Product{Name: "A", Variant: WideFormat{CostPerSqm: Float(3)}})
	require.NoError(t, err)
	b, err := store.Create(ctx, Product{Name: "B", Variant: WideFormat{CostPerSqm: Float(5)}})
	require.NoError(t, err)
	kit, err := store.Create(ctx, Product{Name: "Kit", Variant: FinishedProduct{Components: []Component{
		{ProductID: a.ID, Quantity: 2},
		{ProductID: b.ID, Quantity: 1},
	}}})
	require.NoError(t, err)

	cost, err := store.UnitCost(ctx, kit.ID)
	require.NoError(t, err)
	assert.InDelta(t, 11, cost, 1e-9)

	got, err := store.Get(ctx, kit.ID)
	require.NoError(t, err)
	assert.Len(t, got.Variant.(FinishedProduct).Components, 2)
}

func TestStore_UpdateRejectsCycleAndRollsBack(t *testing.T) {
	ctx := context.Background()
	store := NewStore(dbtest.Open(t))

	base, err := store.Create(ctx, Product{Name: "Base", Variant: Leaflets{CostPerUnit: Float(1)}})
	require.NoError(t, err)
	inner, err := store.Create(ctx, Product{Name: "Inner", Variant: FinishedProduct{Components: []Component{{ProductID: base.ID, Quantity: 1}}}})
	require.NoError(t, err)
	outer, err := store.Create(ctx, Product{Name: "Outer", Variant: FinishedProduct{Components: []Component{{ProductID: inner.ID, Quantity: 1}}}})
	require.NoError(t, err)

	_, err = store.Update(ctx, inner.ID, Product{Name: "Inner", Variant: FinishedProduct{Components: []Component{{ProductID: outer.ID, Quantity: 1}}}})
	assert.True(t, apperr.IsConfiguration(err), "got %v", err)

	got, err := store.Get(ctx, inner.ID)
	require.NoError(t, err)
	assert.Equal(t, []Component{{ProductID: base.ID, Quantity: 1}}, got.Variant.(FinishedProduct).Components)
}

func TestStore_CreateWithMissingComponentIsNotFound(t *testing.T) {
	ctx := context.Background()
	store := NewStore(dbtest.Open(t))

	_, err := store.Create(ctx, Product{Name: "Kit", Variant: FinishedProduct{Components: []Component{{ProductID: 42, Quantity: 1}}}})
	assert.True(t, apperr.IsNotFound(err), "got %v", err)

	products, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestStore_DeleteRefusesReferencedProduct(t *testing.T) {
	ctx := context.Background()
	store := NewStore(dbtest.Open(t))

	base, err := store.Create(ctx, Product{Name: "Base", Variant: Packaging{UnitType: UnitTypeUnits, UnitCost: Float(1)}})
	require.NoError(t, err)
	kit, err := store.Create(ctx, Product{Name: "Kit", Variant: FinishedProduct{Components: []Component{{ProductID: base.ID, Quantity: 3}}}})
	require.NoError(t, err)

	assert.True(t, apperr.IsValidation(store.Delete(ctx, base.ID)))
	require.NoError(t, store.Delete(ctx, kit.ID))
	require.NoError(t, store.Delete(ctx, base.ID))
	assert.True(t, apperr.IsNotFound(store.Delete(ctx, base.ID)))
}
