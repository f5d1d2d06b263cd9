package jobs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/printops/internal/apperr"
	"github.com/Simplici0/printops/internal/catalog"
)

func int64Ptr(v int64) *int64 { return &v }

func testIndex() catalog.Index {
	return catalog.NewIndex([]catalog.Product{
		{ID: 1, Name: "Mailer", Variant: catalog.Packaging{UnitType: catalog.UnitTypeBoxed, BoxCost: catalog.Float(45.99), UnitsPerBox: catalog.Float(500)}},
		{ID: 2, Name: "Vinyl", Variant: catalog.WideFormat{RollCost: catalog.Float(225), WidthM: catalog.Float(1.5), LengthM: catalog.Float(50)}},
		{ID: 3, Name: "Flyer", Variant: catalog.Leaflets{CostPerUnit: catalog.Float(0.04)}},
		{ID: 4, Name: "Kit", Variant: catalog.FinishedProduct{Components: []catalog.Component{{ProductID: 2, Quantity: 2}}}},
	})
}

func TestReprice_UsesResolvedProductCost(t *testing.T) {
	idx := testIndex()

	packaging := Item{ProductID: int64Ptr(1), Category: catalog.CategoryPackaging, Quantity: 1000, IsPrinted: true, UnitPrice: 999}
	require.NoError(t, Reprice(&packaging, idx))
	assert.InDelta(t, 0.09198, packaging.UnitPrice, 1e-9)
	assert.InDelta(t, 110.376, packaging.TotalPrice, 1e-9)

	banner := Item{ProductID: int64Ptr(2), Category: catalog.CategoryWideFormat, Quantity: 5, WidthM: catalog.Float(2), HeightM: catalog.Float(3)}
	require.NoError(t, Reprice(&banner, idx))
	assert.InDelta(t, 90, banner.TotalPrice, 1e-9)

	kit := Item{ProductID: int64Ptr(4), Category: catalog.CategoryFinishedProduct, Quantity: 1}
	require.NoError(t, Reprice(&kit, idx))
	assert.InDelta(t, 6, kit.UnitPrice, 1e-9)
	assert.InDelta(t, 6, kit.TotalPrice, 1e-9)
}

func TestReprice_RecomputesWhenModifiersChange(t *testing.T) {
	idx := testIndex()
	it := Item{ProductID: int64Ptr(1), Category: catalog.CategoryPackaging, Quantity: 1000}
	require.NoError(t, Reprice(&it, idx))
	before := it.TotalPrice

	it.IsPrinted = true
	require.NoError(t, Reprice(&it, idx))
	assert.InDelta(t, before*1.2, it.TotalPrice, 1e-9)

	it.Quantity = 500
	require.NoError(t, Reprice(&it, idx))
	assert.InDelta(t, before*0.6, it.TotalPrice, 1e-9)
}

func TestReprice_AdHocItemKeepsUnitPrice(t *testing.T) {
	it := Item{Category: catalog.CategoryLeaflets, Quantity: 100, UnitPrice: 0.5, TotalPrice: 1}
	require.NoError(t, Reprice(&it, nil))
	assert.InDelta(t, 0.5, it.UnitPrice, 1e-9)
	assert.InDelta(t, 50, it.TotalPrice, 1e-9)
}

func TestReprice_Errors(t *testing.T) {
	idx := testIndex()

	missing := Item{ProductID: int64Ptr(99), Category: catalog.CategoryLeaflets, Quantity: 1}
	assert.True(t, apperr.IsNotFound(Reprice(&missing, idx)))

	mismatch := Item{ProductID: int64Ptr(3), Category: catalog.CategoryPackaging, Quantity: 1}
	assert.True(t, apperr.IsValidation(Reprice(&mismatch, idx)))

	overdone := Item{Category: catalog.CategoryLeaflets, Quantity: 1, WorkCompleted: 2}
	assert.True(t, apperr.IsValidation(Reprice(&overdone, idx)))
}

type stubIndexer struct {
	idx   catalog.Index
	calls int
}

func (s *stubIndexer) Index(context.Context) (catalog.Index, error) {
	s.calls++
	return s.idx, nil
}

func TestPriceItems_LoadsIndexOnlyWhenNeeded(t *testing.T) {
	indexer := &stubIndexer{idx: testIndex()}
	svc := NewService(nil, indexer)

	adHoc := []Item{{Category: catalog.CategoryLeaflets, Quantity: 1, UnitPrice: 2}}
	require.NoError(t, svc.priceItems(context.Background(), adHoc))
	assert.Equal(t, 0, indexer.calls)

	withProducts := []Item{
		{ProductID: int64Ptr(3), Category: catalog.CategoryLeaflets, Quantity: 10},
		{ProductID: int64Ptr(1), Category: catalog.CategoryPackaging, Quantity: 10},
	}
	require.NoError(t, svc.priceItems(context.Background(), withProducts))
	assert.Equal(t, 1, indexer.calls)
	assert.InDelta(t, 0.4, withProducts[0].TotalPrice, 1e-9)
}

func TestPayloadJob_Validation(t *testing.T) {
	_, err := Payload{JobNumber: "J-1", CustomerName: "Acme"}.Job()
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "items")

	_, err = Payload{JobNumber: "J-1", CustomerName: "Acme", Items: []ItemPayload{{
		ProductName: "Flyer", ProductCategory: "leaflets", Quantity: 10, WorkCompleted: 11,
	}}}.Job()
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "work_completed")

	_, err = Payload{JobNumber: "J-1", CustomerName: "Acme", Items: []ItemPayload{{
		ProductName: "Flyer", ProductCategory: "leaflets", Quantity: 10, IsPrinted: true,
	}}}.Job()
	assert.True(t, apperr.IsValidation(err))

	job, err := Payload{JobNumber: "J-1", CustomerName: "Acme", Items: []ItemPayload{{
		ProductName: "Flyer", ProductCategory: "leaflets", Quantity: 10, WorkCompleted: 4,
	}}}.Job()
	require.NoError(t, err)
	assert.Equal(t, StatusPending, job.Status)
	assert.Equal(t, 4.0, job.WorkCompleted())
}
