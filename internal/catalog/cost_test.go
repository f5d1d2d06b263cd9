package catalog

import (
	"math"
	"strings"
	"testing"

	"github.com/Simplici0/printops/internal/apperr"
)

func nearlyEqual(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

func resolve(t *testing.T, p Product, idx Index) float64 {
	t.Helper()
	cost, err := ResolveUnitCost(p, idx)
	if err != nil {
		t.Fatalf("ResolveUnitCost(%d): %v", p.ID, err)
	}
	return cost
}

func TestResolveUnitCost_PackagingBoxed(t *testing.T) {
	p := Product{ID: 1, Variant: Packaging{UnitType: UnitTypeBoxed, BoxCost: Float(45.99), UnitsPerBox: Float(500)}}
	nearlyEqual(t, "boxed", resolve(t, p, nil), 0.09198)
}

func TestResolveUnitCost_PackagingBoxedFallsBackToUnitCost(t *testing.T) {
	tests := []struct {
		name string
		v    Packaging
		want float64
	}{
		{"zero units per box", Packaging{UnitType: UnitTypeBoxed, BoxCost: Float(10), UnitsPerBox: Float(0), UnitCost: Float(0.5)}, 0.5},
		{"missing box cost", Packaging{UnitType: UnitTypeBoxed, UnitsPerBox: Float(10), UnitCost: Float(0.25)}, 0.25},
		{"nothing set", Packaging{UnitType: UnitTypeBoxed}, 0},
		{"units", Packaging{UnitType: UnitTypeUnits, UnitCost: Float(0.3), BoxCost: Float(99), UnitsPerBox: Float(3)}, 0.3},
		{"units without cost", Packaging{UnitType: UnitTypeUnits}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nearlyEqual(t, tt.name, resolve(t, Product{Variant: tt.v}, nil), tt.want)
		})
	}
}

func TestResolveUnitCost_WideFormat(t *testing.T) {
	derived := Product{Variant: WideFormat{RollCost: Float(225), WidthM: Float(1.5), LengthM: Float(50)}}
	nearlyEqual(t, "derived", resolve(t, derived, nil), 3)

	stored := Product{Variant: WideFormat{RollCost: Float(225), WidthM: Float(1.5), LengthM: Float(50), CostPerSqm: Float(4.2)}}
	nearlyEqual(t, "stored", resolve(t, stored, nil), 4.2)

	zeroArea := Product{Variant: WideFormat{RollCost: Float(225), WidthM: Float(0), LengthM: Float(50)}}
	nearlyEqual(t, "zero area", resolve(t, zeroArea, nil), 0)

	missing := Product{Variant: WideFormat{RollCost: Float(225)}}
	nearlyEqual(t, "missing dimensions", resolve(t, missing, nil), 0)
}

func TestResolveUnitCost_Leaflets(t *testing.T) {
	nearlyEqual(t, "leaflets", resolve(t, Product{Variant: Leaflets{CostPerUnit: Float(0.04)}}, nil), 0.04)
	nearlyEqual(t, "leaflets default", resolve(t, Product{Variant: Leaflets{}}, nil), 0)
}

func TestResolveUnitCost_FinishedProductSumsComponents(t *testing.T) {
	a := Product{ID: 1, Variant: WideFormat{CostPerSqm: Float(3)}}
	b := Product{ID: 2, Variant: WideFormat{CostPerSqm: Float(5)}}
	kit := Product{ID: 3, Variant: FinishedProduct{Components: []Component{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1},
	}}}
	idx := NewIndex([]Product{a, b, kit})

	nearlyEqual(t, "kit", resolve(t, kit, idx), 11)
}

func TestResolveUnitCost_NestedFinishedProducts(t *testing.T) {
	leaflet := Product{ID: 1, Variant: Leaflets{CostPerUnit: Float(0.1)}}
	box := Product{ID: 2, Variant: Packaging{UnitType: UnitTypeUnits, UnitCost: Float(2)}}
	pack := Product{ID: 3, Variant: FinishedProduct{Components: []Component{{ProductID: 1, Quantity: 10}}}}
	bundle := Product{ID: 4, Variant: FinishedProduct{Components: []Component{
		{ProductID: 3, Quantity: 2},
		{ProductID: 2, Quantity: 1},
		{ProductID: 3, Quantity: 1},
	}}}
	idx := NewIndex([]Product{leaflet, box, pack, bundle})

	// pack = 1.0; bundle = 2*1 + 2 + 1*1
	nearlyEqual(t, "bundle", resolve(t, bundle, idx), 5)
}

func TestResolveUnitCost_CycleIsConfigurationError(t *testing.T) {
	a := Product{ID: 1, Variant: FinishedProduct{Components: []Component{{ProductID: 2, Quantity: 1}}}}
	b := Product{ID: 2, Variant: FinishedProduct{Components: []Component{{ProductID: 3, Quantity: 1}}}}
	c := Product{ID: 3, Variant: FinishedProduct{Components: []Component{{ProductID: 1, Quantity: 1}}}}
	idx := NewIndex([]Product{a, b, c})

	_, err := ResolveUnitCost(a, idx)
	if !apperr.IsConfiguration(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if want := "1 -> 2 -> 3 -> 1"; !strings.Contains(err.Error(), want) {
		t.Fatalf("expected cycle path %q in %q", want, err.Error())
	}
}

func TestResolveUnitCost_SelfReferenceIsConfigurationError(t *testing.T) {
	a := Product{ID: 7, Variant: FinishedProduct{Components: []Component{{ProductID: 7, Quantity: 1}}}}

	_, err := ResolveUnitCost(a, NewIndex([]Product{a}))
	if !apperr.IsConfiguration(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestResolveUnitCost_MissingComponentIsNotFound(t *testing.T) {
	kit := Product{ID: 3, Variant: FinishedProduct{Components: []Component{{ProductID: 99, Quantity: 1}}}}

	_, err := ResolveUnitCost(kit, NewIndex([]Product{kit}))
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestResolveUnitCost_SharedComponentIsNotACycle(t *testing.T) {
	base := Product{ID: 1, Variant: Leaflets{CostPerUnit: Float(1)}}
	left := Product{ID: 2, Variant: FinishedProduct{Components: []Component{{ProductID: 1, Quantity: 1}}}}
	right := Product{ID: 3, Variant: FinishedProduct{Components: []Component{{ProductID: 1, Quantity: 2}}}}
	top := Product{ID: 4, Variant: FinishedProduct{Components: []Component{{ProductID: 2, Quantity: 1}, {ProductID: 3, Quantity: 1}}}}
	idx := NewIndex([]Product{base, left, right, top})

	nearlyEqual(t, "diamond", resolve(t, top, idx), 3)
}
