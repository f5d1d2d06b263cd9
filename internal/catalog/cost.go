package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Simplici0/printops/internal/apperr"
)

// Index resolves component references by product id.
type Index map[int64]Product

// NewIndex builds an Index from a product list.
func NewIndex(products []Product) Index {
	idx := make(Index, len(products))
	for _, p := range products {
		idx[p.ID] = p
	}
	return idx
}

// UnitCostValue of a packaging product. A boxed product divides the box cost when
// both box fields are set and units per box is positive; otherwise the
// plain unit cost applies.
func (v Packaging) UnitCostValue() float64 {
	if v.UnitType == UnitTypeBoxed && v.BoxCost != nil && v.UnitsPerBox != nil && *v.UnitsPerBox > 0 {
		return *v.BoxCost / *v.UnitsPerBox
	}
	return value(v.UnitCost)
}

// DeriveCostPerSqm returns the roll cost spread over the roll area, or 0 when
// any input is missing or the area is not positive.
func (v WideFormat) DeriveCostPerSqm() float64 {
	if v.RollCost == nil || v.WidthM == nil || v.LengthM == nil {
		return 0
	}
	area := *v.WidthM * *v.LengthM
	if area <= 0 {
		return 0
	}
	return *v.RollCost / area
}

// UnitCostValue prefers the stored cost per square metre.
func (v WideFormat) UnitCostValue() float64 {
	if v.CostPerSqm != nil {
		return *v.CostPerSqm
	}
	return v.DeriveCostPerSqm()
}

// UnitCostValue of leaflets is the stored per-unit cost.
func (v Leaflets) UnitCostValue() float64 {
	return value(v.CostPerUnit)
}

// ResolveUnitCost derives the unit cost of p. Finished products are resolved
// through idx; a component missing from idx is a NotFoundError and a
// component graph that loops back on itself is a ConfigurationError.
func ResolveUnitCost(p Product, idx Index) (float64, error) {
	r := resolver{index: idx, memo: make(map[int64]float64)}
	return r.resolve(p)
}

type resolver struct {
	index Index
	path  []int64
	memo  map[int64]float64
}

func (r *resolver) resolve(p Product) (float64, error) {
	switch v := p.Variant.(type) {
	case Packaging:
		return v.UnitCostValue(), nil
	case WideFormat:
		return v.UnitCostValue(), nil
	case Leaflets:
		return v.UnitCostValue(), nil
	case FinishedProduct:
		return r.resolveFinished(p.ID, v)
	case nil:
		return 0, apperr.Validation("category", fmt.Sprintf("product %d has no variant", p.ID))
	default:
		return 0, fmt.Errorf("product %d: unsupported variant %T", p.ID, v)
	}
}

func (r *resolver) resolveFinished(id int64, v FinishedProduct) (float64, error) {
	if cost, ok := r.memo[id]; ok {
		return cost, nil
	}
	for i, onPath := range r.path {
		if onPath == id {
			cycle := append(append([]int64(nil), r.path[i:]...), id)
			return 0, &apperr.ConfigurationError{
				Msg: "finished product components form a cycle: " + formatPath(cycle),
			}
		}
	}

	r.path = append(r.path, id)
	defer func() { r.path = r.path[:len(r.path)-1] }()

	var total float64
	for _, c := range v.Components {
		component, ok := r.index[c.ProductID]
		if !ok {
			return 0, &apperr.NotFoundError{
				Resource: "product",
				ID:       c.ProductID,
				Detail:   fmt.Sprintf("component of product %d", id),
			}
		}
		cost, err := r.resolve(component)
		if err != nil {
			return 0, err
		}
		total += c.Quantity * cost
	}

	r.memo[id] = total
	return total, nil
}

func formatPath(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, " -> ")
}
