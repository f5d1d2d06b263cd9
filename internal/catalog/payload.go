package catalog

import (
	"github.com/Simplici0/printops/internal/apperr"
	"github.com/Simplici0/printops/internal/validate"
)

// Payload is the JSON shape of a product, discriminated by Category.
type Payload struct {
	ID          int64    `json:"id,omitempty"`
	Name        string   `json:"name" validate:"required"`
	SKU         string   `json:"sku,omitempty"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category" validate:"required,oneof=packaging wide_format leaflets finished_product"`
	UnitType    string   `json:"unit_type,omitempty" validate:"omitempty,oneof=boxed units"`
	UnitsPerBox *float64 `json:"units_per_box,omitempty" validate:"omitempty,gte=0"`
	BoxCost     *float64 `json:"box_cost,omitempty" validate:"omitempty,gte=0"`
	UnitCost    *float64 `json:"unit_cost,omitempty" validate:"omitempty,gte=0"`
	WidthM      *float64 `json:"width_m,omitempty" validate:"omitempty,gte=0"`
	LengthM     *float64 `json:"length_m,omitempty" validate:"omitempty,gte=0"`
	RollCost    *float64 `json:"roll_cost,omitempty" validate:"omitempty,gte=0"`
	CostPerSqm  *float64 `json:"cost_per_sqm,omitempty" validate:"omitempty,gte=0"`
	CostPerUnit *float64 `json:"cost_per_unit,omitempty" validate:"omitempty,gte=0"`

	Components []ComponentPayload `json:"components,omitempty" validate:"dive"`
}

// ComponentPayload is one component line of a finished product.
type ComponentPayload struct {
	ComponentProductID int64   `json:"component_product_id" validate:"required,gt=0"`
	Quantity           float64 `json:"quantity" validate:"gt=0"`
}

// Product validates the payload and converts it into a Product. Fields that
// do not belong to the payload's category are rejected.
func (p Payload) Product() (Product, error) {
	if err := validate.Struct(p); err != nil {
		return Product{}, err
	}

	category, err := ParseCategory(p.Category)
	if err != nil {
		return Product{}, err
	}

	verr := &apperr.ValidationError{Fields: map[string]string{}}
	for field, set := range p.foreignFields(category) {
		if set {
			verr.Fields[field] = "not allowed for category " + string(category)
		}
	}

	out := Product{ID: p.ID, Name: p.Name, SKU: p.SKU, Description: p.Description}
	switch category {
	case CategoryPackaging:
		if p.UnitType == "" {
			verr.Fields["unit_type"] = "is required"
		}
		out.Variant = Packaging{
			UnitType:    UnitType(p.UnitType),
			UnitsPerBox: p.UnitsPerBox,
			BoxCost:     p.BoxCost,
			UnitCost:    p.UnitCost,
		}
	case CategoryWideFormat:
		out.Variant = WideFormat{
			WidthM:     p.WidthM,
			LengthM:    p.LengthM,
			RollCost:   p.RollCost,
			CostPerSqm: p.CostPerSqm,
		}
	case CategoryLeaflets:
		out.Variant = Leaflets{CostPerUnit: p.CostPerUnit}
	case CategoryFinishedProduct:
		if len(p.Components) == 0 {
			verr.Fields["components"] = "is required"
		}
		components := make([]Component, len(p.Components))
		for i, c := range p.Components {
			if c.ComponentProductID == p.ID && p.ID != 0 {
				verr.Fields["components"] = "product cannot contain itself"
			}
			components[i] = Component{ProductID: c.ComponentProductID, Quantity: c.Quantity}
		}
		out.Variant = FinishedProduct{Components: components}
	}

	if len(verr.Fields) > 0 {
		return Product{}, verr
	}
	return out, nil
}

// foreignFields reports, for every category-specific field outside
// category, whether the payload sets it.
func (p Payload) foreignFields(category Category) map[string]bool {
	out := map[string]bool{}
	if category != CategoryPackaging {
		out["unit_type"] = p.UnitType != ""
		out["units_per_box"] = p.UnitsPerBox != nil
		out["box_cost"] = p.BoxCost != nil
		out["unit_cost"] = p.UnitCost != nil
	}
	if category != CategoryWideFormat {
		out["width_m"] = p.WidthM != nil
		out["length_m"] = p.LengthM != nil
		out["roll_cost"] = p.RollCost != nil
		out["cost_per_sqm"] = p.CostPerSqm != nil
	}
	if category != CategoryLeaflets {
		out["cost_per_unit"] = p.CostPerUnit != nil
	}
	if category != CategoryFinishedProduct {
		out["components"] = len(p.Components) > 0
	}
	return out
}

// ToPayload converts p back into its JSON shape.
func ToPayload(p Product) Payload {
	out := Payload{
		ID:          p.ID,
		Name:        p.Name,
		SKU:         p.SKU,
		Description: p.Description,
		Category:    string(p.Category()),
	}
	switch v := p.Variant.(type) {
	case Packaging:
		out.UnitType = string(v.UnitType)
		out.UnitsPerBox = v.UnitsPerBox
		out.BoxCost = v.BoxCost
		out.UnitCost = v.UnitCost
	case WideFormat:
		out.WidthM = v.WidthM
		out.LengthM = v.LengthM
		out.RollCost = v.RollCost
		out.CostPerSqm = v.CostPerSqm
	case Leaflets:
		out.CostPerUnit = v.CostPerUnit
	case FinishedProduct:
		out.Components = make([]ComponentPayload, len(v.Components))
		for i, c := range v.Components {
			out.Components[i] = ComponentPayload{ComponentProductID: c.ProductID, Quantity: c.Quantity}
		}
	}
	return out
}
