// Package catalog holds the product variants sold by the shop and derives the
// unit cost of each one, resolving finished products through their components.
package catalog

import (
	"fmt"
	"slices"

	"github.com/Simplici0/printops/internal/apperr"
)

// Category is the persisted tag of a product variant.
type Category string

const (
	CategoryPackaging       Category = "packaging"
	CategoryWideFormat      Category = "wide_format"
	CategoryLeaflets        Category = "leaflets"
	CategoryFinishedProduct Category = "finished_product"
)

// Categories lists every known category in display order.
var Categories = []Category{
	CategoryPackaging,
	CategoryWideFormat,
	CategoryLeaflets,
	CategoryFinishedProduct,
}

// ParseCategory validates a category tag.
func ParseCategory(raw string) (Category, error) {
	c := Category(raw)
	if !slices.Contains(Categories, c) {
		return "", apperr.Validation("category", fmt.Sprintf("unknown category %q", raw))
	}
	return c, nil
}

// UnitType tells how a packaging product is bought.
type UnitType string

const (
	UnitTypeBoxed UnitType = "boxed"
	UnitTypeUnits UnitType = "units"
)

// Product is a catalog entry. Variant carries the category-specific inputs
// and is always one of Packaging, WideFormat, Leaflets or FinishedProduct.
type Product struct {
	ID          int64
	Name        string
	SKU         string
	Description string
	Variant     Variant
}

// Category returns the tag of the product's variant.
func (p Product) Category() Category {
	if p.Variant == nil {
		return ""
	}
	return p.Variant.Category()
}

// Variant is implemented only by the four variant types of this package.
type Variant interface {
	Category() Category
	sealed()
}

// Packaging is bought either by the box or by the unit.
type Packaging struct {
	UnitType    UnitType
	UnitsPerBox *float64
	BoxCost     *float64
	UnitCost    *float64
}

// WideFormat is printed media sold by area and bought by the roll.
type WideFormat struct {
	WidthM     *float64
	LengthM    *float64
	RollCost   *float64
	CostPerSqm *float64
}

// Leaflets are priced per printed unit.
type Leaflets struct {
	CostPerUnit *float64
}

// FinishedProduct is assembled from other products.
type FinishedProduct struct {
	Components []Component
}

// Component is one line of a finished product's bill of materials.
type Component struct {
	ProductID int64
	Quantity  float64
}

func (Packaging) Category() Category       { return CategoryPackaging }
func (WideFormat) Category() Category      { return CategoryWideFormat }
func (Leaflets) Category() Category        { return CategoryLeaflets }
func (FinishedProduct) Category() Category { return CategoryFinishedProduct }

func (Packaging) sealed()       {}
func (WideFormat) sealed()      {}
func (Leaflets) sealed()        {}
func (FinishedProduct) sealed() {}

// Float returns a pointer to v, for optional numeric fields.
func Float(v float64) *float64 {
	return &v
}

func value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
