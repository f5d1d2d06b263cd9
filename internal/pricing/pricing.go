package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/printops/internal/catalog"
)

// PrintedSurcharge multiplies the price of packaging that is printed on.
const PrintedSurcharge = 1.2

// ItemInput represents the item-level inputs that modify a unit cost.
type ItemInput struct {
	Quantity  float64
	WidthM    *float64
	HeightM   *float64
	IsPrinted bool
}

// Quote is the priced result for one job item. UnitPrice is the unit cost
// as resolved at pricing time.
type Quote struct {
	UnitPrice  float64
	TotalPrice float64
}

// Calculate prices an item of the given category from a resolved unit cost.
func Calculate(category catalog.Category, unitCost float64, item ItemInput) (Quote, error) {
	var total float64
	switch category {
	case catalog.CategoryPackaging:
		multiplier := 1.0
		if item.IsPrinted {
			multiplier = PrintedSurcharge
		}
		total = item.Quantity * unitCost * multiplier
	case catalog.CategoryWideFormat, catalog.CategoryFinishedProduct:
		total = item.Quantity * Area(item.WidthM, item.HeightM) * unitCost
	case catalog.CategoryLeaflets:
		total = item.Quantity * unitCost
	default:
		return Quote{}, fmt.Errorf("price item: unknown category %q", category)
	}

	return Quote{UnitPrice: unitCost, TotalPrice: total}, nil
}

// Area returns width*height, treating a missing dimension as 1 metre.
func Area(widthM, heightM *float64) float64 {
	w, h := 1.0, 1.0
	if widthM != nil {
		w = *widthM
	}
	if heightM != nil {
		h = *heightM
	}
	return w * h
}

// Round2 rounds a money amount to cents, half away from zero.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
