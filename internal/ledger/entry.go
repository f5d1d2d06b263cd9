// Package ledger records the actual costs operators log against job items.
package ledger

import (
	"github.com/Simplici0/printops/internal/apperr"
	"github.com/Simplici0/printops/internal/validate"
)

// CostType classifies a ledger entry.
type CostType string

const (
	CostTypeInk      CostType = "ink"
	CostTypeMaterial CostType = "material"
	CostTypeLabor    CostType = "labor"
	CostTypeOther    CostType = "other"
)

// ParseCostType validates a cost type string.
func ParseCostType(raw string) (CostType, error) {
	switch c := CostType(raw); c {
	case CostTypeInk, CostTypeMaterial, CostTypeLabor, CostTypeOther:
		return c, nil
	default:
		return "", apperr.Validation("cost_type", "must be one of: ink material labor other")
	}
}

// Entry is one recorded cost against a job item.
type Entry struct {
	ID          int64    `json:"id"`
	JobID       int64    `json:"job_id"`
	JobItemID   int64    `json:"job_item_id"`
	CostType    CostType `json:"cost_type"`
	CostAmount  float64  `json:"cost_amount"`
	Quantity    float64  `json:"quantity"`
	Units       string   `json:"units"`
	CostPerUnit float64  `json:"cost_per_unit"`
	Notes       string   `json:"notes,omitempty"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

// NewEntry is the create payload. Pointer fields distinguish a missing value
// from an explicit zero.
type NewEntry struct {
	JobID       *int64   `json:"job_id" validate:"required"`
	JobItemID   *int64   `json:"job_item_id" validate:"required"`
	CostType    string   `json:"cost_type" validate:"required,oneof=ink material labor other"`
	CostAmount  *float64 `json:"cost_amount" validate:"required"`
	Quantity    *float64 `json:"quantity" validate:"required"`
	Units       string   `json:"units" validate:"required"`
	CostPerUnit *float64 `json:"cost_per_unit" validate:"required"`
	Notes       string   `json:"notes,omitempty"`
}

// Entry validates n and converts it into an unsaved Entry.
func (n NewEntry) Entry() (Entry, error) {
	if err := validate.Struct(n); err != nil {
		return Entry{}, err
	}
	return Entry{
		JobID:       *n.JobID,
		JobItemID:   *n.JobItemID,
		CostType:    CostType(n.CostType),
		CostAmount:  *n.CostAmount,
		Quantity:    *n.Quantity,
		Units:       n.Units,
		CostPerUnit: *n.CostPerUnit,
		Notes:       n.Notes,
	}, nil
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	CostType    *string  `json:"cost_type,omitempty"`
	CostAmount  *float64 `json:"cost_amount,omitempty"`
	Quantity    *float64 `json:"quantity,omitempty"`
	Units       *string  `json:"units,omitempty"`
	CostPerUnit *float64 `json:"cost_per_unit,omitempty"`
	Notes       *string  `json:"notes,omitempty"`
}

// Empty reports whether p changes nothing.
func (p Patch) Empty() bool {
	return p.CostType == nil && p.CostAmount == nil && p.Quantity == nil &&
		p.Units == nil && p.CostPerUnit == nil && p.Notes == nil
}

// Validate rejects an empty patch and re-checks the fields that are set.
func (p Patch) Validate() error {
	if p.Empty() {
		return apperr.Validation("fields", "no fields to update")
	}
	if p.CostType != nil {
		if _, err := ParseCostType(*p.CostType); err != nil {
			return err
		}
	}
	if p.Units != nil && *p.Units == "" {
		return apperr.Validation("units", "is required")
	}
	return nil
}

// assignments lists the columns p sets, in a fixed order.
func (p Patch) assignments() ([]string, []any) {
	var cols []string
	var args []any
	if p.CostType != nil {
		cols = append(cols, "cost_type = ?")
		args = append(args, *p.CostType)
	}
	if p.CostAmount != nil {
		cols = append(cols, "cost_amount = ?")
		args = append(args, *p.CostAmount)
	}
	if p.Quantity != nil {
		cols = append(cols, "quantity = ?")
		args = append(args, *p.Quantity)
	}
	if p.Units != nil {
		cols = append(cols, "units = ?")
		args = append(args, *p.Units)
	}
	if p.CostPerUnit != nil {
		cols = append(cols, "cost_per_unit = ?")
		args = append(args, *p.CostPerUnit)
	}
	if p.Notes != nil {
		cols = append(cols, "notes = ?")
		args = append(args, nullString(*p.Notes))
	}
	return cols, args
}
