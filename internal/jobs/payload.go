package jobs

import (
	"github.com/Simplici0/printops/internal/apperr"
	"github.com/Simplici0/printops/internal/catalog"
	"github.com/Simplici0/printops/internal/validate"
)

// Payload is the JSON shape of a job with its items.
type Payload struct {
	ID           int64         `json:"id,omitempty"`
	JobNumber    string        `json:"job_number" validate:"required"`
	CustomerName string        `json:"customer_name" validate:"required"`
	Status       string        `json:"status,omitempty" validate:"omitempty,oneof=pending in_progress artwork_issue client_approval completed cancelled"`
	Notes        string        `json:"notes,omitempty"`
	CreatedAt    string        `json:"created_at,omitempty"`
	Items        []ItemPayload `json:"items" validate:"required,min=1,dive"`

	WorkCompleted float64 `json:"work_completed"`
}

// ItemPayload is the JSON shape of one job item.
type ItemPayload struct {
	ID              int64    `json:"id,omitempty"`
	ProductID       *int64   `json:"product_id,omitempty" validate:"omitempty,gt=0"`
	ProductName     string   `json:"product_name" validate:"required"`
	ProductCategory string   `json:"product_category" validate:"required,oneof=packaging wide_format leaflets finished_product"`
	Quantity        float64  `json:"quantity" validate:"gt=0"`
	IsPrinted       bool     `json:"is_printed,omitempty"`
	WidthM          *float64 `json:"width_m,omitempty" validate:"omitempty,gt=0"`
	HeightM         *float64 `json:"height_m,omitempty" validate:"omitempty,gt=0"`
	UnitPrice       float64  `json:"unit_price" validate:"gte=0"`
	TotalPrice      float64  `json:"total_price" validate:"gte=0"`
	WorkCompleted   float64  `json:"work_completed,omitempty" validate:"gte=0,ltefield=Quantity"`
	InkCostPerUnit  *float64 `json:"ink_cost_per_unit,omitempty" validate:"omitempty,gte=0"`
	InkConsumption  *float64 `json:"ink_consumption,omitempty" validate:"omitempty,gte=0"`
}

// Job validates the payload and converts it into a Job. A missing status
// defaults to pending.
func (p Payload) Job() (Job, error) {
	if err := validate.Struct(p); err != nil {
		return Job{}, err
	}

	status := StatusPending
	if p.Status != "" {
		s, err := ParseStatus(p.Status)
		if err != nil {
			return Job{}, err
		}
		status = s
	}

	job := Job{
		ID:           p.ID,
		JobNumber:    p.JobNumber,
		CustomerName: p.CustomerName,
		Status:       status,
		Notes:        p.Notes,
		Items:        make([]Item, len(p.Items)),
	}
	for i, ip := range p.Items {
		category, err := catalog.ParseCategory(ip.ProductCategory)
		if err != nil {
			return Job{}, err
		}
		if ip.IsPrinted && category != catalog.CategoryPackaging {
			return Job{}, apperr.Validation("is_printed", "only applies to packaging")
		}
		job.Items[i] = Item{
			ID:             ip.ID,
			JobID:          p.ID,
			ProductID:      ip.ProductID,
			ProductName:    ip.ProductName,
			Category:       category,
			Quantity:       ip.Quantity,
			WidthM:         ip.WidthM,
			HeightM:        ip.HeightM,
			IsPrinted:      ip.IsPrinted,
			UnitPrice:      ip.UnitPrice,
			TotalPrice:     ip.TotalPrice,
			WorkCompleted:  ip.WorkCompleted,
			InkCostPerUnit: ip.InkCostPerUnit,
			InkConsumption: ip.InkConsumption,
		}
	}
	return job, nil
}

// ToPayload converts j into its JSON shape.
func ToPayload(j Job) Payload {
	out := Payload{
		ID:            j.ID,
		JobNumber:     j.JobNumber,
		CustomerName:  j.CustomerName,
		Status:        string(j.Status),
		Notes:         j.Notes,
		CreatedAt:     j.CreatedAt,
		Items:         make([]ItemPayload, len(j.Items)),
		WorkCompleted: j.WorkCompleted(),
	}
	for i, it := range j.Items {
		out.Items[i] = ItemPayload{
			ID:              it.ID,
			ProductID:       it.ProductID,
			ProductName:     it.ProductName,
			ProductCategory: string(it.Category),
			Quantity:        it.Quantity,
			IsPrinted:       it.IsPrinted,
			WidthM:          it.WidthM,
			HeightM:         it.HeightM,
			UnitPrice:       it.UnitPrice,
			TotalPrice:      it.TotalPrice,
			WorkCompleted:   it.WorkCompleted,
			InkCostPerUnit:  it.InkCostPerUnit,
			InkConsumption:  it.InkConsumption,
		}
	}
	return out
}
