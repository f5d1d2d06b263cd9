package invoice

import (
	"context"

	"go.uber.org/zap"

	"github.com/Simplici0/printops/internal/apperr"
	"github.com/Simplici0/printops/internal/jobs"
	"github.com/Simplici0/printops/internal/logger"
	"github.com/Simplici0/printops/internal/validate"
)

// JobReader loads jobs to invoice.
type JobReader interface {
	Get(ctx context.Context, id int64) (jobs.Job, error)
}

// NewInvoice is the create payload. Either job_id or items must be given.
// Lines are copied from the job when items is empty.
type NewInvoice struct {
	JobID        *int64        `json:"job_id,omitempty" validate:"omitempty,gt=0"`
	CustomerName string        `json:"customer_name,omitempty"`
	Status       string        `json:"status,omitempty" validate:"omitempty,oneof=draft sent paid cancelled"`
	VATRate      string        `json:"vat_rate" validate:"required,oneof=23 13.5 9"`
	Items        []ItemPayload `json:"items,omitempty" validate:"dive"`
}

// ItemPayload is one requested invoice line.
type ItemPayload struct {
	Description string  `json:"description" validate:"required"`
	Quantity    float64 `json:"quantity" validate:"gt=0"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
}

// Service assembles and issues invoices.
type Service struct {
	store *Store
	jobs  JobReader
}

// NewService returns a Service.
func NewService(store *Store, jobReader JobReader) *Service {
	return &Service{store: store, jobs: jobReader}
}

// Create validates n, fills lines and customer from the job when needed,
// computes totals and issues the next invoice number.
func (s *Service) Create(ctx context.Context, n NewInvoice) (Invoice, error) {
	if err := validate.Struct(n); err != nil {
		return Invoice{}, err
	}
	rate, err := ParseVATRate(n.VATRate)
	if err != nil {
		return Invoice{}, err
	}
	status := StatusDraft
	if n.Status != "" {
		if status, err = ParseStatus(n.Status); err != nil {
			return Invoice{}, err
		}
	}

	inv := Invoice{
		JobID:        n.JobID,
		CustomerName: n.CustomerName,
		Status:       status,
		VATRate:      rate,
	}
	for _, ip := range n.Items {
		inv.Items = append(inv.Items, Item{
			Description: ip.Description,
			Quantity:    ip.Quantity,
			UnitPrice:   ip.UnitPrice,
			TotalPrice:  LineTotal(ip.Quantity, ip.UnitPrice),
		})
	}

	if n.JobID != nil {
		job, err := s.jobs.Get(ctx, *n.JobID)
		if err != nil {
			return Invoice{}, err
		}
		if inv.CustomerName == "" {
			inv.CustomerName = job.CustomerName
		}
		if len(inv.Items) == 0 {
			inv.Items = FromJob(job)
		}
	}
	if inv.CustomerName == "" {
		return Invoice{}, apperr.Validation("customer_name", "is required")
	}
	if len(inv.Items) == 0 {
		return Invoice{}, apperr.Validation("items", "is required")
	}

	totals := ComputeTotals(inv.Items, rate)
	inv.Subtotal = totals.Subtotal
	inv.VATAmount = totals.VATAmount
	inv.TotalAmount = totals.TotalAmount

	created, err := s.store.Create(ctx, inv)
	if err != nil {
		return Invoice{}, err
	}
	logger.FromContext(ctx).Info("invoice issued",
		zap.String("invoice_number", created.InvoiceNumber),
		zap.Float64("total_amount", created.TotalAmount),
	)
	return created, nil
}

// Get returns invoice id.
func (s *Service) Get(ctx context.Context, id int64) (Invoice, error) {
	return s.store.Get(ctx, id)
}
