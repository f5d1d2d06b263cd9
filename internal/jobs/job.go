// Package jobs stores production jobs and keeps their line items priced.
package jobs

import (
	"github.com/Simplici0/printops/internal/apperr"
	"github.com/Simplici0/printops/internal/catalog"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusPending        Status = "pending"
	StatusInProgress     Status = "in_progress"
	StatusArtworkIssue   Status = "artwork_issue"
	StatusClientApproval Status = "client_approval"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
)

// ParseStatus validates a status string.
func ParseStatus(raw string) (Status, error) {
	switch s := Status(raw); s {
	case StatusPending, StatusInProgress, StatusArtworkIssue, StatusClientApproval, StatusCompleted, StatusCancelled:
		return s, nil
	default:
		return "", apperr.Validation("status", "unknown status "+raw)
	}
}

// Job is a unit of production work for a customer.
type Job struct {
	ID           int64
	JobNumber    string
	CustomerName string
	Status       Status
	Notes        string
	CreatedAt    string
	Items        []Item
}

// WorkCompleted sums the completed quantity of every item.
func (j Job) WorkCompleted() float64 {
	var total float64
	for _, it := range j.Items {
		total += it.WorkCompleted
	}
	return total
}

// Item is one priced line of a job. ProductID is nil for ad-hoc items.
type Item struct {
	ID            int64
	JobID         int64
	ProductID     *int64
	ProductName   string
	Category      catalog.Category
	Quantity      float64
	WidthM        *float64
	HeightM       *float64
	IsPrinted     bool
	UnitPrice     float64
	TotalPrice    float64
	WorkCompleted float64

	// Legacy cost inputs, used only when an item has no ledger entries.
	InkCostPerUnit *float64
	InkConsumption *float64
}
