// Package invoice issues numbered invoices for jobs.
package invoice

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/printops/internal/apperr"
	"github.com/Simplici0/printops/internal/jobs"
)

// Status is the lifecycle state of an invoice.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// ParseStatus validates a status string.
func ParseStatus(raw string) (Status, error) {
	switch s := Status(raw); s {
	case StatusDraft, StatusSent, StatusPaid, StatusCancelled:
		return s, nil
	default:
		return "", apperr.Validation("status", "must be one of: draft sent paid cancelled")
	}
}

// VATRate is one of the accepted VAT percentages.
type VATRate string

const (
	VATStandard VATRate = "23"
	VATReduced  VATRate = "13.5"
	VATLow      VATRate = "9"
)

// ParseVATRate accepts only the rates in the closed set.
func ParseVATRate(raw string) (VATRate, error) {
	switch r := VATRate(raw); r {
	case VATStandard, VATReduced, VATLow:
		return r, nil
	default:
		return "", apperr.Validation("vat_rate", "must be one of: 23 13.5 9")
	}
}

// Percent returns the rate as a decimal percentage.
func (r VATRate) Percent() decimal.Decimal {
	return decimal.RequireFromString(string(r))
}

// Invoice is an issued invoice.
type Invoice struct {
	ID            int64   `json:"id"`
	InvoiceNumber string  `json:"invoice_number"`
	JobID         *int64  `json:"job_id,omitempty"`
	CustomerName  string  `json:"customer_name"`
	Status        Status  `json:"status"`
	VATRate       VATRate `json:"vat_rate"`
	Subtotal      float64 `json:"subtotal"`
	VATAmount     float64 `json:"vat_amount"`
	TotalAmount   float64 `json:"total_amount"`
	IssuedAt      string  `json:"issued_at"`
	Items         []Item  `json:"items"`
}

// Item is one invoice line.
type Item struct {
	ID          int64   `json:"id,omitempty"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TotalPrice  float64 `json:"total_price"`
}

// Totals are the money amounts of an invoice, rounded to cents.
type Totals struct {
	Subtotal    float64
	VATAmount   float64
	TotalAmount float64
}

// ComputeTotals sums the line totals and applies rate.
func ComputeTotals(items []Item, rate VATRate) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(decimal.NewFromFloat(it.TotalPrice))
	}
	subtotal = subtotal.Round(2)
	vat := subtotal.Mul(rate.Percent()).Div(decimal.NewFromInt(100)).Round(2)

	return Totals{
		Subtotal:    subtotal.InexactFloat64(),
		VATAmount:   vat.InexactFloat64(),
		TotalAmount: subtotal.Add(vat).InexactFloat64(),
	}
}

// LineTotal returns quantity * unitPrice rounded to cents.
func LineTotal(quantity, unitPrice float64) float64 {
	return decimal.NewFromFloat(quantity).Mul(decimal.NewFromFloat(unitPrice)).Round(2).InexactFloat64()
}

// FromJob builds invoice lines from the priced items of job.
func FromJob(job jobs.Job) []Item {
	items := make([]Item, 0, len(job.Items))
	for _, it := range job.Items {
		items = append(items, Item{
			Description: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TotalPrice:  it.TotalPrice,
		})
	}
	return items
}

const numberPrefix = "INV-"

// DayPrefix returns the invoice number prefix for the day of t.
func DayPrefix(t time.Time) string {
	return numberPrefix + t.Format("20060102") + "-"
}

// NextInvoiceNumber returns the next INV-YYYYMMDD-NNN number for today given
// the numbers already issued. Numbers from other days and numbers with a
// non-numeric sequence are ignored.
func NextInvoiceNumber(today time.Time, existing []string) string {
	prefix := DayPrefix(today)
	highest := 0
	for _, n := range existing {
		seq, ok := strings.CutPrefix(n, prefix)
		if !ok || seq == "" {
			continue
		}
		v, err := strconv.Atoi(seq)
		if err != nil || v < 0 || strings.ContainsAny(seq, "+-") {
			continue
		}
		if v > highest {
			highest = v
		}
	}
	return fmt.Sprintf("%s%03d", prefix, highest+1)
}
