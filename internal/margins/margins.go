// Package margins aggregates revenue and cost of completed jobs into margin
// reports. It only reads its inputs.
package margins

import (
	"slices"
	"sort"

	"github.com/Simplici0/printops/internal/catalog"
	"github.com/Simplici0/printops/internal/jobs"
	"github.com/Simplici0/printops/internal/ledger"
)

// ReportCategories are the categories listed in a Report.
var ReportCategories = []catalog.Category{
	catalog.CategoryPackaging,
	catalog.CategoryWideFormat,
	catalog.CategoryLeaflets,
}

// Cost is the cost of one item split by kind.
type Cost struct {
	Ink      float64 `json:"ink"`
	Material float64 `json:"material"`
	Other    float64 `json:"other"`
}

// Total sums every kind.
func (c Cost) Total() float64 {
	return c.Ink + c.Material + c.Other
}

// Totals is revenue and cost at one level of the report.
type Totals struct {
	Revenue  float64 `json:"revenue"`
	Cost     float64 `json:"cost"`
	Ink      float64 `json:"ink"`
	Material float64 `json:"material"`
	Other    float64 `json:"other"`
	Margin   float64 `json:"margin"`
}

func (t *Totals) add(revenue float64, c Cost) {
	t.Revenue += revenue
	t.Cost += c.Total()
	t.Ink += c.Ink
	t.Material += c.Material
	t.Other += c.Other
}

func (t *Totals) merge(o Totals) {
	t.Revenue += o.Revenue
	t.Cost += o.Cost
	t.Ink += o.Ink
	t.Material += o.Material
	t.Other += o.Other
}

func (t *Totals) finish() {
	t.Margin = Margin(t.Revenue, t.Cost)
}

// ItemMargin is the result for one job item.
type ItemMargin struct {
	ItemID      int64            `json:"item_id"`
	ProductName string           `json:"product_name"`
	Category    catalog.Category `json:"category"`
	FromLedger  bool             `json:"from_ledger"`
	Totals
}

// JobMargin is the result for one job, overall or within one category.
type JobMargin struct {
	JobID        int64        `json:"job_id"`
	JobNumber    string       `json:"job_number"`
	CustomerName string       `json:"customer_name"`
	Items        []ItemMargin `json:"items,omitempty"`
	Totals
}

// CategoryReport is the result for one category.
type CategoryReport struct {
	Totals Totals      `json:"totals"`
	Jobs   []JobMargin `json:"jobs"`
}

// Report is the outcome of one aggregation run.
type Report struct {
	Overall    Totals                              `json:"overall"`
	Categories map[catalog.Category]CategoryReport `json:"categories"`
	Jobs       []JobMargin                         `json:"jobs"`
}

// Margin returns (revenue - cost) / revenue * 100, or 0 when revenue is not
// positive.
func Margin(revenue, cost float64) float64 {
	if revenue <= 0 {
		return 0
	}
	return (revenue - cost) / revenue * 100
}

// ResolveItemCost returns the cost of it. Ledger entries, when any exist,
// are the only source. Otherwise the item's legacy ink fields are used.
func ResolveItemCost(it jobs.Item, entries []ledger.Entry, inkCostPerML float64) Cost {
	if len(entries) > 0 {
		var c Cost
		for _, e := range entries {
			switch e.CostType {
			case ledger.CostTypeInk:
				c.Ink += e.CostAmount
			case ledger.CostTypeMaterial:
				c.Material += e.CostAmount
			default:
				c.Other += e.CostAmount
			}
		}
		return c
	}

	switch it.Category {
	case catalog.CategoryPackaging:
		if it.InkCostPerUnit != nil {
			return Cost{Ink: *it.InkCostPerUnit * it.Quantity}
		}
	case catalog.CategoryWideFormat:
		if it.InkConsumption != nil {
			return Cost{Ink: *it.InkConsumption * inkCostPerML}
		}
	case catalog.CategoryLeaflets, catalog.CategoryFinishedProduct:
		// no legacy cost source
	}
	return Cost{}
}

// Aggregator computes margin reports.
type Aggregator struct {
	InkCostPerML float64
}

// Compute builds a Report from the completed jobs in js. entries holds the
// ledger entries of each job item keyed by item id. Equal inputs always
// produce equal reports.
func (a Aggregator) Compute(js []jobs.Job, entries map[int64][]ledger.Entry) Report {
	report := Report{
		Categories: make(map[catalog.Category]CategoryReport, len(ReportCategories)),
		Jobs:       make([]JobMargin, 0),
	}
	perCategory := make(map[catalog.Category][]JobMargin, len(ReportCategories))

	for _, job := range js {
		if job.Status != jobs.StatusCompleted {
			continue
		}

		jm := JobMargin{JobID: job.ID, JobNumber: job.JobNumber, CustomerName: job.CustomerName}
		byCategory := make(map[catalog.Category]*JobMargin)
		var order []catalog.Category

		for _, it := range job.Items {
			itemEntries := entries[it.ID]
			cost := ResolveItemCost(it, itemEntries, a.InkCostPerML)

			im := ItemMargin{
				ItemID:      it.ID,
				ProductName: it.ProductName,
				Category:    it.Category,
				FromLedger:  len(itemEntries) > 0,
			}
			im.add(it.TotalPrice, cost)
			im.finish()
			jm.Items = append(jm.Items, im)
			jm.add(it.TotalPrice, cost)

			sub, ok := byCategory[it.Category]
			if !ok {
				sub = &JobMargin{JobID: job.ID, JobNumber: job.JobNumber, CustomerName: job.CustomerName}
				byCategory[it.Category] = sub
				order = append(order, it.Category)
			}
			sub.Items = append(sub.Items, im)
			sub.add(it.TotalPrice, cost)
		}

		for _, category := range order {
			sub := byCategory[category]
			sub.finish()
			report.Overall.merge(sub.Totals)
			if !slices.Contains(ReportCategories, category) {
				continue
			}
			cr := report.Categories[category]
			cr.Totals.merge(sub.Totals)
			report.Categories[category] = cr
			if sub.Revenue > 0 {
				perCategory[category] = append(perCategory[category], *sub)
			}
		}

		jm.finish()
		report.Jobs = append(report.Jobs, jm)
	}

	report.Overall.finish()
	for _, category := range ReportCategories {
		cr := report.Categories[category]
		cr.Totals.finish()
		cr.Jobs = perCategory[category]
		if cr.Jobs == nil {
			cr.Jobs = make([]JobMargin, 0)
		}
		sortByMargin(cr.Jobs)
		report.Categories[category] = cr
	}
	sortByMargin(report.Jobs)
	return report
}

func sortByMargin(js []JobMargin) {
	sort.SliceStable(js, func(i, j int) bool {
		return js[i].Margin > js[j].Margin
	})
}
