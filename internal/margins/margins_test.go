package margins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/printops/internal/catalog"
	"github.com/Simplici0/printops/internal/jobs"
	"github.com/Simplici0/printops/internal/ledger"
)

const inkPrice = 0.05

func ptr(v float64) *float64 { return &v }

func entry(itemID int64, t ledger.CostType, amount float64) ledger.Entry {
	return ledger.Entry{JobItemID: itemID, CostType: t, CostAmount: amount}
}

func completed(id int64, items ...jobs.Item) jobs.Job {
	for i := range items {
		items[i].JobID = id
	}
	return jobs.Job{ID: id, JobNumber: "J", CustomerName: "Acme", Status: jobs.StatusCompleted, Items: items}
}

func TestMargin(t *testing.T) {
	assert.Equal(t, 0.0, Margin(0, 500))
	assert.Equal(t, 0.0, Margin(-10, 0))
	assert.InDelta(t, 40, Margin(1000, 600), 1e-9)
	assert.InDelta(t, -50, Margin(100, 150), 1e-9)
}

func TestResolveItemCost_LedgerSplitsByType(t *testing.T) {
	it := jobs.Item{ID: 1, Category: catalog.CategoryLeaflets}
	cost := ResolveItemCost(it, []ledger.Entry{
		entry(1, ledger.CostTypeInk, 400),
		entry(1, ledger.CostTypeMaterial, 200),
		entry(1, ledger.CostTypeLabor, 30),
		entry(1, ledger.CostTypeOther, 5),
	}, inkPrice)

	assert.Equal(t, Cost{Ink: 400, Material: 200, Other: 35}, cost)
	assert.Equal(t, 635.0, cost.Total())
}

func TestResolveItemCost_LedgerNeverBlendsWithLegacy(t *testing.T) {
	packaging := jobs.Item{ID: 1, Category: catalog.CategoryPackaging, Quantity: 100, InkCostPerUnit: ptr(2)}
	wide := jobs.Item{ID: 2, Category: catalog.CategoryWideFormat, Quantity: 1, InkConsumption: ptr(1000)}

	assert.Equal(t, Cost{Material: 7}, ResolveItemCost(packaging, []ledger.Entry{entry(1, ledger.CostTypeMaterial, 7)}, inkPrice))
	assert.Equal(t, Cost{Other: 3}, ResolveItemCost(wide, []ledger.Entry{entry(2, ledger.CostTypeLabor, 3)}, inkPrice))
}

func TestResolveItemCost_LegacyFallback(t *testing.T) {
	cases := []struct {
		name string
		item jobs.Item
		want Cost
	}{
		{"packaging ink per unit", jobs.Item{Category: catalog.CategoryPackaging, Quantity: 100, InkCostPerUnit: ptr(0.02)}, Cost{Ink: 2}},
		{"packaging without ink", jobs.Item{Category: catalog.CategoryPackaging, Quantity: 100}, Cost{}},
		{"wide format consumption", jobs.Item{Category: catalog.CategoryWideFormat, Quantity: 1, InkConsumption: ptr(50)}, Cost{Ink: 2.5}},
		{"wide format ignores per unit", jobs.Item{Category: catalog.CategoryWideFormat, Quantity: 1, InkCostPerUnit: ptr(9)}, Cost{}},
		{"leaflets", jobs.Item{Category: catalog.CategoryLeaflets, Quantity: 10, InkCostPerUnit: ptr(1), InkConsumption: ptr(1)}, Cost{}},
		{"finished product", jobs.Item{Category: catalog.CategoryFinishedProduct, Quantity: 10, InkConsumption: ptr(1)}, Cost{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveItemCost(tc.item, nil, inkPrice)
			assert.InDelta(t, tc.want.Ink, got.Ink, 1e-9)
			assert.Equal(t, tc.want.Material, got.Material)
			assert.Equal(t, tc.want.Other, got.Other)
		})
	}
}

func TestResolveItemCost_UsesInjectedInkPrice(t *testing.T) {
	it := jobs.Item{Category: catalog.CategoryWideFormat, InkConsumption: ptr(50)}
	assert.InDelta(t, 5, ResolveItemCost(it, nil, 0.1).Ink, 1e-9)
}

func TestCompute_LedgerCostGivesFortyPercent(t *testing.T) {
	js := []jobs.Job{completed(1, jobs.Item{ID: 10, Category: catalog.CategoryLeaflets, TotalPrice: 1000})}
	entries := map[int64][]ledger.Entry{10: {
		entry(10, ledger.CostTypeInk, 400),
		entry(10, ledger.CostTypeMaterial, 200),
	}}

	report := Aggregator{InkCostPerML: inkPrice}.Compute(js, entries)

	require.Len(t, report.Jobs, 1)
	job := report.Jobs[0]
	assert.Equal(t, 600.0, job.Cost)
	assert.InDelta(t, 40, job.Margin, 1e-9)
	require.Len(t, job.Items, 1)
	assert.True(t, job.Items[0].FromLedger)
	assert.InDelta(t, 40, job.Items[0].Margin, 1e-9)

	leaflets := report.Categories[catalog.CategoryLeaflets]
	assert.Equal(t, 1000.0, leaflets.Totals.Revenue)
	assert.InDelta(t, 40, leaflets.Totals.Margin, 1e-9)
	assert.Len(t, leaflets.Jobs, 1)
	assert.InDelta(t, 40, report.Overall.Margin, 1e-9)
}

func TestCompute_WideFormatFallback(t *testing.T) {
	js := []jobs.Job{completed(1, jobs.Item{ID: 10, Category: catalog.CategoryWideFormat, Quantity: 1, TotalPrice: 100, InkConsumption: ptr(50)})}

	report := Aggregator{InkCostPerML: inkPrice}.Compute(js, nil)

	assert.InDelta(t, 2.5, report.Overall.Ink, 1e-9)
	assert.InDelta(t, 2.5, report.Categories[catalog.CategoryWideFormat].Totals.Cost, 1e-9)
	assert.False(t, report.Jobs[0].Items[0].FromLedger)
}

func TestCompute_OnlyCompletedJobs(t *testing.T) {
	pending := completed(2, jobs.Item{ID: 20, Category: catalog.CategoryLeaflets, TotalPrice: 500})
	pending.Status = jobs.StatusInProgress
	js := []jobs.Job{completed(1, jobs.Item{ID: 10, Category: catalog.CategoryLeaflets, TotalPrice: 100}), pending}

	report := Aggregator{}.Compute(js, nil)

	require.Len(t, report.Jobs, 1)
	assert.Equal(t, int64(1), report.Jobs[0].JobID)
	assert.Equal(t, 100.0, report.Overall.Revenue)
}

func TestCompute_JobSpanningCategories(t *testing.T) {
	js := []jobs.Job{completed(1,
		jobs.Item{ID: 10, Category: catalog.CategoryPackaging, Quantity: 100, TotalPrice: 200, InkCostPerUnit: ptr(0.5)},
		jobs.Item{ID: 11, Category: catalog.CategoryWideFormat, Quantity: 1, TotalPrice: 300},
		jobs.Item{ID: 12, Category: catalog.CategoryFinishedProduct, Quantity: 1, TotalPrice: 50},
	)}
	entries := map[int64][]ledger.Entry{11: {entry(11, ledger.CostTypeMaterial, 150)}}

	report := Aggregator{InkCostPerML: inkPrice}.Compute(js, entries)

	packaging := report.Categories[catalog.CategoryPackaging]
	wide := report.Categories[catalog.CategoryWideFormat]
	assert.Equal(t, 200.0, packaging.Totals.Revenue)
	assert.InDelta(t, 75, packaging.Totals.Margin, 1e-9)
	assert.Equal(t, 300.0, wide.Totals.Revenue)
	assert.InDelta(t, 50, wide.Totals.Margin, 1e-9)
	require.Len(t, packaging.Jobs, 1)
	require.Len(t, wide.Jobs, 1)
	assert.Empty(t, report.Categories[catalog.CategoryLeaflets].Jobs)

	_, listed := report.Categories[catalog.CategoryFinishedProduct]
	assert.False(t, listed)

	job := report.Jobs[0]
	assert.Equal(t, 550.0, job.Revenue)
	assert.Equal(t, 200.0, job.Cost)
	assert.Equal(t, 550.0, report.Overall.Revenue)
	assert.Equal(t, 200.0, report.Overall.Cost)
}

func TestCompute_ItemCostsSumToJobCost(t *testing.T) {
	js := []jobs.Job{
		completed(1,
			jobs.Item{ID: 10, Category: catalog.CategoryPackaging, Quantity: 1000, TotalPrice: 110.376, InkCostPerUnit: ptr(0.013)},
			jobs.Item{ID: 11, Category: catalog.CategoryWideFormat, Quantity: 5, TotalPrice: 90, InkConsumption: ptr(123)},
			jobs.Item{ID: 12, Category: catalog.CategoryLeaflets, Quantity: 500, TotalPrice: 20},
		),
		completed(2, jobs.Item{ID: 20, Category: catalog.CategoryLeaflets, TotalPrice: 0}),
	}
	entries := map[int64][]ledger.Entry{12: {entry(12, ledger.CostTypeOther, 4.2), entry(12, ledger.CostTypeInk, 1.1)}}

	report := Aggregator{InkCostPerML: inkPrice}.Compute(js, entries)

	var overall float64
	for _, job := range report.Jobs {
		var sum float64
		for _, it := range job.Items {
			sum += it.Cost
		}
		assert.InDelta(t, job.Cost, sum, 1e-9, "job %d", job.JobID)
		overall += job.Cost
	}
	assert.InDelta(t, report.Overall.Cost, overall, 1e-9)
}

func TestCompute_ZeroRevenueJobsAreNotListedPerCategory(t *testing.T) {
	js := []jobs.Job{completed(1, jobs.Item{ID: 10, Category: catalog.CategoryLeaflets, TotalPrice: 0})}
	entries := map[int64][]ledger.Entry{10: {entry(10, ledger.CostTypeInk, 10)}}

	report := Aggregator{}.Compute(js, entries)

	assert.Empty(t, report.Categories[catalog.CategoryLeaflets].Jobs)
	require.Len(t, report.Jobs, 1)
	assert.Equal(t, 0.0, report.Jobs[0].Margin)
	assert.Equal(t, 10.0, report.Overall.Cost)
}

func TestCompute_SortsByMarginKeepingTies(t *testing.T) {
	js := []jobs.Job{
		completed(1, jobs.Item{ID: 10, Category: catalog.CategoryLeaflets, TotalPrice: 100}),
		completed(2, jobs.Item{ID: 20, Category: catalog.CategoryLeaflets, TotalPrice: 100}),
		completed(3, jobs.Item{ID: 30, Category: catalog.CategoryLeaflets, TotalPrice: 100}),
		completed(4, jobs.Item{ID: 40, Category: catalog.CategoryLeaflets, TotalPrice: 100}),
	}
	entries := map[int64][]ledger.Entry{
		10: {entry(10, ledger.CostTypeInk, 50)},
		20: {entry(20, ledger.CostTypeInk, 10)},
		30: {entry(30, ledger.CostTypeInk, 50)},
	}

	report := Aggregator{}.Compute(js, entries)

	var order []int64
	for _, j := range report.Categories[catalog.CategoryLeaflets].Jobs {
		order = append(order, j.JobID)
	}
	assert.Equal(t, []int64{4, 2, 1, 3}, order)

	order = order[:0]
	for _, j := range report.Jobs {
		order = append(order, j.JobID)
	}
	assert.Equal(t, []int64{4, 2, 1, 3}, order)
}

func TestCompute_IsDeterministic(t *testing.T) {
	js := []jobs.Job{
		completed(1, jobs.Item{ID: 10, Category: catalog.CategoryPackaging, Quantity: 10, TotalPrice: 50, InkCostPerUnit: ptr(1)}),
		completed(2, jobs.Item{ID: 20, Category: catalog.CategoryWideFormat, Quantity: 1, TotalPrice: 80, InkConsumption: ptr(10)}),
	}
	agg := Aggregator{InkCostPerML: inkPrice}

	assert.Equal(t, agg.Compute(js, nil), agg.Compute(js, nil))
}

func TestCompute_EmptyInput(t *testing.T) {
	report := Aggregator{}.Compute(nil, nil)

	assert.Empty(t, report.Jobs)
	assert.Len(t, report.Categories, len(ReportCategories))
	assert.Equal(t, Totals{}, report.Overall)
}
