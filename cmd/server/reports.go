package main

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/Simplici0/printops/internal/httpx"
	"github.com/Simplici0/printops/internal/invoice"
	"github.com/Simplici0/printops/internal/jobs"
	"github.com/Simplici0/printops/internal/logger"
)

func (s *server) handleMarginReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	all, err := s.jobs.List(ctx)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	var completed []int64
	for _, j := range all {
		if j.Status == jobs.StatusCompleted {
			completed = append(completed, j.ID)
		}
	}
	entries, err := s.ledger.EntriesByItem(ctx, completed)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	report := s.aggregator.Compute(all, entries)
	s.metrics.ReportComputed()
	logger.FromContext(ctx).Debug("margin report computed",
		zap.Int("jobs", len(report.Jobs)),
		zap.Float64("overall_margin", report.Overall.Margin),
	)
	httpx.JSON(w, http.StatusOK, report)
}

func (s *server) handleInvoicesCreate(w http.ResponseWriter, r *http.Request) {
	var req invoice.NewInvoice
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	inv, err := s.invoices.Create(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (s *server) handleInvoicesGet(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	inv, err := s.invoices.Get(r.Context(), id)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}
