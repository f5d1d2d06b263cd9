package main

import (
	"net/http"

	"github.com/Simplici0/printops/internal/apperr"
	"github.com/Simplici0/printops/internal/httpx"
	"github.com/Simplici0/printops/internal/jobs"
	"github.com/Simplici0/printops/internal/ledger"
)

type statusRequest struct {
	Status string `json:"status"`
}

type workRequest struct {
	WorkCompleted *float64 `json:"work_completed"`
}

func (s *server) handleJobsList(w http.ResponseWriter, r *http.Request) {
	list, err := s.jobs.List(r.Context())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	out := make([]jobs.Payload, 0, len(list))
	for _, j := range list {
		out = append(out, jobs.ToPayload(j))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (s *server) handleJobsCreate(w http.ResponseWriter, r *http.Request) {
	var payload jobs.Payload
	if err := httpx.Decode(r, &payload); err != nil {
		httpx.Error(w, r, err)
		return
	}
	payload.ID = 0
	job, err := payload.Job()
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	created, err := s.jobs.Create(r.Context(), job)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, jobs.ToPayload(created))
}

func (s *server) handleJobsGet(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	job, err := s.jobs.Get(r.Context(), id)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, jobs.ToPayload(job))
}

func (s *server) handleJobsUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	var payload jobs.Payload
	if err := httpx.Decode(r, &payload); err != nil {
		httpx.Error(w, r, err)
		return
	}
	payload.ID = id
	job, err := payload.Job()
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	updated, err := s.jobs.Update(r.Context(), job)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, jobs.ToPayload(updated))
}

func (s *server) handleJobsStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	var req statusRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	status, err := jobs.ParseStatus(req.Status)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	if err := s.jobs.SetStatus(r.Context(), id, status); err != nil {
		httpx.Error(w, r, err)
		return
	}
	s.respondJob(w, r, id)
}

func (s *server) handleJobsWork(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	itemID, err := httpx.IDParam(r, "itemID")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	var req workRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	if req.WorkCompleted == nil {
		httpx.Error(w, r, apperr.Validation("work_completed", "is required"))
		return
	}

	if err := s.jobs.RecordWork(r.Context(), id, itemID, *req.WorkCompleted); err != nil {
		httpx.Error(w, r, err)
		return
	}
	s.respondJob(w, r, id)
}

func (s *server) respondJob(w http.ResponseWriter, r *http.Request, id int64) {
	job, err := s.jobs.Get(r.Context(), id)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, jobs.ToPayload(job))
}

func (s *server) handleCostsByJob(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	if _, err := s.jobs.Get(r.Context(), id); err != nil {
		httpx.Error(w, r, err)
		return
	}

	entries, err := s.ledger.ListByJob(r.Context(), id)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}

func (s *server) handleCostsByItem(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	itemID, err := httpx.IDParam(r, "itemID")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	job, err := s.jobs.Get(r.Context(), id)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	if !hasItem(job, itemID) {
		httpx.Error(w, r, &apperr.NotFoundError{Resource: "job item", ID: itemID, Detail: "not part of this job"})
		return
	}

	entries, err := s.ledger.ListByItem(r.Context(), itemID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}

func (s *server) handleCostsCreate(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	var req ledger.NewEntry
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	switch {
	case req.JobID == nil:
		req.JobID = &id
	case *req.JobID != id:
		httpx.Error(w, r, apperr.Validation("job_id", "does not match the job in the path"))
		return
	}

	entry, err := s.ledger.Create(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (s *server) handleCostsUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	var patch ledger.Patch
	if err := httpx.Decode(r, &patch); err != nil {
		httpx.Error(w, r, err)
		return
	}

	entry, err := s.ledger.Update(r.Context(), id, patch)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (s *server) handleCostsDelete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	if err := s.ledger.Delete(r.Context(), id); err != nil {
		httpx.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func hasItem(job jobs.Job, itemID int64) bool {
	for _, it := range job.Items {
		if it.ID == itemID {
			return true
		}
	}
	return false
}
