package ledger

import (
	"context"

	"go.uber.org/zap"

	"github.com/Simplici0/printops/internal/apperr"
	"github.com/Simplici0/printops/internal/logger"
)

// Service validates ledger writes before handing them to a Store.
type Service struct {
	store Store
}

// NewService returns a Service over store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create validates n and records it.
func (s *Service) Create(ctx context.Context, n NewEntry) (Entry, error) {
	e, err := n.Entry()
	if err != nil {
		return Entry{}, err
	}
	created, err := s.store.Create(ctx, e)
	if apperr.IsNotFound(err) {
		logger.FromContext(ctx).Warn("cost entry references unknown job or item",
			zap.Int64("job_id", e.JobID),
			zap.Int64("job_item_id", e.JobItemID),
		)
	}
	if err != nil {
		return Entry{}, err
	}
	logger.FromContext(ctx).Info("cost entry recorded",
		zap.Int64("entry_id", created.ID),
		zap.Int64("job_id", created.JobID),
		zap.Int64("job_item_id", created.JobItemID),
		zap.String("cost_type", string(created.CostType)),
		zap.Float64("cost_amount", created.CostAmount),
	)
	return created, nil
}

// Update applies a partial change to entry id.
func (s *Service) Update(ctx context.Context, id int64, p Patch) (Entry, error) {
	if err := p.Validate(); err != nil {
		return Entry{}, err
	}
	return s.store.Update(ctx, id, p)
}

// Delete removes entry id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("cost entry deleted", zap.Int64("entry_id", id))
	return nil
}

// ListByJob returns the entries of a job, newest first.
func (s *Service) ListByJob(ctx context.Context, jobID int64) ([]Entry, error) {
	return s.store.ListByJob(ctx, jobID)
}

// ListByItem returns the entries of a job item, newest first.
func (s *Service) ListByItem(ctx context.Context, itemID int64) ([]Entry, error) {
	return s.store.ListByItem(ctx, itemID)
}

// EntriesByItem returns the entries of the given jobs grouped by item id.
func (s *Service) EntriesByItem(ctx context.Context, jobIDs []int64) (map[int64][]Entry, error) {
	return s.store.EntriesByItem(ctx, jobIDs)
}
