package jobs

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Simplici0/printops/internal/apperr"
	"github.com/Simplici0/printops/internal/catalog"
	"github.com/Simplici0/printops/internal/logger"
	"github.com/Simplici0/printops/internal/pricing"
)

// ProductIndexer loads the product catalog for pricing.
type ProductIndexer interface {
	Index(ctx context.Context) (catalog.Index, error)
}

// Service prices job items before they are stored.
type Service struct {
	store    *Store
	products ProductIndexer
}

// NewService returns a Service.
func NewService(store *Store, products ProductIndexer) *Service {
	return &Service{store: store, products: products}
}

// Create prices every item of job and stores it.
func (s *Service) Create(ctx context.Context, job Job) (Job, error) {
	if err := s.priceItems(ctx, job.Items); err != nil {
		return Job{}, err
	}
	created, err := s.store.Create(ctx, job)
	if err != nil {
		return Job{}, err
	}
	logger.FromContext(ctx).Info("job created",
		zap.Int64("job_id", created.ID),
		zap.Int("items", len(created.Items)),
	)
	return created, nil
}

// Update reprices every item of job and stores it.
func (s *Service) Update(ctx context.Context, job Job) (Job, error) {
	if err := s.priceItems(ctx, job.Items); err != nil {
		return Job{}, err
	}
	return s.store.Update(ctx, job)
}

// Get returns a stored job.
func (s *Service) Get(ctx context.Context, id int64) (Job, error) {
	return s.store.Get(ctx, id)
}

// List returns every stored job.
func (s *Service) List(ctx context.Context) ([]Job, error) {
	return s.store.List(ctx)
}

// SetStatus moves a job through its lifecycle.
func (s *Service) SetStatus(ctx context.Context, id int64, status Status) error {
	if _, err := ParseStatus(string(status)); err != nil {
		return err
	}
	if err := s.store.SetStatus(ctx, id, status); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("job status changed", zap.Int64("job_id", id), zap.String("status", string(status)))
	return nil
}

// RecordWork stores the completed quantity of a job item.
func (s *Service) RecordWork(ctx context.Context, jobID, itemID int64, done float64) error {
	return s.store.SetWorkCompleted(ctx, jobID, itemID, done)
}

func (s *Service) priceItems(ctx context.Context, items []Item) error {
	var idx catalog.Index
	for i := range items {
		if items[i].ProductID != nil && idx == nil {
			var err error
			if idx, err = s.products.Index(ctx); err != nil {
				return fmt.Errorf("load product index: %w", err)
			}
		}
		if err := Reprice(&items[i], idx); err != nil {
			return err
		}
	}
	return nil
}

// Reprice recomputes the unit and total price of it. Items that reference a
// product take the product's current unit cost and category; ad-hoc items
// keep their own unit price.
func Reprice(it *Item, idx catalog.Index) error {
	if it.WorkCompleted > it.Quantity {
		return apperr.Validation("work_completed", "must not exceed quantity")
	}

	unitCost := it.UnitPrice
	if it.ProductID != nil {
		product, ok := idx[*it.ProductID]
		if !ok {
			return apperr.NotFound("product", *it.ProductID)
		}
		if product.Category() != it.Category {
			return apperr.Validation("product_category", fmt.Sprintf("product %d is %s", product.ID, product.Category()))
		}
		cost, err := catalog.ResolveUnitCost(product, idx)
		if err != nil {
			return err
		}
		unitCost = cost
	}

	quote, err := pricing.Calculate(it.Category, unitCost, pricing.ItemInput{
		Quantity:  it.Quantity,
		WidthM:    it.WidthM,
		HeightM:   it.HeightM,
		IsPrinted: it.IsPrinted,
	})
	if err != nil {
		return apperr.Validation("product_category", err.Error())
	}
	it.UnitPrice = quote.UnitPrice
	it.TotalPrice = quote.TotalPrice
	return nil
}
