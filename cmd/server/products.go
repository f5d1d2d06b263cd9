package main

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/Simplici0/printops/internal/apperr"
	"github.com/Simplici0/printops/internal/catalog"
	"github.com/Simplici0/printops/internal/httpx"
	"github.com/Simplici0/printops/internal/logger"
	"github.com/Simplici0/printops/internal/pricing"
)

type productCostResponse struct {
	ProductID int64   `json:"product_id"`
	Category  string  `json:"category"`
	UnitCost  float64 `json:"unit_cost"`
	Display   float64 `json:"unit_cost_display"`
}

func (s *server) handleProductsList(w http.ResponseWriter, r *http.Request) {
	products, err := s.products.List(r.Context())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	out := make([]catalog.Payload, 0, len(products))
	for _, p := range products {
		out = append(out, catalog.ToPayload(p))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (s *server) handleProductsCreate(w http.ResponseWriter, r *http.Request) {
	var payload catalog.Payload
	if err := httpx.Decode(r, &payload); err != nil {
		httpx.Error(w, r, err)
		return
	}
	product, err := payload.Product()
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	created, err := s.products.Create(r.Context(), product)
	if err != nil {
		s.logRejectedProduct(r, product, err)
		httpx.Error(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Info("product created",
		zap.Int64("product_id", created.ID),
		zap.String("category", string(created.Category())),
	)
	httpx.JSON(w, http.StatusCreated, catalog.ToPayload(created))
}

func (s *server) handleProductsGet(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	product, err := s.products.Get(r.Context(), id)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, catalog.ToPayload(product))
}

func (s *server) handleProductsUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	var payload catalog.Payload
	if err := httpx.Decode(r, &payload); err != nil {
		httpx.Error(w, r, err)
		return
	}
	payload.ID = id
	product, err := payload.Product()
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	updated, err := s.products.Update(r.Context(), id, product)
	if err != nil {
		s.logRejectedProduct(r, product, err)
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, catalog.ToPayload(updated))
}

func (s *server) handleProductsDelete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	if err := s.products.Delete(r.Context(), id); err != nil {
		httpx.Error(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Info("product deleted", zap.Int64("product_id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleProductsCost(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	idx, err := s.products.Index(r.Context())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	product, ok := idx[id]
	if !ok {
		httpx.Error(w, r, apperr.NotFound("product", id))
		return
	}
	cost, err := catalog.ResolveUnitCost(product, idx)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, productCostResponse{
		ProductID: id,
		Category:  string(product.Category()),
		UnitCost:  cost,
		Display:   pricing.Round2(cost),
	})
}

// logRejectedProduct records products refused because their component graph
// cannot be costed.
func (s *server) logRejectedProduct(r *http.Request, p catalog.Product, err error) {
	if !apperr.IsConfiguration(err) {
		return
	}
	logger.FromContext(r.Context()).Warn("product rejected",
		zap.String("name", p.Name),
		zap.String("category", string(p.Category())),
		zap.Error(err),
	)
}
