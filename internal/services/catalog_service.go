package services

import (
	"context"
	"strings"

	"storefront/internal/backend"
	"storefront/internal/domain"
)

type CatalogService struct {
	Catalog backend.Catalog
}

func NewCatalogService(catalog backend.Catalog) *CatalogService {
	return &CatalogService{Catalog: catalog}
}

// Search fetches the full list and filters it locally; the backends have no
// search endpoint.
func (s *CatalogService) Search(ctx context.Context, q string) ([]domain.Product, error) {
	all, err := s.Catalog.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return FilterProducts(all, q), nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id domain.ProductID) (domain.Product, error) {
	return s.Catalog.GetProduct(ctx, id)
}

// FilterProducts keeps products whose name or description contains q,
// ignoring case. An empty query keeps everything.
func FilterProducts(products []domain.Product, q string) []domain.Product {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return products
	}
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Description), q) {
			out = append(out, p)
		}
	}
	return out
}
