package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/egannguyen/tica-shop/internal/entity"
	"github.com/egannguyen/tica-shop/internal/repository"
)

// CatalogService serves the public product catalog.
type CatalogService struct {
	products repository.ProductRepository
}

func NewCatalogService(products repository.ProductRepository) *CatalogService {
	return &CatalogService{products: products}
}

// ListProducts returns every active product in id order. A storage failure
// is logged and yields an empty catalog.
func (s *CatalogService) ListProducts(ctx context.Context) []entity.Product {
	products, err := s.products.FindActive(ctx)
	if err != nil {
		slog.Error("Failed to list products", "err", err)
		return []entity.Product{}
	}
	return products
}

// GetProduct returns an active product. Inactive products are reported as not found.
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*entity.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if !p.IsActive {
		return nil, ErrNotFound
	}
	return p, nil
}

// Seed upserts the given catalog entries.
func (s *CatalogService) Seed(ctx context.Context, products []entity.Product) error {
	if err := s.products.Seed(ctx, products); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}
	slog.Info("Catalog seeded", "products", len(products))
	return nil
}
