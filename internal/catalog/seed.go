package catalog

import (
	"context"

	"github.com/angelmondragon/shopfront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopfront/pkg/errors"
	"github.com/shopspring/decimal"
)

func defaultProducts() []models.Product {
	return []models.Product{
		{
			Name:        "Apple",
			Description: "Definitely not poisonous...",
			Price:       decimal.RequireFromString("1299.99"),
			ImageURL:    "/images/products/sample1.png",
			Stock:       5,
		},
		{
			Name:        "Toy Transformer",
			Description: "Definitely not a Decepticon",
			Price:       decimal.RequireFromString("29.99"),
			ImageURL:    "/images/products/sample2.png",
			Stock:       50,
		},
	}
}

// SeedDefaults inserts the starter catalog when no products exist and
// reports how many rows were written.
func (s *service) SeedDefaults(ctx context.Context) (int, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count products")
	}
	if count > 0 {
		return 0, nil
	}
	seeds := defaultProducts()
	for i := range seeds {
		if _, err := s.repo.Create(ctx, &seeds[i]); err != nil {
			return i, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "seed product")
		}
	}
	s.logg.Info(s.logg.WithField(ctx, "count", len(seeds)), "catalog seeded")
	return len(seeds), nil
}
