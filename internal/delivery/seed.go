package delivery

import (
	"context"

	"github.com/angelmondragon/shopfront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopfront/pkg/errors"
	"github.com/shopspring/decimal"
)

func defaultMethods() []models.DeliveryMethod {
	return []models.DeliveryMethod{
		{
			Name:           "Standard",
			Active:         true,
			BasePrice:      decimal.RequireFromString("5.00"),
			PerKmPrice:     decimal.RequireFromString("0.10"),
			FreeOverAmount: decimal.RequireFromString("75.00"),
			MaxDistanceKm:  500,
		},
		{
			Name:           "Express",
			Active:         true,
			BasePrice:      decimal.RequireFromString("10.00"),
			PerKmPrice:     decimal.RequireFromString("0.20"),
			FreeOverAmount: decimal.RequireFromString("150.00"),
			MaxDistanceKm:  500,
		},
	}
}

// SeedDefaults inserts the Standard and Express methods when none exist.
func (s *service) SeedDefaults(ctx context.Context) (int, error) {
	count, err := s.repo.CountMethods(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count delivery methods")
	}
	if count > 0 {
		return 0, nil
	}
	methods := defaultMethods()
	for i := range methods {
		if err := s.repo.CreateMethod(ctx, &methods[i]); err != nil {
			return i, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "seed delivery method")
		}
	}
	s.logg.Info(s.logg.WithField(ctx, "count", len(methods)), "delivery methods seeded")
	return len(methods), nil
}
