package delivery

import (
	"context"
	"fmt"

	"github.com/angelmondragon/shopfront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopfront/pkg/errors"
	"github.com/angelmondragon/shopfront/pkg/logger"
	"github.com/shopspring/decimal"
)

// DistanceResolver measures the distance from the store to an address.
type DistanceResolver interface {
	DistanceKm(ctx context.Context, address models.DeliveryAddress) (float64, error)
}

// Pricer computes delivery prices. Without a resolver it charges the base
// price only.
type Pricer struct {
	resolver DistanceResolver
	logg     *logger.Logger
}

// NewPricer builds a pricer. resolver may be nil.
func NewPricer(resolver DistanceResolver, logg *logger.Logger) *Pricer {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Pricer{resolver: resolver, logg: logg}
}

// Price returns the delivery price for an order total shipped with method to
// address, rounded half-up to two decimal places.
func (p *Pricer) Price(ctx context.Context, orderTotal decimal.Decimal, method models.DeliveryMethod, address *models.DeliveryAddress) (decimal.Decimal, error) {
	if !method.Active {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "delivery method is not available")
	}
	if method.FreeOverAmount.IsPositive() && orderTotal.GreaterThanOrEqual(method.FreeOverAmount) {
		return decimal.Zero, nil
	}

	price := method.BasePrice
	distanceApplies := method.PerKmPrice.IsPositive() || method.MaxDistanceKm > 0
	switch {
	case !distanceApplies:
	case address == nil:
		p.logg.Debug(ctx, "no delivery address; charging base price")
	case p.resolver == nil:
		p.logg.Debug(ctx, "distance capability unavailable; charging base price")
	default:
		km, err := p.resolver.DistanceKm(ctx, *address)
		if err != nil {
			return decimal.Zero, err
		}
		if method.MaxDistanceKm > 0 && km > float64(method.MaxDistanceKm) {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeOutOfArea, "address is outside the delivery area").
				WithDetails(map[string]any{
					"distance_km":     fmt.Sprintf("%.1f", km),
					"max_distance_km": method.MaxDistanceKm,
				})
		}
		price = price.Add(decimal.NewFromFloat(km).Mul(method.PerKmPrice))
	}
	return price.Round(2), nil
}
