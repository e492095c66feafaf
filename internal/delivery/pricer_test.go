package delivery

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/shopfront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopfront/pkg/errors"
	"github.com/shopspring/decimal"
)

type fixedResolver struct {
	km    float64
	err   error
	calls int
}

func (r *fixedResolver) DistanceKm(context.Context, models.DeliveryAddress) (float64, error) {
	r.calls++
	return r.km, r.err
}

func standardMethod() models.DeliveryMethod {
	return models.DeliveryMethod{
		ID:             1,
		Name:           "Standard",
		Active:         true,
		BasePrice:      decimal.RequireFromString("5.00"),
		PerKmPrice:     decimal.RequireFromString("0.10"),
		FreeOverAmount: decimal.RequireFromString("75.00"),
		MaxDistanceKm:  500,
	}
}

func testAddress() *models.DeliveryAddress {
	return &models.DeliveryAddress{RecipientName: "Ada", Line1: "1 Main St", Suburb: "Carlton", Postcode: "3053"}
}

func TestPriceFreeOverThreshold(t *testing.T) {
	resolver := &fixedResolver{km: 40}
	pricer := NewPricer(resolver, nil)

	price, err := pricer.Price(context.Background(), decimal.NewFromInt(80), standardMethod(), testAddress())
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if !price.IsZero() {
		t.Fatalf("expected free delivery, got %s", price)
	}
	if resolver.calls != 0 {
		t.Fatalf("expected no distance lookup for free delivery")
	}
}

func TestPriceThresholdIsInclusive(t *testing.T) {
	pricer := NewPricer(&fixedResolver{km: 10}, nil)

	price, err := pricer.Price(context.Background(), decimal.NewFromInt(75), standardMethod(), testAddress())
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if !price.IsZero() {
		t.Fatalf("expected free delivery at the threshold, got %s", price)
	}
}

func TestPriceAddsDistanceAndRounds(t *testing.T) {
	pricer := NewPricer(&fixedResolver{km: 12.345}, nil)

	price, err := pricer.Price(context.Background(), decimal.NewFromInt(20), standardMethod(), testAddress())
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if !price.Equal(decimal.RequireFromString("6.23")) {
		t.Fatalf("expected 6.23, got %s", price)
	}
}

func TestPriceRoundsHalfUp(t *testing.T) {
	pricer := NewPricer(&fixedResolver{km: 12.35}, nil)

	price, err := pricer.Price(context.Background(), decimal.NewFromInt(20), standardMethod(), testAddress())
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if !price.Equal(decimal.RequireFromString("6.24")) {
		t.Fatalf("expected 6.24, got %s", price)
	}
}

func TestPriceOutOfArea(t *testing.T) {
	method := standardMethod()
	method.MaxDistanceKm = 25
	pricer := NewPricer(&fixedResolver{km: 30}, nil)

	_, err := pricer.Price(context.Background(), decimal.NewFromInt(20), method, testAddress())
	if !pkgerrors.HasCode(err, pkgerrors.CodeOutOfArea) {
		t.Fatalf("expected out of area, got %v", err)
	}
	details, ok := pkgerrors.As(err).Details().(map[string]any)
	if !ok || details["max_distance_km"] != 25 {
		t.Fatalf("unexpected details %#v", pkgerrors.As(err).Details())
	}
}

func TestPriceWithoutResolverChargesBase(t *testing.T) {
	pricer := NewPricer(nil, nil)

	price, err := pricer.Price(context.Background(), decimal.NewFromInt(20), standardMethod(), testAddress())
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if !price.Equal(decimal.RequireFromString("5.00")) {
		t.Fatalf("expected base price, got %s", price)
	}
}

func TestPriceWithoutAddressChargesBase(t *testing.T) {
	resolver := &fixedResolver{km: 100}
	pricer := NewPricer(resolver, nil)

	price, err := pricer.Price(context.Background(), decimal.NewFromInt(20), standardMethod(), nil)
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if !price.Equal(decimal.RequireFromString("5.00")) || resolver.calls != 0 {
		t.Fatalf("expected base price without lookup, got %s (%d calls)", price, resolver.calls)
	}
}

func TestPriceSkipsDistanceWhenMethodIgnoresIt(t *testing.T) {
	method := standardMethod()
	method.PerKmPrice = decimal.Zero
	method.MaxDistanceKm = 0
	resolver := &fixedResolver{km: 1000}
	pricer := NewPricer(resolver, nil)

	price, err := pricer.Price(context.Background(), decimal.NewFromInt(20), method, testAddress())
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if !price.Equal(decimal.RequireFromString("5.00")) || resolver.calls != 0 {
		t.Fatalf("expected flat base price, got %s", price)
	}
}

func TestPriceInactiveMethod(t *testing.T) {
	method := standardMethod()
	method.Active = false

	_, err := NewPricer(nil, nil).Price(context.Background(), decimal.NewFromInt(20), method, nil)
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = NewPricer(nil, nil).Price(context.Background(), decimal.NewFromInt(100), method, nil)
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected inactive check before free shipping, got %v", err)
	}
}

func TestPricePropagatesResolverError(t *testing.T) {
	boom := errors.New("boom")
	pricer := NewPricer(&fixedResolver{err: boom}, nil)

	_, err := pricer.Price(context.Background(), decimal.NewFromInt(20), standardMethod(), testAddress())
	if !errors.Is(err, boom) {
		t.Fatalf("expected resolver error, got %v", err)
	}
}
