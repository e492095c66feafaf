package delivery

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/shopfront/pkg/db/models"
	"github.com/angelmondragon/shopfront/pkg/maps"
)

type distanceClient interface {
	DistanceKm(ctx context.Context, origin maps.LatLng, destination string) (float64, error)
}

// MapsResolver measures distances by geocoding addresses with Google Maps.
type MapsResolver struct {
	client distanceClient
	origin maps.LatLng
}

// NewMapsResolver builds a resolver anchored at the store origin.
func NewMapsResolver(client distanceClient, origin maps.LatLng) (*MapsResolver, error) {
	if client == nil {
		return nil, fmt.Errorf("maps client required")
	}
	return &MapsResolver{client: client, origin: origin}, nil
}

func (r *MapsResolver) DistanceKm(ctx context.Context, address models.DeliveryAddress) (float64, error) {
	return r.client.DistanceKm(ctx, r.origin, FormatAddress(address))
}

// FormatAddress renders an address as a single geocodable line.
func FormatAddress(address models.DeliveryAddress) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{address.Line1, address.Line2} {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	locality := strings.TrimSpace(strings.TrimSpace(address.Suburb) + " " + strings.TrimSpace(address.Postcode))
	if locality != "" {
		parts = append(parts, locality)
	}
	return strings.Join(parts, ", ")
}
