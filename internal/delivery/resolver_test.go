package delivery

import (
	"context"
	"testing"

	"github.com/angelmondragon/shopfront/pkg/db/models"
	"github.com/angelmondragon/shopfront/pkg/maps"
)

type recordingClient struct {
	origin      maps.LatLng
	destination string
}

func (c *recordingClient) DistanceKm(_ context.Context, origin maps.LatLng, destination string) (float64, error) {
	c.origin = origin
	c.destination = destination
	return 7.5, nil
}

func TestMapsResolverUsesOriginAndFormattedAddress(t *testing.T) {
	client := &recordingClient{}
	origin := maps.LatLng{Latitude: -37.8136, Longitude: 144.9631}
	resolver, err := NewMapsResolver(client, origin)
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}

	km, err := resolver.DistanceKm(context.Background(), models.DeliveryAddress{
		Line1:    "1 Main St",
		Line2:    "Unit 4",
		Suburb:   "Carlton",
		Postcode: "3053",
	})
	if err != nil {
		t.Fatalf("distance: %v", err)
	}
	if km != 7.5 {
		t.Fatalf("expected 7.5, got %v", km)
	}
	if client.origin != origin {
		t.Fatalf("expected origin %+v, got %+v", origin, client.origin)
	}
	if client.destination != "1 Main St, Unit 4, Carlton 3053" {
		t.Fatalf("unexpected destination %q", client.destination)
	}
}

func TestNewMapsResolverRequiresClient(t *testing.T) {
	if _, err := NewMapsResolver(nil, maps.LatLng{}); err == nil {
		t.Fatalf("expected error without client")
	}
}

func TestFormatAddressSkipsBlankParts(t *testing.T) {
	got := FormatAddress(models.DeliveryAddress{Line1: " 9 High St ", Postcode: "2000"})
	if got != "9 High St, 2000" {
		t.Fatalf("unexpected address %q", got)
	}
}
