package maps

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/shopfront/pkg/errors"
)

func TestClientGeocodeRequest(t *testing.T) {
	const expectedURL = "http://maps.test/v1/places:searchText"
	respBody := `{"places":[{"id":"place_123","formattedAddress":"1 George St, Sydney NSW","location":{"latitude":-33.86,"longitude":151.2}}]}`

	var capturedURL string
	var capturedHeaders http.Header

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		capturedHeaders = req.Header.Clone()

		bodyBytes, err := io.ReadAll(req.Body)
		if err != nil {
			t.Fatalf("read request body: %v", err)
		}
		var payload map[string]any
		if err := json.Unmarshal(bodyBytes, &payload); err != nil {
			t.Fatalf("unmarshal request body: %v", err)
		}
		if payload["textQuery"] != "1 George St" {
			t.Fatalf("unexpected textQuery %q", payload["textQuery"])
		}
		if payload["regionCode"] != "AU" {
			t.Fatalf("unexpected regionCode %q", payload["regionCode"])
		}

		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(respBody)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient("test-key", WithBaseURL("http://maps.test/v1"), WithHTTPClient(&http.Client{Transport: rt}), WithRegion("au"))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	place, err := client.Geocode(context.Background(), " 1 George St ")
	if err != nil {
		t.Fatalf("geocode: %v", err)
	}
	if capturedURL != expectedURL {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if capturedHeaders.Get("X-Goog-Api-Key") != "test-key" {
		t.Fatalf("api key header missing")
	}
	if capturedHeaders.Get("X-Goog-FieldMask") != searchTextFieldMask {
		t.Fatalf("unexpected field mask %q", capturedHeaders.Get("X-Goog-FieldMask"))
	}
	if place.PlaceID != "place_123" || place.Location.Latitude != -33.86 || place.Location.Longitude != 151.2 {
		t.Fatalf("unexpected place %+v", place)
	}
}

func TestClientGeocodeNoMatch(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{}`)),
			Header:     http.Header{},
		}, nil
	})
	client, err := NewClient("k", WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.Geocode(context.Background(), "nowhere")
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestClientGeocodeUpstreamFailure(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusForbidden,
			Body:       io.NopCloser(strings.NewReader(`denied`)),
			Header:     http.Header{},
		}, nil
	})
	client, err := NewClient("k", WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.DistanceKm(context.Background(), LatLng{}, "somewhere")
	if !pkgerrors.HasCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient("  "); err == nil {
		t.Fatalf("expected error for blank api key")
	}
}

func TestHaversine(t *testing.T) {
	sydney := LatLng{Latitude: -33.8688, Longitude: 151.2093}
	melbourne := LatLng{Latitude: -37.8136, Longitude: 144.9631}

	if got := Haversine(sydney, sydney); got != 0 {
		t.Fatalf("expected zero distance, got %f", got)
	}
	got := Haversine(sydney, melbourne)
	if math.Abs(got-713.4) > 5 {
		t.Fatalf("expected roughly 713km, got %f", got)
	}
	if back := Haversine(melbourne, sydney); math.Abs(back-got) > 1e-9 {
		t.Fatalf("distance should be symmetric: %f vs %f", got, back)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
