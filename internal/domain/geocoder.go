package domain

import "context"

// GeocodingResult is what a geocoding provider returns for one lookup.
// A zero result means the provider found nothing.
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	PlaceName        string
	Confidence       float64 // 0.0-1.0
}

// Geocoder resolves addresses and coordinates.
type Geocoder interface {
	// ForwardGeocode resolves a free-form address to coordinates.
	ForwardGeocode(ctx context.Context, query string) (GeocodingResult, error)

	// ReverseGeocode resolves coordinates to a postal address.
	ReverseGeocode(ctx context.Context, lat, lon float64) (GeocodingResult, error)
}
