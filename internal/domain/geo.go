package domain

import "strings"

// Coordinate is a WGS84 point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Place is the location block of an event.
type Place struct {
	Name       *string     `json:"name"`
	Address    *string     `json:"address"`
	Coordinate *Coordinate `json:"coordinate"`
}

// ComposeCoordinate returns a coordinate only when both parts are present and non-zero.
func ComposeCoordinate(lat, lng FlexNumber) *Coordinate {
	la, okLat := lat.Float()
	ln, okLng := lng.Float()
	if !okLat || !okLng || la == 0 || ln == 0 {
		return nil
	}
	return &Coordinate{Lat: la, Lng: ln}
}

// ParseGeocode reads a "(lat, lng)" pair. Malformed input yields nil.
func ParseGeocode(s string) *Coordinate {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	lat, lng, ok := strings.Cut(s, ",")
	if !ok {
		return nil
	}
	return ComposeCoordinate(
		NumberString(strings.TrimSpace(lat)),
		NumberString(strings.TrimSpace(lng)),
	)
}

// optional maps "" to nil.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
