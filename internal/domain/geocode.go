package domain

import (
	"context"
	"log/slog"
)

// EnrichEventLocations fills in coordinates for events that carry an address
// but no coordinate. Lookup failures leave the event unchanged. A nil geocoder
// returns events as is.
func EnrichEventLocations(ctx context.Context, events []Event, geocoder Geocoder, logger *slog.Logger) []Event {
	if geocoder == nil {
		return events
	}
	for i := range events {
		loc := &events[i].Location
		if loc.Coordinate != nil || loc.Address == nil {
			continue
		}
		result, err := geocoder.ForwardGeocode(ctx, *loc.Address)
		if err != nil {
			logger.Warn("forward geocoding failed",
				"event_id", events[i].ID,
				"address", *loc.Address,
				"error", err,
			)
			continue
		}
		if result.Lat != 0 && result.Lon != 0 {
			loc.Coordinate = &Coordinate{Lat: result.Lat, Lng: result.Lon}
		}
	}
	return events
}

// EnrichLotAddresses fills in addresses for lots that carry a coordinate but
// no address. Lookup failures leave the lot unchanged. A nil geocoder returns
// lots as is.
func EnrichLotAddresses(ctx context.Context, lots []Lot, geocoder Geocoder, logger *slog.Logger) []Lot {
	if geocoder == nil {
		return lots
	}
	for i := range lots {
		loc := &lots[i].Location
		if loc.Address != nil || loc.Coordinate == nil {
			continue
		}
		result, err := geocoder.ReverseGeocode(ctx, loc.Coordinate.Lat, loc.Coordinate.Lng)
		if err != nil {
			logger.Warn("reverse geocoding failed",
				"lot", lots[i].ID,
				"lat", loc.Coordinate.Lat,
				"lng", loc.Coordinate.Lng,
				"error", err,
			)
			continue
		}
		loc.Address = optional(result.FormattedAddress)
	}
	return lots
}
