package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/couchcryptid/campus-feed-etl-service/internal/domain"
)

// Store is the document store the jobs write to. Paths are slash separated,
// e.g. "liveParking/lots/danAllenDeck".
type Store interface {
	// Set replaces the document at path.
	Set(ctx context.Context, path string, value any) error
	// Update shallow-merges fields into the document at path, creating it if absent.
	Update(ctx context.Context, path string, fields map[string]any) error
	// Delete removes the document at path. Deleting a missing document is not an error.
	Delete(ctx context.Context, path string) error
	// Children returns the documents stored directly beneath path, keyed by name.
	Children(ctx context.Context, path string) (map[string]json.RawMessage, error)
}

// Notifier announces that a cycle changed the store.
type Notifier interface {
	Publish(ctx context.Context, change domain.Change) error
}

// Job is one ingestion pipeline. Run performs a single fetch cycle and
// reports what it wrote; a non-nil error is classified by domain.Classify.
type Job interface {
	Name() string
	Run(ctx context.Context) (domain.WriteReport, error)
}

// LocalistSource fetches the calendar feed.
type LocalistSource interface {
	FetchEvents(ctx context.Context) (domain.Fetched[domain.LocalistItem], error)
}

// EngageSource fetches organization events and resolves organization names.
type EngageSource interface {
	FetchEvents(ctx context.Context, now time.Time) (domain.Fetched[domain.EngageEvent], error)
	FetchOrganizations(ctx context.Context, ids []string) (map[string]string, error)
}

// WaitzSource fetches live occupancy.
type WaitzSource interface {
	FetchLocations(ctx context.Context) (domain.Fetched[domain.WaitzLocation], error)
}

// OpenSpaceSource fetches parking telemetry.
type OpenSpaceSource interface {
	FetchLots(ctx context.Context) (domain.Fetched[domain.OpenSpaceLot], error)
}

// WeatherStemSource fetches the weather station record.
type WeatherStemSource interface {
	FetchStation(ctx context.Context) (domain.WeatherStemStation, error)
}
