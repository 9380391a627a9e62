package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/campus-feed-etl-service/internal/domain"
)

// OccupancyJob replaces liveCampusBusyness/locations with the current Waitz
// snapshot and stamps liveCampusBusyness/lastUpdated.
type OccupancyJob struct {
	source WaitzSource
	store  Store
	logger *slog.Logger
}

func NewOccupancyJob(source WaitzSource, store Store, logger *slog.Logger) *OccupancyJob {
	return &OccupancyJob{source: source, store: store, logger: logger}
}

func (j *OccupancyJob) Name() string { return JobCampusBusyness }

func (j *OccupancyJob) Run(ctx context.Context) (domain.WriteReport, error) {
	report := domain.WriteReport{Path: domain.PathBusynessLocations}

	fetched, err := j.source.FetchLocations(ctx)
	if err != nil {
		return report, fmt.Errorf("fetch occupancy: %w", err)
	}

	locations, skipped := domain.BuildOccupancy(fetched.Items)
	report.Skipped = skipped + fetched.Undecodable
	if report.Skipped > 0 {
		j.logger.Warn("skipped locations without an id", "job", j.Name(), "count", report.Skipped)
	}
	if len(locations) == 0 {
		return report, fmt.Errorf("%w: waitz returned no locations", domain.ErrNoData)
	}

	if err := j.store.Set(ctx, domain.PathBusynessLocations, locations); err != nil {
		return report, fmt.Errorf("write locations: %w", err)
	}
	report.Written = len(locations)

	if err := j.store.Set(ctx, domain.PathBusynessUpdated, domain.FormatTimestamp(domain.Now())); err != nil {
		return report, fmt.Errorf("write busyness timestamp: %w", err)
	}
	return report, nil
}
