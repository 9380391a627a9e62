package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/campus-feed-etl-service/internal/domain"
)

// ParkingJob reconciles liveParking/lots against the OpenSpace feed: fresh lots
// are merged over their stored documents and stored lots missing from the
// feed are deleted. The writes are applied one at a time; a failure part way
// leaves the earlier writes in place until the next cycle.
type ParkingJob struct {
	source   OpenSpaceSource
	store    Store
	geocoder domain.Geocoder
	logger   *slog.Logger
}

// NewParkingJob creates the parking job. A nil geocoder disables address enrichment.
func NewParkingJob(source OpenSpaceSource, store Store, geocoder domain.Geocoder, logger *slog.Logger) *ParkingJob {
	return &ParkingJob{source: source, store: store, geocoder: geocoder, logger: logger}
}

func (j *ParkingJob) Name() string { return JobLiveParking }

func (j *ParkingJob) Run(ctx context.Context) (domain.WriteReport, error) {
	report := domain.WriteReport{Path: domain.PathParkingLots}

	fetched, err := j.source.FetchLots(ctx)
	if err != nil {
		return report, fmt.Errorf("fetch parking lots: %w", err)
	}

	lots, skipped := domain.NormalizeLots(fetched.Items)
	report.Skipped = skipped + fetched.Undecodable
	if report.Skipped > 0 {
		j.logger.Warn("skipped lots without a name", "job", j.Name(), "count", report.Skipped)
	}
	// Without a single named lot there is nothing to reconcile against, and
	// pruning would empty the collection.
	if len(lots) == 0 {
		return report, fmt.Errorf("%w: openspace returned no named lots", domain.ErrNoData)
	}

	lots = domain.EnrichLotAddresses(ctx, lots, j.geocoder, j.logger)

	stored, err := j.store.Children(ctx, domain.PathParkingLots)
	if err != nil {
		return report, fmt.Errorf("read stored lots: %w", err)
	}
	plan := domain.ReconcileLots(stored, lots)

	for _, w := range plan.Upserts {
		if err := j.store.Update(ctx, domain.LotPath(w.Key), w.Fields); err != nil {
			return report, fmt.Errorf("update lot %s: %w", w.Key, err)
		}
		report.Written++
	}
	for _, key := range plan.Deletes {
		if err := j.store.Delete(ctx, domain.LotPath(key)); err != nil {
			return report, fmt.Errorf("delete lot %s: %w", key, err)
		}
		j.logger.Info("removed obsolete lot", "job", j.Name(), "lot", key)
		report.Deleted++
	}

	if err := j.store.Set(ctx, domain.PathParkingUpdated, domain.FormatTimestamp(domain.Now())); err != nil {
		return report, fmt.Errorf("write parking timestamp: %w", err)
	}
	return report, nil
}
