package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/campus-feed-etl-service/internal/domain"
)

// Job names.
const (
	JobCalendarEvents     = "calendar-events"
	JobOrganizationEvents = "organization-events"
	JobCampusBusyness     = "campus-busyness"
	JobLiveParking        = "live-parking"
	JobWeather            = "weather"
)

// CalendarEventsJob snapshots the Localist calendar into events/calendarEvents.
type CalendarEventsJob struct {
	source   LocalistSource
	store    Store
	geocoder domain.Geocoder
	logger   *slog.Logger
}

// NewCalendarEventsJob creates the calendar job. A nil geocoder disables enrichment.
func NewCalendarEventsJob(source LocalistSource, store Store, geocoder domain.Geocoder, logger *slog.Logger) *CalendarEventsJob {
	return &CalendarEventsJob{source: source, store: store, geocoder: geocoder, logger: logger}
}

func (j *CalendarEventsJob) Name() string { return JobCalendarEvents }

func (j *CalendarEventsJob) Run(ctx context.Context) (domain.WriteReport, error) {
	report := domain.WriteReport{Path: domain.PathCalendarEvents}

	fetched, err := j.source.FetchEvents(ctx)
	if err != nil {
		return report, fmt.Errorf("fetch calendar events: %w", err)
	}

	events := make([]domain.Event, 0, len(fetched.Items))
	report.Skipped = fetched.Undecodable
	for _, item := range fetched.Items {
		e, ok := domain.NormalizeLocalistEvent(item)
		if !ok {
			report.Skipped++
			continue
		}
		events = append(events, e)
	}

	return writeEvents(ctx, j.store, j.geocoder, j.logger, report, events)
}

// OrganizationEventsJob snapshots Engage events into events/organizationEvents.
type OrganizationEventsJob struct {
	source   EngageSource
	store    Store
	geocoder domain.Geocoder
	logger   *slog.Logger
}

// NewOrganizationEventsJob creates the Engage job. A nil geocoder disables enrichment.
func NewOrganizationEventsJob(source EngageSource, store Store, geocoder domain.Geocoder, logger *slog.Logger) *OrganizationEventsJob {
	return &OrganizationEventsJob{source: source, store: store, geocoder: geocoder, logger: logger}
}

func (j *OrganizationEventsJob) Name() string { return JobOrganizationEvents }

func (j *OrganizationEventsJob) Run(ctx context.Context) (domain.WriteReport, error) {
	report := domain.WriteReport{Path: domain.PathOrganizationEvents}

	fetched, err := j.source.FetchEvents(ctx, domain.Now())
	if err != nil {
		return report, fmt.Errorf("fetch organization events: %w", err)
	}
	report.Skipped = fetched.Undecodable
	if len(fetched.Items) == 0 {
		return report, fmt.Errorf("%w: engage returned no events", domain.ErrNoData)
	}

	// Organization names are decoration; events are still written without them.
	orgs, err := j.source.FetchOrganizations(ctx, domain.OrganizationIDs(fetched.Items))
	if err != nil {
		j.logger.Warn("organization lookup failed, writing events without names", "job", j.Name(), "error", err)
		orgs = map[string]string{}
	}

	events := make([]domain.Event, 0, len(fetched.Items))
	for _, raw := range fetched.Items {
		e, ok := domain.NormalizeEngageEvent(raw, orgs)
		if !ok {
			report.Skipped++
			continue
		}
		events = append(events, e)
	}

	return writeEvents(ctx, j.store, j.geocoder, j.logger, report, events)
}

// writeEvents enriches, aggregates, and snapshot-replaces one event document.
func writeEvents(ctx context.Context, store Store, geocoder domain.Geocoder, logger *slog.Logger, report domain.WriteReport, events []domain.Event) (domain.WriteReport, error) {
	if report.Skipped > 0 {
		logger.Warn("skipped events that could not be normalized", "path", report.Path, "count", report.Skipped)
	}
	if len(events) == 0 {
		return report, fmt.Errorf("%w: no events to write", domain.ErrNoData)
	}

	events = domain.EnrichEventLocations(ctx, events, geocoder, logger)
	snap := domain.AggregateEvents(events, domain.Now())

	if err := store.Set(ctx, report.Path, snap); err != nil {
		return report, fmt.Errorf("write %s: %w", report.Path, err)
	}
	report.Written = len(snap.Items)
	return report, nil
}
