// Command replay runs one captured upstream payload through the same decode,
// normalize and write path the ingest service uses, against an in-memory
// store, and prints the resulting documents as JSON. No network is used.
//
// Usage:
//
//	go run ./cmd/replay -source localist -file data/mock/localist_events.json
//	go run ./cmd/replay -source engage -file data/mock/engage_events.json \
//	  -orgs data/mock/engage_organizations.json
//	go run ./cmd/replay -source openspace -file lots.json -at 2026-04-14T10:30:00-04:00
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/campus-feed-etl-service/internal/adapter/engage"
	"github.com/couchcryptid/campus-feed-etl-service/internal/adapter/localist"
	"github.com/couchcryptid/campus-feed-etl-service/internal/adapter/memstore"
	"github.com/couchcryptid/campus-feed-etl-service/internal/adapter/openspace"
	"github.com/couchcryptid/campus-feed-etl-service/internal/adapter/waitz"
	"github.com/couchcryptid/campus-feed-etl-service/internal/adapter/weatherstem"
	"github.com/couchcryptid/campus-feed-etl-service/internal/domain"
	"github.com/couchcryptid/campus-feed-etl-service/internal/observability"
	"github.com/couchcryptid/campus-feed-etl-service/internal/pipeline"
	"github.com/jonboulle/clockwork"
)

const (
	defaultLat = 35.7717255492
	defaultLon = -78.6736536026
)

func main() {
	source := flag.String("source", "", "payload source: localist, engage, waitz, openspace or weatherstem")
	file := flag.String("file", "", "captured payload file")
	orgsFile := flag.String("orgs", "", "captured organization lookup (engage only)")
	at := flag.String("at", "", "RFC 3339 time to treat as now (default: current time)")
	verbose := flag.Bool("v", false, "log job warnings to stderr")
	flag.Parse()

	if *source == "" || *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	os.Exit(run(*source, *file, *orgsFile, *at, *verbose, os.Stdout))
}

func run(source, file, orgsFile, at string, verbose bool, out io.Writer) int {
	if at != "" {
		now, err := time.Parse(time.RFC3339, at)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -at: %v\n", err)
			return 2
		}
		domain.SetClock(clockwork.NewFakeClockAt(now))
		defer domain.SetClock(nil)
	}

	logOut := io.Discard
	if verbose {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(logOut, nil))

	body, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read payload: %v\n", err)
		return 1
	}

	store := memstore.New()
	job, err := buildJob(source, body, orgsFile, store, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	runner := pipeline.NewRunner(time.Minute, nil, logger, observability.NewMetricsForTesting(), job)
	res, _ := runner.RunJob(context.Background(), job.Name())

	if err := writeReport(out, res, store); err != nil {
		fmt.Fprintf(os.Stderr, "write output: %v\n", err)
		return 1
	}
	if res.Outcome != domain.OutcomeWritten {
		return 1
	}
	return 0
}

// buildJob decodes the payload up front so shape errors surface before the
// job runs, then wires the job to a source that replays the decoded value.
func buildJob(source string, body []byte, orgsFile string, store pipeline.Store, logger *slog.Logger) (pipeline.Job, error) {
	switch source {
	case "localist":
		fetched, _, err := localist.DecodePage(body)
		if err != nil {
			return nil, err
		}
		return pipeline.NewCalendarEventsJob(replayLocalist{fetched}, store, nil, logger), nil
	case "engage":
		fetched, err := engage.DecodeEvents(body)
		if err != nil {
			return nil, err
		}
		orgs := map[string]string{}
		if orgsFile != "" {
			data, err := os.ReadFile(orgsFile)
			if err != nil {
				return nil, fmt.Errorf("read organizations: %w", err)
			}
			decoded, err := engage.DecodeOrganizations(data)
			if err != nil {
				return nil, err
			}
			orgs = domain.OrganizationNames(decoded.Items)
		}
		return pipeline.NewOrganizationEventsJob(replayEngage{fetched, orgs}, store, nil, logger), nil
	case "waitz":
		fetched, err := waitz.DecodeLocations(body)
		if err != nil {
			return nil, err
		}
		return pipeline.NewOccupancyJob(replayWaitz{fetched}, store, logger), nil
	case "openspace":
		fetched, err := openspace.DecodeLots(body)
		if err != nil {
			return nil, err
		}
		return pipeline.NewParkingJob(replayOpenSpace{fetched}, store, nil, logger), nil
	case "weatherstem":
		station, err := weatherstem.DecodeStation(body)
		if err != nil {
			return nil, err
		}
		return pipeline.NewWeatherJob(replayWeatherStem{station}, store, defaultLat, defaultLon, logger), nil
	default:
		return nil, fmt.Errorf("unknown source %q", source)
	}
}

type report struct {
	Result    domain.RunResult           `json:"result"`
	Documents map[string]json.RawMessage `json:"documents"`
}

func writeReport(out io.Writer, res domain.RunResult, store *memstore.Store) error {
	ctx := context.Background()
	docs := make(map[string]json.RawMessage)
	for _, path := range store.Paths() {
		if raw, ok := store.Get(ctx, path); ok {
			docs[path] = raw
		}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report{Result: res, Documents: docs})
}

// Replay sources hand back a payload that was decoded ahead of time.

type replayLocalist struct {
	fetched domain.Fetched[domain.LocalistItem]
}

func (r replayLocalist) FetchEvents(context.Context) (domain.Fetched[domain.LocalistItem], error) {
	return r.fetched, nil
}

type replayEngage struct {
	fetched domain.Fetched[domain.EngageEvent]
	orgs    map[string]string
}

func (r replayEngage) FetchEvents(context.Context, time.Time) (domain.Fetched[domain.EngageEvent], error) {
	return r.fetched, nil
}

func (r replayEngage) FetchOrganizations(context.Context, []string) (map[string]string, error) {
	return r.orgs, nil
}

type replayWaitz struct {
	fetched domain.Fetched[domain.WaitzLocation]
}

func (r replayWaitz) FetchLocations(context.Context) (domain.Fetched[domain.WaitzLocation], error) {
	return r.fetched, nil
}

type replayOpenSpace struct {
	fetched domain.Fetched[domain.OpenSpaceLot]
}

func (r replayOpenSpace) FetchLots(context.Context) (domain.Fetched[domain.OpenSpaceLot], error) {
	return r.fetched, nil
}

type replayWeatherStem struct {
	station domain.WeatherStemStation
}

func (r replayWeatherStem) FetchStation(context.Context) (domain.WeatherStemStation, error) {
	return r.station, nil
}
