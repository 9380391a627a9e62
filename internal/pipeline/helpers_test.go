package pipeline_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/campus-feed-etl-service/internal/adapter/engage"
	"github.com/couchcryptid/campus-feed-etl-service/internal/adapter/localist"
	"github.com/couchcryptid/campus-feed-etl-service/internal/adapter/openspace"
	"github.com/couchcryptid/campus-feed-etl-service/internal/adapter/waitz"
	"github.com/couchcryptid/campus-feed-etl-service/internal/adapter/weatherstem"
	"github.com/couchcryptid/campus-feed-etl-service/internal/domain"
	"github.com/couchcryptid/campus-feed-etl-service/internal/pipeline"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

// 10:30 on a Tuesday in Raleigh.
var fixedNow = time.Date(2026, time.April, 14, 14, 30, 0, 0, time.UTC)

const (
	campusLat      = 35.7717255492
	campusLon      = -78.6736536026
	defaultTimeout = time.Second
)

func freezeClock(t *testing.T) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(fixedNow))
	t.Cleanup(func() { domain.SetClock(nil) })
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "data", "mock", name))
	require.NoError(t, err)
	return data
}

// metricValue reads a single counter or gauge.
func metricValue(t *testing.T, c prometheus.Metric) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	if m.GetCounter() != nil {
		return m.GetCounter().GetValue()
	}
	return m.GetGauge().GetValue()
}

func decodeDoc[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

// --- fake upstream sources backed by captured payloads ---

type localistFake struct {
	fetched domain.Fetched[domain.LocalistItem]
	err     error
}

func newLocalistFake(t *testing.T) *localistFake {
	fetched, _, err := localist.DecodePage(loadFixture(t, "localist_events.json"))
	require.NoError(t, err)
	return &localistFake{fetched: fetched}
}

func (f *localistFake) FetchEvents(_ context.Context) (domain.Fetched[domain.LocalistItem], error) {
	return f.fetched, f.err
}

type engageFake struct {
	fetched domain.Fetched[domain.EngageEvent]
	orgs    map[string]string
	err     error
	orgErr  error
	gotIDs  []string
}

func newEngageFake(t *testing.T) *engageFake {
	events, err := engage.DecodeEvents(loadFixture(t, "engage_events.json"))
	require.NoError(t, err)
	orgs, err := engage.DecodeOrganizations(loadFixture(t, "engage_organizations.json"))
	require.NoError(t, err)
	return &engageFake{fetched: events, orgs: domain.OrganizationNames(orgs.Items)}
}

func (f *engageFake) FetchEvents(_ context.Context, _ time.Time) (domain.Fetched[domain.EngageEvent], error) {
	return f.fetched, f.err
}

func (f *engageFake) FetchOrganizations(_ context.Context, ids []string) (map[string]string, error) {
	f.gotIDs = ids
	if f.orgErr != nil {
		return nil, f.orgErr
	}
	return f.orgs, nil
}

type waitzFake struct {
	fetched domain.Fetched[domain.WaitzLocation]
	err     error
}

func newWaitzFake(t *testing.T) *waitzFake {
	fetched, err := waitz.DecodeLocations(loadFixture(t, "waitz_live.json"))
	require.NoError(t, err)
	return &waitzFake{fetched: fetched}
}

func (f *waitzFake) FetchLocations(_ context.Context) (domain.Fetched[domain.WaitzLocation], error) {
	return f.fetched, f.err
}

type openSpaceFake struct {
	fetched domain.Fetched[domain.OpenSpaceLot]
	err     error
}

func newOpenSpaceFake(t *testing.T) *openSpaceFake {
	fetched, err := openspace.DecodeLots(loadFixture(t, "openspace_lots.json"))
	require.NoError(t, err)
	return &openSpaceFake{fetched: fetched}
}

func (f *openSpaceFake) FetchLots(_ context.Context) (domain.Fetched[domain.OpenSpaceLot], error) {
	return f.fetched, f.err
}

type weatherStemFake struct {
	station domain.WeatherStemStation
	err     error
}

func newWeatherStemFake(t *testing.T) *weatherStemFake {
	station, err := weatherstem.DecodeStation(loadFixture(t, "weatherstem_station.json"))
	require.NoError(t, err)
	return &weatherStemFake{station: station}
}

func (f *weatherStemFake) FetchStation(_ context.Context) (domain.WeatherStemStation, error) {
	return f.station, f.err
}

// failingStore wraps a store and fails the nth write (1-based).
type failingStore struct {
	inner  pipeline.Store
	failAt int
	writes int
	err    error
}

func (s *failingStore) write() error {
	s.writes++
	if s.writes == s.failAt {
		return s.err
	}
	return nil
}

func (s *failingStore) Set(ctx context.Context, path string, value any) error {
	if err := s.write(); err != nil {
		return err
	}
	return s.inner.Set(ctx, path, value)
}

func (s *failingStore) Update(ctx context.Context, path string, fields map[string]any) error {
	if err := s.write(); err != nil {
		return err
	}
	return s.inner.Update(ctx, path, fields)
}

func (s *failingStore) Delete(ctx context.Context, path string) error {
	if err := s.write(); err != nil {
		return err
	}
	return s.inner.Delete(ctx, path)
}

func (s *failingStore) Children(ctx context.Context, path string) (map[string]json.RawMessage, error) {
	return s.inner.Children(ctx, path)
}
