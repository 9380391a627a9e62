package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/couchcryptid/campus-feed-etl-service/internal/adapter/memstore"
	"github.com/couchcryptid/campus-feed-etl-service/internal/domain"
	"github.com/couchcryptid/campus-feed-etl-service/internal/observability"
	"github.com/couchcryptid/campus-feed-etl-service/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGeocoder struct {
	forward  domain.GeocodingResult
	reverse  domain.GeocodingResult
	err      error
	forwards []string
	reverses int
}

func (g *fakeGeocoder) ForwardGeocode(_ context.Context, query string) (domain.GeocodingResult, error) {
	g.forwards = append(g.forwards, query)
	return g.forward, g.err
}

func (g *fakeGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (domain.GeocodingResult, error) {
	g.reverses++
	return g.reverse, g.err
}

func mustGet(t *testing.T, store *memstore.Store, path string) json.RawMessage {
	t.Helper()
	raw, ok := store.Get(context.Background(), path)
	require.True(t, ok, "no document at %s", path)
	return raw
}

// --- calendar events ---

func TestCalendarEventsJob(t *testing.T) {
	freezeClock(t)
	store := memstore.New()
	job := pipeline.NewCalendarEventsJob(newLocalistFake(t), store, nil, discardLogger())

	report, err := job.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.WriteReport{Path: domain.PathCalendarEvents, Written: 2, Skipped: 1}, report)

	snap := decodeDoc[domain.EventSnapshot](t, mustGet(t, store, domain.PathCalendarEvents))
	assert.Equal(t, 1, snap.TodayCount)
	assert.Equal(t, "2026-04-14 10:30:00 AM", snap.LastUpdated)
	require.Contains(t, snap.Items, "localist_48213377")
	require.Contains(t, snap.Items, "localist_48213390")

	fest := snap.Items["localist_48213377"]
	assert.Equal(t, "Kick off the semester on Hillsborough Street.", fest.Description)
	assert.Equal(t, []string{"Student Life", "Festival"}, fest.Categories)
	require.NotNil(t, fest.LocalistDetails)
	assert.Equal(t, "Campus Enterprises", *fest.Department)
	assert.Equal(t, &domain.Coordinate{Lat: 35.787, Lng: -78.67}, fest.Location.Coordinate)

	maker := snap.Items["localist_48213390"]
	assert.Empty(t, maker.Description)
	assert.Nil(t, maker.Categories)
	assert.Nil(t, maker.Location.Coordinate)
	assert.True(t, maker.AllDay)
	require.NotNil(t, maker.Start)
	assert.Equal(t, "2026-04-15T00:00:00-04:00", *maker.Start, "all-day start stays on its civil date")
}

func TestCalendarEventsJob_Idempotent(t *testing.T) {
	freezeClock(t)
	store := memstore.New()
	job := pipeline.NewCalendarEventsJob(newLocalistFake(t), store, nil, discardLogger())

	_, err := job.Run(context.Background())
	require.NoError(t, err)
	first := mustGet(t, store, domain.PathCalendarEvents)

	_, err = job.Run(context.Background())
	require.NoError(t, err)
	second := mustGet(t, store, domain.PathCalendarEvents)

	if diff := cmp.Diff(string(first), string(second)); diff != "" {
		t.Errorf("second run changed the snapshot (-first +second):\n%s", diff)
	}
}

func TestCalendarEventsJob_GeocodesAddressOnlyEvents(t *testing.T) {
	freezeClock(t)
	store := memstore.New()
	geo := &fakeGeocoder{forward: domain.GeocodingResult{Lat: 35.7694, Lon: -78.6764, FormattedAddress: "1070 Partners Way"}}
	job := pipeline.NewCalendarEventsJob(newLocalistFake(t), store, geo, discardLogger())

	_, err := job.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"1070 Partners Way, Raleigh, NC 27606"}, geo.forwards)
	snap := decodeDoc[domain.EventSnapshot](t, mustGet(t, store, domain.PathCalendarEvents))
	assert.Equal(t, &domain.Coordinate{Lat: 35.7694, Lng: -78.6764}, snap.Items["localist_48213390"].Location.Coordinate)
}

func TestCalendarEventsJob_NoEvents(t *testing.T) {
	store := memstore.New()
	job := pipeline.NewCalendarEventsJob(&localistFake{}, store, nil, discardLogger())

	_, err := job.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrNoData)
	assert.Empty(t, store.Paths())
}

func TestCalendarEventsJob_FetchError(t *testing.T) {
	store := memstore.New()
	job := pipeline.NewCalendarEventsJob(&localistFake{err: errors.New("connection reset")}, store, nil, discardLogger())

	_, err := job.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, domain.OutcomeFailed, domain.Classify(err))
	assert.Empty(t, store.Paths())
}

// --- organization events ---

func TestOrganizationEventsJob(t *testing.T) {
	freezeClock(t)
	store := memstore.New()
	source := newEngageFake(t)
	job := pipeline.NewOrganizationEventsJob(source, store, nil, discardLogger())

	report, err := job.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Written)
	assert.Equal(t, []string{"281733", "300112"}, source.gotIDs)

	snap := decodeDoc[domain.EventSnapshot](t, mustGet(t, store, domain.PathOrganizationEvents))
	assert.Equal(t, 1, snap.TodayCount)

	robotics := snap.Items["engage_10534901"]
	require.NotNil(t, robotics.EngageDetails)
	assert.Equal(t, "NC State Robotics Club", *robotics.Organization)
	assert.Equal(t, []string{"FreeFood"}, robotics.Benefits)
	assert.Equal(t, []string{"Learning", "Engineering"}, robotics.Categories)
	assert.Equal(t, "All majors welcome & pizza provided.", robotics.Description)
	assert.Equal(t, "2026-04-14T19:00:00-04:00", *robotics.Start)

	arboretum := snap.Items["engage_10534977"]
	assert.Equal(t, []string{"Service"}, arboretum.Categories)
	assert.Nil(t, arboretum.Benefits)
	assert.Nil(t, arboretum.Location.Address)
}

func TestOrganizationEventsJob_LookupFailureStillWrites(t *testing.T) {
	freezeClock(t)
	store := memstore.New()
	source := newEngageFake(t)
	source.orgErr = errors.New("engage orgs: status 500")
	job := pipeline.NewOrganizationEventsJob(source, store, nil, discardLogger())

	report, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Written)

	snap := decodeDoc[domain.EventSnapshot](t, mustGet(t, store, domain.PathOrganizationEvents))
	for id, e := range snap.Items {
		require.NotNil(t, e.EngageDetails, id)
		assert.Nil(t, e.Organization, id)
	}

	// organization is written as an explicit null, not omitted
	var doc struct {
		Items map[string]map[string]any `json:"items"`
	}
	require.NoError(t, json.Unmarshal(mustGet(t, store, domain.PathOrganizationEvents), &doc))
	org, present := doc.Items["engage_10534901"]["organization"]
	assert.True(t, present)
	assert.Nil(t, org)
}

func TestOrganizationEventsJob_ErrorEnvelopeIsNoData(t *testing.T) {
	store := memstore.New()
	source := &engageFake{err: fmt.Errorf("engage: %w", domain.ErrUpstreamError)}
	r := pipeline.NewRunner(defaultTimeout, nil, discardLogger(), observability.NewMetricsForTesting(),
		pipeline.NewOrganizationEventsJob(source, store, nil, discardLogger()))

	res, err := r.RunJob(context.Background(), pipeline.JobOrganizationEvents)
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeNoData, res.Outcome)
	assert.Empty(t, store.Paths())
}

func TestOrganizationEventsJob_NoEvents(t *testing.T) {
	job := pipeline.NewOrganizationEventsJob(&engageFake{}, memstore.New(), nil, discardLogger())

	_, err := job.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrNoData)
}

// --- occupancy ---

func TestOccupancyJob(t *testing.T) {
	freezeClock(t)
	store := memstore.New()
	job := pipeline.NewOccupancyJob(newWaitzFake(t), store, discardLogger())

	report, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.WriteReport{Path: domain.PathBusynessLocations, Written: 2, Skipped: 1}, report)

	locations := decodeDoc[map[string]domain.Location](t, mustGet(t, store, domain.PathBusynessLocations))
	require.Len(t, locations, 2)

	library := locations["1042"]
	assert.Equal(t, domain.NumericID("1042"), library.ID, "stored id keeps the upstream number type")
	assert.Equal(t, domain.NumericID("2201"), library.SubLocations[0].ID)
	assert.Equal(t, domain.StatusHigh, library.Status)
	assert.Equal(t, &domain.Spot{ID: "2202", Name: "Floor 4"}, library.BestSpot, "closed hint is passed over")
	require.Len(t, library.SubLocations, 3)
	assert.Equal(t, domain.StatusVeryHigh, library.SubLocations[0].Status)

	union := locations["1077"]
	assert.Equal(t, domain.StatusModerate, union.Status)
	assert.Nil(t, union.BestSpot)

	assert.JSONEq(t, `"2026-04-14 10:30:00 AM"`, string(mustGet(t, store, domain.PathBusynessUpdated)))
}

func TestOccupancyJob_ReplacesPreviousSnapshot(t *testing.T) {
	freezeClock(t)
	store := memstore.New()
	require.NoError(t, store.Set(context.Background(), domain.PathBusynessLocations, map[string]any{"999": map[string]any{"id": "999"}}))

	_, err := pipeline.NewOccupancyJob(newWaitzFake(t), store, discardLogger()).Run(context.Background())
	require.NoError(t, err)

	locations := decodeDoc[map[string]domain.Location](t, mustGet(t, store, domain.PathBusynessLocations))
	assert.NotContains(t, locations, "999")
}

func TestOccupancyJob_NoLocations(t *testing.T) {
	store := memstore.New()
	_, err := pipeline.NewOccupancyJob(&waitzFake{}, store, discardLogger()).Run(context.Background())

	require.ErrorIs(t, err, domain.ErrNoData)
	assert.Empty(t, store.Paths())
}

// --- parking ---

func seedLots(t *testing.T, store *memstore.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, domain.LotPath("danAllenDeck"), map[string]any{
		"id": "danAllenDeck", "name": "Dan Allen Deck", "availableSpaces": 10, "isHidden": true, "note": "event parking",
	}))
	require.NoError(t, store.Set(ctx, domain.LotPath("westernManorLot"), map[string]any{
		"id": "westernManorLot", "name": "Western Manor Lot", "isHidden": false,
	}))
}

func TestParkingJob_Reconciles(t *testing.T) {
	freezeClock(t)
	store := memstore.New()
	seedLots(t, store)
	job := pipeline.NewParkingJob(newOpenSpaceFake(t), store, nil, discardLogger())

	report, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.WriteReport{Path: domain.PathParkingLots, Written: 2, Skipped: 1, Deleted: 1}, report)

	lots, err := store.Children(context.Background(), domain.PathParkingLots)
	require.NoError(t, err)
	require.Len(t, lots, 2)
	assert.NotContains(t, lots, "westernManorLot")

	dan := decodeDoc[map[string]any](t, lots["danAllenDeck"])
	assert.Equal(t, true, dan["isHidden"])
	assert.Equal(t, "event parking", dan["note"])
	assert.InDelta(t, 214, dan["availableSpaces"], 0)
	assert.InDelta(t, 81, dan["occupancy"], 0)

	coliseum := decodeDoc[domain.Lot](t, lots["coliseumDeck"])
	assert.False(t, coliseum.IsHidden)
	assert.Nil(t, coliseum.Location.Address)
	assert.Equal(t, &domain.Coordinate{Lat: 35.7829, Lng: -78.6741}, coliseum.Location.Coordinate)
	assert.Equal(t, 960, coliseum.AvailableSpaces)

	assert.JSONEq(t, `"2026-04-14 10:30:00 AM"`, string(mustGet(t, store, domain.PathParkingUpdated)))
}

func TestParkingJob_NoNamedLotsPrunesNothing(t *testing.T) {
	store := memstore.New()
	seedLots(t, store)
	source := &openSpaceFake{fetched: domain.Fetched[domain.OpenSpaceLot]{
		Items: []domain.OpenSpaceLot{{Geocode: "(35.78, -78.67)"}},
	}}

	report, err := pipeline.NewParkingJob(source, store, nil, discardLogger()).Run(context.Background())
	require.ErrorIs(t, err, domain.ErrNoData)
	assert.Equal(t, 1, report.Skipped)

	lots, err := store.Children(context.Background(), domain.PathParkingLots)
	require.NoError(t, err)
	assert.Len(t, lots, 2)
	_, ok := store.Get(context.Background(), domain.PathParkingUpdated)
	assert.False(t, ok)
}

func TestParkingJob_ReverseGeocodesMissingAddress(t *testing.T) {
	freezeClock(t)
	store := memstore.New()
	geo := &fakeGeocoder{reverse: domain.GeocodingResult{FormattedAddress: "2211 Stinson Dr, Raleigh, NC 27607"}}

	_, err := pipeline.NewParkingJob(newOpenSpaceFake(t), store, geo, discardLogger()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, geo.reverses)
	coliseum := decodeDoc[domain.Lot](t, mustGet(t, store, domain.LotPath("coliseumDeck")))
	require.NotNil(t, coliseum.Location.Address)
	assert.Equal(t, "2211 Stinson Dr, Raleigh, NC 27607", *coliseum.Location.Address)
}

func TestParkingJob_WriteFailureKeepsEarlierWrites(t *testing.T) {
	freezeClock(t)
	inner := memstore.New()
	store := &failingStore{inner: inner, failAt: 2, err: errors.New("redis: connection closed")}

	report, err := pipeline.NewParkingJob(newOpenSpaceFake(t), store, nil, discardLogger()).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, report.Written)

	_, ok := inner.Get(context.Background(), domain.LotPath("danAllenDeck"))
	assert.True(t, ok)
	_, ok = inner.Get(context.Background(), domain.PathParkingUpdated)
	assert.False(t, ok)
}

// --- weather ---

func TestWeatherJob(t *testing.T) {
	freezeClock(t)
	store := memstore.New()
	job := pipeline.NewWeatherJob(newWeatherStemFake(t), store, campusLat, campusLon, discardLogger())

	report, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Written)

	w := decodeDoc[domain.Weather](t, mustGet(t, store, domain.PathWeather))
	assert.Equal(t, 45, w.Temperature)
	assert.Equal(t, 40, w.FeelsLike)
	assert.Equal(t, 62, w.Humidity)
	assert.Equal(t, domain.Wind{Speed: 7, Gust: 14, Direction: "SSW", Degrees: 200}, w.Wind)
	assert.Equal(t, 3, w.UVIndex)
	assert.Equal(t, domain.Rain{Rate: 0, Total: 0.12}, w.Rain)
	assert.Equal(t, 412, w.SolarRadiation)
	assert.Equal(t, "https://cdn.weatherstem.com/orangeroof/wake/ncstate/cloud/snapshot.jpg", w.ImageURL)
	assert.Equal(t, "2026-04-14 10:30:00 AM", w.LastUpdated)
	require.NotNil(t, w.Sunrise)
	require.NotNil(t, w.Sunset)
	assert.Less(t, *w.Sunrise, *w.Sunset)
}

func TestWeatherJob_MissingTemperatureAborts(t *testing.T) {
	store := memstore.New()
	source := &weatherStemFake{station: domain.WeatherStemStation{}}
	source.station.Record.Readings = []domain.WeatherStemReading{{SensorType: domain.SensorHygrometer, Value: domain.Number(50)}}

	r := pipeline.NewRunner(defaultTimeout, nil, discardLogger(), observability.NewMetricsForTesting(),
		pipeline.NewWeatherJob(source, store, campusLat, campusLon, discardLogger()))

	res, err := r.RunJob(context.Background(), pipeline.JobWeather)
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeAborted, res.Outcome)
	_, ok := store.Get(context.Background(), domain.PathWeather)
	assert.False(t, ok)
}

func TestWeatherJob_PolarNightWritesNullSunTimes(t *testing.T) {
	freezeClock(t)
	store := memstore.New()
	// The sun stays below the horizon at the South Pole through April.
	job := pipeline.NewWeatherJob(newWeatherStemFake(t), store, -89.9, 0, discardLogger())

	_, err := job.Run(context.Background())
	require.NoError(t, err)

	raw := decodeDoc[map[string]any](t, mustGet(t, store, domain.PathWeather))
	assert.Contains(t, raw, "sunrise")
	assert.Nil(t, raw["sunrise"])
	assert.Nil(t, raw["sunset"])
}
