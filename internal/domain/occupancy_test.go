package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOccupancyStatus(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, StatusLow},
		{24.9, StatusLow},
		{25, StatusModerate},
		{49.99, StatusModerate},
		{50, StatusHigh},
		{79.9, StatusHigh},
		{80, StatusVeryHigh},
		{100, StatusVeryHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OccupancyStatus(tt.in), "occupancy %v", tt.in)
	}
}

func TestOccupancyStatus_Partition(t *testing.T) {
	for v := 0.0; v <= 100; v += 0.5 {
		got := OccupancyStatus(v)
		switch {
		case v >= 80:
			assert.Equal(t, StatusVeryHigh, got)
		case v >= 50:
			assert.Equal(t, StatusHigh, got)
		case v >= 25:
			assert.Equal(t, StatusModerate, got)
		default:
			assert.Equal(t, StatusLow, got)
		}
	}
}

const waitzFixture = `{
  "id": 12,
  "name": "D.H. Hill Jr. Library",
  "busyness": 63,
  "capacity": "1800",
  "isOpen": true,
  "subLocs": [
    {"id": 121, "name": "Floor 1", "busyness": 85, "capacity": 400, "isOpen": true},
    {"id": 122, "name": "Floor 2", "busyness": 20, "capacity": 300, "isOpen": false},
    {"id": 123, "name": "Floor 3", "busyness": "30", "capacity": 300, "isOpen": true},
    {"name": "Annex", "busyness": null}
  ],
  "bestLocations": [{"id": 122}, {"id": 123}]
}`

func decodeWaitz(t *testing.T, data string) WaitzLocation {
	t.Helper()
	var raw WaitzLocation
	require.NoError(t, json.Unmarshal([]byte(data), &raw))
	return raw
}

func TestNormalizeLocation(t *testing.T) {
	loc, ok := NormalizeLocation(decodeWaitz(t, waitzFixture))
	require.True(t, ok)

	assert.Equal(t, NumericID("12"), loc.ID)
	assert.Equal(t, "D.H. Hill Jr. Library", loc.Name)
	assert.Equal(t, 63.0, loc.Occupancy)
	assert.Equal(t, 1800, loc.Capacity)
	assert.True(t, loc.IsOpen)
	assert.Equal(t, StatusHigh, loc.Status)

	require.NotNil(t, loc.BestSpot, "closed hint is passed over for the next open one")
	assert.Equal(t, Spot{ID: "123", Name: "Floor 3"}, *loc.BestSpot)

	require.Len(t, loc.SubLocations, 4)
	assert.Equal(t, StatusVeryHigh, loc.SubLocations[0].Status)
	assert.False(t, loc.SubLocations[1].IsOpen)
	assert.Equal(t, 30.0, loc.SubLocations[2].Occupancy)
	assert.Equal(t, StatusModerate, loc.SubLocations[2].Status)
	assert.True(t, loc.SubLocations[3].ID.IsZero())
	assert.Equal(t, 0.0, loc.SubLocations[3].Occupancy)
	assert.Equal(t, StatusLow, loc.SubLocations[3].Status)
}

func TestNormalizeLocation_KeepsUpstreamIDTypes(t *testing.T) {
	loc, ok := NormalizeLocation(decodeWaitz(t,
		`{"id": 12, "subLocs": [{"id": 123, "isOpen": true}, {"id": "annex"}, {"name": "no id"}], "bestLocations": [{"id": "123"}]}`))
	require.True(t, ok)

	out, err := json.Marshal(loc)
	require.NoError(t, err)

	var doc struct {
		ID       any `json:"id"`
		BestSpot struct {
			ID string `json:"id"`
		} `json:"bestSpot"`
		SubLocations []struct {
			ID any `json:"id"`
		} `json:"subLocations"`
	}
	require.NoError(t, json.Unmarshal(out, &doc))

	assert.Equal(t, 12.0, doc.ID, "numeric building id stays a number")
	require.Len(t, doc.SubLocations, 3)
	assert.Equal(t, 123.0, doc.SubLocations[0].ID)
	assert.Equal(t, "annex", doc.SubLocations[1].ID)
	assert.Nil(t, doc.SubLocations[2].ID)
	assert.Equal(t, "123", doc.BestSpot.ID, "hint matches across number and string")
}

func TestBuildOccupancy_KeysByTextID(t *testing.T) {
	locations, skipped := BuildOccupancy([]WaitzLocation{
		decodeWaitz(t, `{"id": 1042, "name": "Library"}`),
		decodeWaitz(t, `{"id": "gym", "name": "Carmichael"}`),
		decodeWaitz(t, `{"name": "no id"}`),
	})

	assert.Equal(t, 1, skipped)
	assert.Contains(t, locations, "1042")
	assert.Contains(t, locations, "gym")
}

func TestNormalizeLocation_NoBestSpot(t *testing.T) {
	tests := map[string]string{
		"no hints":        `{"id": 1, "subLocs": [{"id": 2, "isOpen": true}]}`,
		"no sublocations": `{"id": 1, "bestLocations": [{"id": 2}]}`,
		"unknown hint":    `{"id": 1, "subLocs": [{"id": 2, "isOpen": true}], "bestLocations": [{"id": 9}]}`,
		"hint closed":     `{"id": 1, "subLocs": [{"id": 2, "isOpen": false}], "bestLocations": [{"id": 2}]}`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			loc, ok := NormalizeLocation(decodeWaitz(t, data))
			require.True(t, ok)
			assert.Nil(t, loc.BestSpot)
		})
	}
}

func TestNormalizeLocation_Defaults(t *testing.T) {
	loc, ok := NormalizeLocation(decodeWaitz(t, `{"id": "gym"}`))
	require.True(t, ok)

	assert.Equal(t, "", loc.Name)
	assert.Equal(t, 0.0, loc.Occupancy)
	assert.Equal(t, 0, loc.Capacity)
	assert.False(t, loc.IsOpen)
	assert.Equal(t, StatusLow, loc.Status)
	assert.NotNil(t, loc.SubLocations)
	assert.Empty(t, loc.SubLocations)
}

func TestBuildOccupancy(t *testing.T) {
	var raw []WaitzLocation
	require.NoError(t, json.Unmarshal([]byte(`[{"id": 1, "name": "Library"}, {"name": "Nameless"}, {"id": 2, "name": "Gym"}]`), &raw))

	locations, skipped := BuildOccupancy(raw)

	assert.Equal(t, 1, skipped)
	assert.Len(t, locations, 2)
	assert.Equal(t, "Library", locations["1"].Name)
	assert.Equal(t, "Gym", locations["2"].Name)
}
