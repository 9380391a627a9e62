package domain

// Occupancy status buckets.
const (
	StatusLow      = "low"
	StatusModerate = "moderate"
	StatusHigh     = "high"
	StatusVeryHigh = "veryHigh"
)

// WaitzLocation is a raw Waitz building record.
type WaitzLocation struct {
	ID            UpstreamID         `json:"id"`
	Name          string             `json:"name"`
	Busyness      FlexNumber         `json:"busyness"`
	Capacity      FlexNumber         `json:"capacity"`
	IsOpen        FlexBool           `json:"isOpen"`
	SubLocs       []WaitzSubLocation `json:"subLocs"`
	BestLocations []WaitzHint        `json:"bestLocations"`
}

type WaitzSubLocation struct {
	ID       UpstreamID `json:"id"`
	Name     string     `json:"name"`
	Busyness FlexNumber `json:"busyness"`
	Capacity FlexNumber `json:"capacity"`
	IsOpen   FlexBool   `json:"isOpen"`
}

type WaitzHint struct {
	ID FlexString `json:"id"`
}

// Location is a normalized occupancy record for a building. Ids keep the
// upstream's JSON type.
type Location struct {
	ID           UpstreamID    `json:"id"`
	Name         string        `json:"name"`
	Occupancy    float64       `json:"occupancy"`
	Capacity     int           `json:"capacity"`
	IsOpen       bool          `json:"isOpen"`
	Status       string        `json:"status"`
	BestSpot     *Spot         `json:"bestSpot"`
	SubLocations []SubLocation `json:"subLocations"`
}

// SubLocation is a floor or room inside a Location.
type SubLocation struct {
	ID        UpstreamID `json:"id"`
	Name      string     `json:"name"`
	Occupancy float64    `json:"occupancy"`
	Capacity  int        `json:"capacity"`
	IsOpen    bool       `json:"isOpen"`
	Status    string     `json:"status"`
}

// Spot names the recommended sub-location.
type Spot struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// OccupancyStatus buckets a 0-100 occupancy value. Lower bounds are inclusive.
func OccupancyStatus(v float64) string {
	switch {
	case v >= 80:
		return StatusVeryHigh
	case v >= 50:
		return StatusHigh
	case v >= 25:
		return StatusModerate
	default:
		return StatusLow
	}
}

// NormalizeLocation maps a Waitz record onto a Location. It reports false when
// the record has no id.
func NormalizeLocation(raw WaitzLocation) (Location, bool) {
	if raw.ID.IsZero() {
		return Location{}, false
	}
	occupancy := raw.Busyness.FloatOr(0)

	subs := make([]SubLocation, 0, len(raw.SubLocs))
	for _, s := range raw.SubLocs {
		occ := s.Busyness.FloatOr(0)
		subs = append(subs, SubLocation{
			ID:        s.ID,
			Name:      s.Name,
			Occupancy: occ,
			Capacity:  s.Capacity.IntOr(0),
			IsOpen:    bool(s.IsOpen),
			Status:    OccupancyStatus(occ),
		})
	}

	return Location{
		ID:           raw.ID,
		Name:         raw.Name,
		Occupancy:    occupancy,
		Capacity:     raw.Capacity.IntOr(0),
		IsOpen:       bool(raw.IsOpen),
		Status:       OccupancyStatus(occupancy),
		BestSpot:     bestSpot(raw),
		SubLocations: subs,
	}, true
}

// bestSpot returns the first hinted sub-location that exists and is open.
func bestSpot(raw WaitzLocation) *Spot {
	for _, hint := range raw.BestLocations {
		if hint.ID == "" {
			continue
		}
		for _, s := range raw.SubLocs {
			if s.ID.String() == string(hint.ID) && bool(s.IsOpen) {
				return &Spot{ID: s.ID.String(), Name: s.Name}
			}
		}
	}
	return nil
}

// BuildOccupancy normalizes every location, keyed by id. Locations without an
// id are counted as skipped.
func BuildOccupancy(raw []WaitzLocation) (locations map[string]Location, skipped int) {
	locations = make(map[string]Location, len(raw))
	for _, r := range raw {
		loc, ok := NormalizeLocation(r)
		if !ok {
			skipped++
			continue
		}
		locations[loc.ID.String()] = loc
	}
	return locations, skipped
}
