package domain

import (
	"strings"
	"time"
	_ "time/tzdata" // civil timezone must resolve on minimal images
)

// TimestampLayout is the human-readable "last updated" format read by the client.
const TimestampLayout = "2006-01-02 03:04:05 PM"

const (
	civilDateLayout = "2006-01-02"
	isoSeconds      = "2006-01-02T15:04:05-07:00"
	isoMicros       = "2006-01-02T15:04:05.000000-07:00"
)

var civil = mustLoadLocation("America/New_York")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// SetLocation changes the civil timezone. Pass nil to restore America/New_York.
func SetLocation(loc *time.Location) {
	if loc == nil {
		civil = mustLoadLocation("America/New_York")
		return
	}
	civil = loc
}

// CivilLocation returns the civil timezone.
func CivilLocation() *time.Location { return civil }

// Now returns the current time in the civil timezone.
func Now() time.Time { return clock.Now().In(civil) }

// FormatTimestamp renders t in the civil timezone using TimestampLayout.
func FormatTimestamp(t time.Time) string { return t.In(civil).Format(TimestampLayout) }

// CivilDate returns the YYYY-MM-DD date of t in the civil timezone.
func CivilDate(t time.Time) string { return t.In(civil).Format(civilDateLayout) }

// StartOfDay returns midnight of t's civil day.
func StartOfDay(t time.Time) time.Time {
	t = t.In(civil)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, civil)
}

// Timestamps without an offset are read as UTC. A bare date is a civil date.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	civilDateLayout,
}

// NormalizeTimestamp converts an upstream ISO-8601 timestamp to the civil
// timezone. Empty input yields nil; input that does not parse is returned as is.
func NormalizeTimestamp(s string) *string {
	if s == "" {
		return nil
	}
	v := strings.TrimSpace(s)
	if strings.HasSuffix(v, "z") {
		v = v[:len(v)-1] + "Z"
	}
	for _, layout := range timestampLayouts {
		loc := time.UTC
		if layout == civilDateLayout {
			loc = civil
		}
		t, err := time.ParseInLocation(layout, v, loc)
		if err != nil {
			continue
		}
		t = t.In(civil)
		format := isoSeconds
		if t.Nanosecond() != 0 {
			format = isoMicros
		}
		out := t.Format(format)
		return &out
	}
	return &s
}
