package domain

import (
	"strings"
	"time"
)

// EventSnapshot is the stored document for one event source.
type EventSnapshot struct {
	Items       map[string]Event `json:"items"`
	TodayCount  int              `json:"todayCount"`
	LastUpdated string           `json:"lastUpdated"`
}

// AggregateEvents keys events by id (later ids win) and counts those starting
// on now's civil date.
func AggregateEvents(events []Event, now time.Time) EventSnapshot {
	today := CivilDate(now)
	snap := EventSnapshot{
		Items:       make(map[string]Event, len(events)),
		LastUpdated: FormatTimestamp(now),
	}
	for _, e := range events {
		if e.Start != nil && strings.HasPrefix(*e.Start, today) {
			snap.TodayCount++
		}
		snap.Items[e.ID] = e
	}
	return snap
}
