package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Document paths read by the client.
const (
	PathCalendarEvents     = "events/calendarEvents"
	PathOrganizationEvents = "events/organizationEvents"
	PathBusynessLocations  = "liveCampusBusyness/locations"
	PathBusynessUpdated    = "liveCampusBusyness/lastUpdated"
	PathParkingLots        = "liveParking/lots"
	PathParkingUpdated     = "liveParking/lastUpdated"
	PathWeather            = "weather"
)

// LotPath is the document path of one parking lot.
func LotPath(key string) string { return PathParkingLots + "/" + key }

// SplitPath separates a document path into its parent and final segment.
// Top-level documents have an empty parent.
func SplitPath(path string) (parent, name string) {
	path = strings.Trim(path, "/")
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}

// MergeFields shallow-merges fields into the JSON object existing. A missing
// or non-object existing document is treated as empty.
func MergeFields(existing json.RawMessage, fields map[string]any) (json.RawMessage, error) {
	doc := decodeFields(existing)
	for k, v := range fields {
		doc[k] = v
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode merged document: %w", err)
	}
	return out, nil
}
