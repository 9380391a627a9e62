// Package weatherstem fetches the campus weather station record from WeatherStem.
package weatherstem

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/couchcryptid/campus-feed-etl-service/internal/adapter/feed"
	"github.com/couchcryptid/campus-feed-etl-service/internal/config"
	"github.com/couchcryptid/campus-feed-etl-service/internal/domain"
	"github.com/couchcryptid/campus-feed-etl-service/internal/observability"
)

// Source is the metrics and logging label for WeatherStem.
const Source = "weatherstem"

type request struct {
	APIKey   string   `json:"api_key"`
	Stations []string `json:"stations"`
}

// Client fetches one station's latest record.
type Client struct {
	feed    *feed.Client
	url     string
	apiKey  string
	station string
}

// NewClient creates a WeatherStem client for the given station handle.
func NewClient(cfg config.SourceConfig, station string, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		feed:    feed.NewClient(Source, cfg.Timeout, metrics, logger),
		url:     cfg.URL,
		apiKey:  cfg.APIKey,
		station: station,
	}
}

// FetchStation returns the station's latest record.
func (c *Client) FetchStation(ctx context.Context) (domain.WeatherStemStation, error) {
	body, err := c.feed.PostJSON(ctx, c.url, request{APIKey: c.apiKey, Stations: []string{c.station}})
	if err != nil {
		return domain.WeatherStemStation{}, err
	}
	return DecodeStation(body)
}

// DecodeStation accepts a non-empty list (the first element is the station)
// or an object that carries a "record" key.
func DecodeStation(body []byte) (domain.WeatherStemStation, error) {
	var raw json.RawMessage
	switch feed.Kind(body) {
	case feed.KindArray:
		var list []json.RawMessage
		if err := json.Unmarshal(body, &list); err != nil || len(list) == 0 {
			return domain.WeatherStemStation{}, feed.Unexpected(Source, "empty station list", body)
		}
		raw = list[0]
	case feed.KindObject:
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(body, &fields); err != nil {
			return domain.WeatherStemStation{}, feed.Unexpected(Source, err.Error(), body)
		}
		if _, ok := fields["record"]; !ok {
			return domain.WeatherStemStation{}, feed.Unexpected(Source, "object without record", body)
		}
		raw = body
	default:
		return domain.WeatherStemStation{}, feed.Unexpected(Source, "neither list nor object", body)
	}

	var station domain.WeatherStemStation
	if err := json.Unmarshal(raw, &station); err != nil {
		return domain.WeatherStemStation{}, feed.Unexpected(Source, err.Error(), body)
	}
	return station, nil
}
