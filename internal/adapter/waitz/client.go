// Package waitz fetches live building occupancy from Waitz.
package waitz

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"

	"github.com/couchcryptid/campus-feed-etl-service/internal/adapter/feed"
	"github.com/couchcryptid/campus-feed-etl-service/internal/config"
	"github.com/couchcryptid/campus-feed-etl-service/internal/domain"
	"github.com/couchcryptid/campus-feed-etl-service/internal/observability"
)

// Source is the metrics and logging label for Waitz.
const Source = "waitz"

// Client fetches the live occupancy feed for one campus.
type Client struct {
	feed *feed.Client
	url  string
}

// NewClient creates a Waitz client for the given campus slug.
func NewClient(cfg config.SourceConfig, campus string, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		feed: feed.NewClient(Source, cfg.Timeout, metrics, logger),
		url:  strings.TrimRight(cfg.URL, "/") + "/live/" + url.PathEscape(campus),
	}
}

// FetchLocations returns the campus's building records.
func (c *Client) FetchLocations(ctx context.Context) (domain.Fetched[domain.WaitzLocation], error) {
	body, err := c.feed.Get(ctx, c.url)
	if err != nil {
		return domain.Fetched[domain.WaitzLocation]{}, err
	}
	return DecodeLocations(body)
}

// DecodeLocations accepts either a bare list or an object wrapping the list in "data".
func DecodeLocations(body []byte) (domain.Fetched[domain.WaitzLocation], error) {
	var raws []json.RawMessage
	switch feed.Kind(body) {
	case feed.KindArray:
		if err := json.Unmarshal(body, &raws); err != nil {
			return domain.Fetched[domain.WaitzLocation]{}, feed.Unexpected(Source, err.Error(), body)
		}
	case feed.KindObject:
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return domain.Fetched[domain.WaitzLocation]{}, feed.Unexpected(Source, err.Error(), body)
		}
		switch feed.Kind(envelope.Data) {
		case feed.KindInvalid, feed.KindNull:
		case feed.KindArray:
			if err := json.Unmarshal(envelope.Data, &raws); err != nil {
				return domain.Fetched[domain.WaitzLocation]{}, feed.Unexpected(Source, err.Error(), body)
			}
		default:
			return domain.Fetched[domain.WaitzLocation]{}, feed.Unexpected(Source, "data is not a list", body)
		}
	default:
		return domain.Fetched[domain.WaitzLocation]{}, feed.Unexpected(Source, "neither list nor object", body)
	}
	return feed.DecodeItems[domain.WaitzLocation](raws), nil
}
