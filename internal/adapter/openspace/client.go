// Package openspace fetches parking lot telemetry from the OpenSpace multi-lot API.
package openspace

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/couchcryptid/campus-feed-etl-service/internal/adapter/feed"
	"github.com/couchcryptid/campus-feed-etl-service/internal/config"
	"github.com/couchcryptid/campus-feed-etl-service/internal/domain"
	"github.com/couchcryptid/campus-feed-etl-service/internal/observability"
)

// Source is the metrics and logging label for OpenSpace.
const Source = "openspace"

// Client fetches the lot list.
type Client struct {
	feed *feed.Client
	url  string
}

// NewClient creates an OpenSpace client. cfg.URL is the full multi-lot endpoint.
func NewClient(cfg config.SourceConfig, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		feed: feed.NewClient(Source, cfg.Timeout, metrics, logger, feed.WithHeader("x-api-key", cfg.APIKey)),
		url:  cfg.URL,
	}
}

// FetchLots returns the raw lot records.
func (c *Client) FetchLots(ctx context.Context) (domain.Fetched[domain.OpenSpaceLot], error) {
	body, err := c.feed.Get(ctx, c.url)
	if err != nil {
		return domain.Fetched[domain.OpenSpaceLot]{}, err
	}
	return DecodeLots(body)
}

// DecodeLots expects a non-empty top-level list. When its first element is
// itself a list, that inner list holds the lots.
func DecodeLots(body []byte) (domain.Fetched[domain.OpenSpaceLot], error) {
	if feed.Kind(body) != feed.KindArray {
		return domain.Fetched[domain.OpenSpaceLot]{}, feed.Unexpected(Source, "response is not a list", body)
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(body, &raws); err != nil {
		return domain.Fetched[domain.OpenSpaceLot]{}, feed.Unexpected(Source, err.Error(), body)
	}
	if len(raws) == 0 {
		return domain.Fetched[domain.OpenSpaceLot]{}, feed.Unexpected(Source, "empty list", body)
	}
	if feed.Kind(raws[0]) == feed.KindArray {
		inner := raws[0]
		raws = nil
		if err := json.Unmarshal(inner, &raws); err != nil {
			return domain.Fetched[domain.OpenSpaceLot]{}, feed.Unexpected(Source, err.Error(), body)
		}
	}
	return feed.DecodeItems[domain.OpenSpaceLot](raws), nil
}
