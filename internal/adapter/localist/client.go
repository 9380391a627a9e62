// Package localist fetches university calendar events from the Localist API.
package localist

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/couchcryptid/campus-feed-etl-service/internal/adapter/feed"
	"github.com/couchcryptid/campus-feed-etl-service/internal/config"
	"github.com/couchcryptid/campus-feed-etl-service/internal/domain"
	"github.com/couchcryptid/campus-feed-etl-service/internal/observability"
)

// Source is the metrics and logging label for Localist.
const Source = "localist"

const (
	windowDays = 7
	perPage    = 100
	maxPages   = 2
)

// Client fetches the upcoming-week event listing.
type Client struct {
	feed    *feed.Client
	baseURL string
	logger  *slog.Logger
}

// NewClient creates a Localist client from the source configuration.
func NewClient(cfg config.SourceConfig, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		feed:    feed.NewClient(Source, cfg.Timeout, metrics, logger),
		baseURL: strings.TrimRight(cfg.URL, "/"),
		logger:  logger,
	}
}

// FetchEvents returns the events of the next seven days, reading a second
// page when the listing reports one. A malformed second page is dropped with
// a warning; a failed request for it fails the fetch.
func (c *Client) FetchEvents(ctx context.Context) (domain.Fetched[domain.LocalistItem], error) {
	url := fmt.Sprintf("%s/events?days=%d&pp=%d", c.baseURL, windowDays, perPage)

	body, err := c.feed.Get(ctx, url)
	if err != nil {
		return domain.Fetched[domain.LocalistItem]{}, err
	}
	out, pages, err := DecodePage(body)
	if err != nil {
		return out, err
	}
	if pages < maxPages {
		return out, nil
	}

	body, err = c.feed.Get(ctx, fmt.Sprintf("%s&page=%d", url, maxPages))
	if err != nil {
		return domain.Fetched[domain.LocalistItem]{}, fmt.Errorf("fetch page %d: %w", maxPages, err)
	}
	next, _, err := DecodePage(body)
	if err != nil {
		c.logger.Warn("ignoring malformed localist page", "page", maxPages, "error", err)
		return out, nil
	}
	out.Items = append(out.Items, next.Items...)
	out.Undecodable += next.Undecodable
	return out, nil
}

// DecodePage decodes one listing page and reports the listing's total page count.
func DecodePage(body []byte) (domain.Fetched[domain.LocalistItem], int, error) {
	if feed.Kind(body) != feed.KindObject {
		return domain.Fetched[domain.LocalistItem]{}, 0, feed.Unexpected(Source, "listing is not an object", body)
	}
	var page struct {
		Events json.RawMessage `json:"events"`
		Page   struct {
			Total domain.FlexNumber `json:"total"`
		} `json:"page"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return domain.Fetched[domain.LocalistItem]{}, 0, feed.Unexpected(Source, err.Error(), body)
	}

	var raws []json.RawMessage
	switch feed.Kind(page.Events) {
	case feed.KindInvalid, feed.KindNull:
	case feed.KindArray:
		if err := json.Unmarshal(page.Events, &raws); err != nil {
			return domain.Fetched[domain.LocalistItem]{}, 0, feed.Unexpected(Source, err.Error(), body)
		}
	default:
		return domain.Fetched[domain.LocalistItem]{}, 0, feed.Unexpected(Source, "events is not a list", body)
	}
	return feed.DecodeItems[domain.LocalistItem](raws), page.Page.Total.IntOr(1), nil
}
