// Package engage fetches student-organization events from the Campus Labs Engage API.
package engage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/campus-feed-etl-service/internal/adapter/feed"
	"github.com/couchcryptid/campus-feed-etl-service/internal/config"
	"github.com/couchcryptid/campus-feed-etl-service/internal/domain"
	"github.com/couchcryptid/campus-feed-etl-service/internal/observability"
)

// Source is the metrics and logging label for Engage.
const Source = "engage"

const (
	apiKeyHeader = "X-Engage-Api-Key"
	eventTake    = 100
	orgTake      = 500
	dateLayout   = "2006-01-02"
)

// Client fetches events and organization names.
type Client struct {
	feed       *feed.Client
	baseURL    string
	windowDays int
}

// NewClient creates an Engage client. Events are requested from the start of
// today through windowDays days ahead.
func NewClient(cfg config.SourceConfig, windowDays int, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		feed:       feed.NewClient(Source, cfg.Timeout, metrics, logger, feed.WithHeader(apiKeyHeader, cfg.APIKey)),
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		windowDays: windowDays,
	}
}

// FetchEvents returns events starting within the configured window of now's civil date.
func (c *Client) FetchEvents(ctx context.Context, now time.Time) (domain.Fetched[domain.EngageEvent], error) {
	now = now.In(domain.CivilLocation())
	q := url.Values{
		"startsAfter":  {now.Format(dateLayout) + "T00:00:00"},
		"startsBefore": {now.AddDate(0, 0, c.windowDays).Format(dateLayout) + "T00:00:00"},
		"take":         {fmt.Sprint(eventTake)},
	}
	body, err := c.feed.Get(ctx, c.baseURL+"/events/event?"+q.Encode())
	if err != nil {
		return domain.Fetched[domain.EngageEvent]{}, err
	}
	return DecodeEvents(body)
}

// FetchOrganizations resolves organization ids to names in one request.
func (c *Client) FetchOrganizations(ctx context.Context, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}
	q := url.Values{"ids": ids, "take": {fmt.Sprint(orgTake)}}
	body, err := c.feed.Get(ctx, c.baseURL+"/organizations/organization?"+q.Encode())
	if err != nil {
		return nil, err
	}
	orgs, err := DecodeOrganizations(body)
	if err != nil {
		return nil, err
	}
	return domain.OrganizationNames(orgs.Items), nil
}

// DecodeEvents decodes an event listing.
func DecodeEvents(body []byte) (domain.Fetched[domain.EngageEvent], error) {
	raws, err := decodeItems(body)
	if err != nil {
		return domain.Fetched[domain.EngageEvent]{}, err
	}
	return feed.DecodeItems[domain.EngageEvent](raws), nil
}

// DecodeOrganizations decodes an organization listing.
func DecodeOrganizations(body []byte) (domain.Fetched[domain.EngageOrganization], error) {
	raws, err := decodeItems(body)
	if err != nil {
		return domain.Fetched[domain.EngageOrganization]{}, err
	}
	return feed.DecodeItems[domain.EngageOrganization](raws), nil
}

// decodeItems unwraps the {"items": [...]} envelope shared by Engage listings.
// A body carrying an "error" key is an error envelope.
func decodeItems(body []byte) ([]json.RawMessage, error) {
	if feed.Kind(body) != feed.KindObject {
		return nil, feed.Unexpected(Source, "listing is not an object", body)
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, feed.Unexpected(Source, err.Error(), body)
	}
	if msg, ok := envelope["error"]; ok {
		return nil, fmt.Errorf("%s: %w: %s", Source, domain.ErrUpstreamError, msg)
	}

	items := envelope["items"]
	switch feed.Kind(items) {
	case feed.KindInvalid, feed.KindNull:
		return nil, nil
	case feed.KindArray:
		var raws []json.RawMessage
		if err := json.Unmarshal(items, &raws); err != nil {
			return nil, feed.Unexpected(Source, err.Error(), body)
		}
		return raws, nil
	default:
		return nil, feed.Unexpected(Source, "items is not a list", body)
	}
}
