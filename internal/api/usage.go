// ABOUTME: Usage analytics operations
// ABOUTME: Summary and time-series GETs routed through the dedupe cache

package api

import (
	"context"
	"encoding/json"
	"net/url"
	"time"
)

const (
	usageSummaryPath = "/admin/usage/summary"
	usageSeriesPath  = "/admin/usage/series"
)

// UsageSummary returns the aggregate usage snapshot. Dashboards poll this,
// so responses are served from the dedupe cache within its TTL.
func (c *Client) UsageSummary(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.cachedGetJSON(ctx, usageSummaryPath, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UsageSeries returns a metric's time series over [from, to]. Cached like
// UsageSummary.
func (c *Client) UsageSeries(ctx context.Context, metric string, from, to time.Time) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("metric", metric)
	q.Set("from", from.UTC().Format(time.RFC3339))
	q.Set("to", to.UTC().Format(time.RFC3339))

	var out json.RawMessage
	if err := c.cachedGetJSON(ctx, usageSeriesPath+"?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return out, nil
}
