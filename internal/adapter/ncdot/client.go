package ncdot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/samuelramdial/cumberland-storm-status/internal/domain"
	"github.com/samuelramdial/cumberland-storm-status/internal/observability"
)

// DefaultBaseURL is the production NCDOT traffic feed.
const DefaultBaseURL = "https://eapps.ncdot.gov/services/traffic-prod/v1"

// Client fetches raw incidents and the county directory from the NCDOT feed.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an NCDOT feed client.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// CountyIncidents returns the recent incident records for one county. Records
// are left undecoded beyond the JSON tree; field probing happens in
// domain.Normalize.
func (c *Client) CountyIncidents(ctx context.Context, countyID int) ([]domain.RawIncident, error) {
	u := fmt.Sprintf("%s/counties/%d/incidents?verbose=true&recent=true", c.baseURL, countyID)
	var incidents []domain.RawIncident
	if err := c.getJSON(ctx, u, "incidents", &incidents); err != nil {
		return nil, err
	}
	return incidents, nil
}

// Counties returns the county directory used for name resolution.
func (c *Client) Counties(ctx context.Context) ([]domain.County, error) {
	var counties []domain.County
	if err := c.getJSON(ctx, c.baseURL+"/counties", "counties", &counties); err != nil {
		return nil, err
	}
	return counties, nil
}

func (c *Client) getJSON(ctx context.Context, fullURL, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.FeedRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.FeedRequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.metrics.FeedRequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("ncdot API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		c.metrics.FeedRequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}

	c.metrics.FeedRequests.WithLabelValues(endpoint, "success").Inc()
	return nil
}
