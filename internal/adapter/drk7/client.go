package drk7

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/weather-notify/internal/domain"
	"github.com/couchcryptid/weather-notify/internal/observability"
)

// maxDocumentBytes bounds a prefecture document read. Real documents are
// well under 100 KiB.
const maxDocumentBytes = 4 << 20

// Client fetches prefecture forecast documents from the drk7 XML feed.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a drk7 client. Requests that take longer than timeout
// fail with domain.ErrFetch.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		metrics: metrics,
		logger:  logger,
	}
}

// FetchPrefecture downloads the raw XML document for a prefecture, e.g. "13"
// for Tokyo.
func (c *Client) FetchPrefecture(ctx context.Context, prefectureID string) ([]byte, error) {
	u := fmt.Sprintf("%s/%s.xml", c.baseURL, url.PathEscape(prefectureID))

	start := time.Now()
	body, err := c.doRequest(ctx, u)
	c.metrics.ForecastAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ForecastRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	c.metrics.ForecastRequests.WithLabelValues("success").Inc()
	c.logger.Debug("forecast document fetched", "prefecture_id", prefectureID, "bytes", len(body))
	return body, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", domain.ErrFetch, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: forecast request: %w", domain.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: drk7 status %d: %s", domain.ErrFetch, resp.StatusCode, body)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", domain.ErrFetch, err)
	}
	return body, nil
}
