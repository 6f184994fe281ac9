package drk7

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/couchcryptid/weather-notify/internal/observability"
)

// DocumentFetcher returns the raw forecast document for a prefecture.
type DocumentFetcher interface {
	FetchPrefecture(ctx context.Context, prefectureID string) ([]byte, error)
}

// CachedFetcher memoizes prefecture documents so that locations sharing a
// prefecture download it once per run.
type CachedFetcher struct {
	inner   DocumentFetcher
	docs    *lru.Cache[string, []byte]
	metrics *observability.Metrics
}

// NewCachedFetcher wraps inner with a cache holding at most maxEntries
// documents. Values below 1 are treated as 1.
func NewCachedFetcher(inner DocumentFetcher, maxEntries int, metrics *observability.Metrics) *CachedFetcher {
	docs, err := lru.New[string, []byte](max(maxEntries, 1))
	if err != nil {
		// lru.New only fails on a non-positive size.
		panic(err)
	}
	return &CachedFetcher{inner: inner, docs: docs, metrics: metrics}
}

func (c *CachedFetcher) FetchPrefecture(ctx context.Context, prefectureID string) ([]byte, error) {
	if doc, ok := c.docs.Get(prefectureID); ok {
		c.metrics.ForecastCache.WithLabelValues("hit").Inc()
		return doc, nil
	}
	c.metrics.ForecastCache.WithLabelValues("miss").Inc()

	doc, err := c.inner.FetchPrefecture(ctx, prefectureID)
	if err != nil {
		// Failures are not cached so the next location in the prefecture retries.
		return nil, err
	}
	c.docs.Add(prefectureID, doc)
	return doc, nil
}
