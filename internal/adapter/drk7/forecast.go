package drk7

import (
	"context"

	"github.com/couchcryptid/weather-notify/internal/domain"
)

// ForecastClient resolves a location to today's forecast for its area.
type ForecastClient struct {
	documents DocumentFetcher
}

// NewForecastClient creates a ForecastClient reading documents from f.
func NewForecastClient(f DocumentFetcher) *ForecastClient {
	return &ForecastClient{documents: f}
}

// Forecast fetches the location's prefecture document and extracts its area.
// All failures wrap domain.ErrFetch.
func (c *ForecastClient) Forecast(ctx context.Context, loc domain.Location) (domain.Forecast, error) {
	doc, err := c.documents.FetchPrefecture(ctx, loc.PrefectureID)
	if err != nil {
		return domain.Forecast{}, err
	}
	return ParseForecast(doc, loc.AreaID)
}
