package domain

// ForecastBlock is the rain probability for one time block of the day.
type ForecastBlock struct {
	HourRange   string // e.g. "06-12"
	Probability int    // percent
}

// Forecast is today's forecast for a single area.
type Forecast struct {
	Prefecture    string
	Area          string
	Date          string // as published by the provider, e.g. "2026/01/09"
	Weather       string
	WeatherDetail string
	TempMax       *int
	TempMin       *int
	Blocks        []ForecastBlock
}
