package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/couchcryptid/weather-notify/internal/domain"
	"github.com/couchcryptid/weather-notify/internal/observability"
)

// ForecastFetcher returns today's forecast for a location.
type ForecastFetcher interface {
	Forecast(ctx context.Context, loc domain.Location) (domain.Forecast, error)
}

// Notifier delivers a formatted message. In dry-run mode Send makes no
// network call.
type Notifier interface {
	Send(ctx context.Context, message string) error
	DryRun() bool
}

// DedupGuard tracks which notifications were already sent today.
type DedupGuard interface {
	HasNotifiedToday(kind domain.Kind, locationID string) bool
	MarkNotified(kind domain.Kind, locationID string)
}

// Options selects which notifications run.
type Options struct {
	RainNotify    domain.NotifyConfig
	WeatherNotify bool
	// Force skips the dedup check. Successful sends are still recorded.
	Force bool
}

// Pipeline runs fetch, evaluate, format, send, and record for each location
// in order. A failure for one location never stops the next.
type Pipeline struct {
	fetcher  ForecastFetcher
	notifier Notifier
	guard    DedupGuard
	logger   *slog.Logger
	metrics  *observability.Metrics
	opts     Options
}

// New creates a Pipeline with the given stages and observability.
func New(f ForecastFetcher, n Notifier, g DedupGuard, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	return &Pipeline{
		fetcher:  f,
		notifier: n,
		guard:    g,
		logger:   logger,
		metrics:  metrics,
		opts:     opts,
	}
}

// Run processes every location sequentially and returns the per-location
// outcomes.
func (p *Pipeline) Run(ctx context.Context, locations []domain.Location) Report {
	report := Report{Locations: len(locations)}
	defer func() {
		p.metrics.LastRunTimestamp.Set(float64(domain.Now().Unix()))
	}()

	if !p.opts.RainNotify.Enabled {
		p.logger.Info("rain notifications are disabled")
		report.add(Result{Status: StatusDisabled})
		p.metrics.LocationsProcessed.WithLabelValues(string(StatusDisabled)).Inc()
		return report
	}

	p.logger.Info("pipeline started",
		"locations", len(locations),
		"threshold", p.opts.RainNotify.Threshold,
		"weather_notify", p.opts.WeatherNotify,
		"dry_run", p.notifier.DryRun(),
		"force", p.opts.Force,
	)

	for _, loc := range locations {
		for _, r := range p.processLocation(ctx, loc) {
			report.add(r)
			p.metrics.LocationsProcessed.WithLabelValues(string(r.Status)).Inc()
		}
	}

	p.logger.Info("pipeline finished", report.logAttrs()...)
	return report
}

func (p *Pipeline) processLocation(ctx context.Context, loc domain.Location) []Result {
	logger := p.logger.With("location", loc.ID)

	forecast, err := p.fetcher.Forecast(ctx, loc)
	if err != nil {
		logger.Error("forecast fetch failed, skipping location", "error", err)
		return []Result{{LocationID: loc.ID, Status: StatusFetchError, Err: err}}
	}
	logger.Info("forecast fetched",
		"name", loc.Name,
		"area", forecast.Area,
		"date", forecast.Date,
		"rainfall", formatBlocks(forecast.Blocks),
		"weather_detail", forecast.WeatherDetail,
	)

	results := []Result{p.processRain(ctx, logger, loc, forecast)}
	if p.opts.WeatherNotify {
		results = append(results, p.processWeather(ctx, logger, loc, forecast))
	}
	return results
}

func (p *Pipeline) processRain(ctx context.Context, logger *slog.Logger, loc domain.Location, forecast domain.Forecast) Result {
	logger = logger.With("kind", domain.KindRain)
	if p.alreadyNotified(domain.KindRain, loc.ID) {
		logger.Info("rain notification already sent today")
		return Result{LocationID: loc.ID, Kind: domain.KindRain, Status: StatusAlreadyNotified}
	}

	hit, blocks := domain.EvaluateRain(forecast.Blocks, p.opts.RainNotify.Threshold)
	if !hit {
		logger.Info("rain probability below threshold", "threshold", p.opts.RainNotify.Threshold)
		return Result{LocationID: loc.ID, Kind: domain.KindRain, Status: StatusNoAlert}
	}

	msg := domain.FormatRainMessage(loc, p.opts.RainNotify, blocks)
	return p.notify(ctx, logger, loc, domain.KindRain, msg)
}

func (p *Pipeline) processWeather(ctx context.Context, logger *slog.Logger, loc domain.Location, forecast domain.Forecast) Result {
	logger = logger.With("kind", domain.KindWeather)
	if p.alreadyNotified(domain.KindWeather, loc.ID) {
		logger.Info("weather notification already sent today")
		return Result{LocationID: loc.ID, Kind: domain.KindWeather, Status: StatusAlreadyNotified}
	}

	conditions := domain.DetectConditions(forecast.WeatherDetail)
	if len(conditions) == 0 {
		logger.Info("no special weather")
		return Result{LocationID: loc.ID, Kind: domain.KindWeather, Status: StatusNoAlert}
	}
	logger.Info("special weather detected", "conditions", strings.Join(conditions, ","))

	msg := domain.FormatWeatherMessage(loc, forecast.WeatherDetail, conditions)
	return p.notify(ctx, logger, loc, domain.KindWeather, msg)
}

func (p *Pipeline) alreadyNotified(kind domain.Kind, locationID string) bool {
	return !p.opts.Force && p.guard.HasNotifiedToday(kind, locationID)
}

// notify sends msg and records the dedup mark on success. Dry runs are
// never recorded, so a later real run still sends.
func (p *Pipeline) notify(ctx context.Context, logger *slog.Logger, loc domain.Location, kind domain.Kind, msg string) Result {
	if p.notifier.DryRun() {
		if err := p.notifier.Send(ctx, msg); err != nil {
			logger.Warn("dry-run output failed", "error", err)
		}
		logger.Info("would notify (dry run)")
		return Result{LocationID: loc.ID, Kind: kind, Status: StatusWouldNotify}
	}

	if err := p.notifier.Send(ctx, msg); err != nil {
		p.metrics.SendErrors.Inc()
		logger.Error("notification send failed, not recording", "error", err)
		return Result{LocationID: loc.ID, Kind: kind, Status: StatusSendError, Err: err}
	}

	p.guard.MarkNotified(kind, loc.ID)
	p.metrics.NotificationsSent.WithLabelValues(string(kind)).Inc()
	logger.Info("notification sent")
	return Result{LocationID: loc.ID, Kind: kind, Status: StatusNotified}
}

// formatBlocks renders blocks as "06-12=50%, 12-18=60%" for logs.
func formatBlocks(blocks []domain.ForecastBlock) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		parts = append(parts, fmt.Sprintf("%s=%d%%", b.HourRange, b.Probability))
	}
	return strings.Join(parts, ", ")
}
