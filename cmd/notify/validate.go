package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/weather-notify/internal/adapter/drk7"
	"github.com/couchcryptid/weather-notify/internal/config"
	"github.com/couchcryptid/weather-notify/internal/domain"
	"github.com/couchcryptid/weather-notify/internal/observability"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func newValidateCmd(flags *rootFlags, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the settings file against the forecast provider",
		Long: `validate loads the settings file and fetches each configured prefecture,
checking that every location's area exists in the provider's document.
No notification is sent and no history is written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd, flags, out)
		},
	}
}

func runValidate(cmd *cobra.Command, flags *rootFlags, out io.Writer) error {
	cfg, err := config.Load(flags.configPath, true)
	if err != nil {
		fmt.Fprintf(out, "FATAL: %v\n", err)
		return err
	}
	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	fetcher := drk7.NewCachedFetcher(
		drk7.NewClient(cfg.ForecastBaseURL, cfg.ForecastTimeout, metrics, logger),
		cfg.ForecastCacheSize, metrics,
	)

	fmt.Fprintf(out, "=== Settings Validation: %s ===\n\n", cfg.SettingsPath)
	fmt.Fprintf(out, "Rain notify: enabled=%t threshold=%d%%\n", cfg.RainNotify.Enabled, cfg.RainNotify.Threshold)
	fmt.Fprintf(out, "Weather notify: enabled=%t\n\n", cfg.WeatherNotifyEnabled)

	areas := &phase{name: "Forecast areas"}
	for _, loc := range cfg.Locations {
		doc, err := fetcher.FetchPrefecture(cmd.Context(), loc.PrefectureID)
		if err != nil {
			areas.errorf("%s: prefecture %s: %v", loc.ID, loc.PrefectureID, err)
			continue
		}
		forecast, err := drk7.ParseForecast(doc, loc.AreaID)
		if err != nil {
			ids, _ := drk7.AreaIDs(doc)
			areas.errorf("%s: %v (available: %v)", loc.ID, err, ids)
			continue
		}
		triggered, _ := domain.EvaluateRain(forecast.Blocks, cfg.RainNotify.Threshold)
		fmt.Fprintf(out, "  %-16s %s / %s  blocks=%d  rain_alert=%t\n",
			loc.ID, forecast.Prefecture, forecast.Area, len(forecast.Blocks), triggered)
	}

	status := "PASS"
	if !areas.passed() {
		status = fmt.Sprintf("FAIL (%d errors)", len(areas.errors))
	}
	fmt.Fprintf(out, "\n  %-42s %s\n", areas.name, status)

	if areas.passed() {
		fmt.Fprintln(out, "\nAll validations passed.")
		return nil
	}
	fmt.Fprintf(out, "\n--- %s ---\n", areas.name)
	for i, e := range areas.errors {
		fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return fmt.Errorf("%d location(s) failed validation", len(areas.errors))
}
