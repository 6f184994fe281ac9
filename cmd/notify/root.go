package main

import (
	"errors"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/weather-notify/internal/adapter/badger"
	"github.com/couchcryptid/weather-notify/internal/adapter/drk7"
	"github.com/couchcryptid/weather-notify/internal/adapter/slack"
	"github.com/couchcryptid/weather-notify/internal/config"
	"github.com/couchcryptid/weather-notify/internal/dedup"
	"github.com/couchcryptid/weather-notify/internal/observability"
	"github.com/couchcryptid/weather-notify/internal/pipeline"
)

// errRunFailed is returned when every location failed to fetch or any
// webhook post failed. Details are already logged.
var errRunFailed = errors.New("run finished with unrecovered errors")

type rootFlags struct {
	configPath string
	dryRun     bool
	force      bool
}

func newRootCmd(out io.Writer) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Post a Slack notification when rain is likely today",
		Long: `notify fetches today's forecast for every configured location and posts
to a Slack incoming webhook when any time block's rain probability reaches
the threshold, or when special weather (thunder, snow, storms) is forecast.
Each kind of notification is sent at most once per location per day.

Examples:
  notify --config config/settings.json
  notify --dry-run
  notify --force`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runNotify(cmd, flags, out)
		},
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "settings file path (default $CONFIG_PATH or "+config.DefaultSettingsPath+")")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "print notifications instead of posting them")
	cmd.Flags().BoolVar(&flags.force, "force", false, "ignore today's notification history")

	cmd.AddCommand(newValidateCmd(flags, out))
	return cmd
}

func runNotify(cmd *cobra.Command, flags *rootFlags, out io.Writer) error {
	ctx := cmd.Context()

	cfg, err := config.Load(flags.configPath, flags.dryRun)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return err
	}

	logger := observability.NewLogger(cfg).With("run_id", uuid.NewString())
	metrics := observability.NewMetrics()
	logger.Info("config loaded", "path", cfg.SettingsPath, "locations", len(cfg.Locations))

	store, err := openHistory(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("history store close error", "error", err)
		}
	}()

	client := drk7.NewClient(cfg.ForecastBaseURL, cfg.ForecastTimeout, metrics, logger)
	fetcher := drk7.NewForecastClient(drk7.NewCachedFetcher(client, cfg.ForecastCacheSize, metrics))
	sender := slack.NewSender(cfg.SlackWebhookURL, cfg.SlackTimeout, flags.dryRun, out, logger)
	guard := dedup.NewGuard(store, cfg.TimeZone, metrics, logger)

	p := pipeline.New(fetcher, sender, guard, logger, metrics, pipeline.Options{
		RainNotify:    cfg.RainNotify,
		WeatherNotify: cfg.WeatherNotifyEnabled,
		Force:         flags.force,
	})
	report := p.Run(ctx, cfg.Locations)

	if cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Warn("metrics textfile write failed", "path", cfg.MetricsTextfile, "error", err)
		}
	}

	if report.Failed() {
		logger.Error("run failed", "locations", report.Locations)
		return errRunFailed
	}
	return nil
}

// openStore is replaced in tests.
var openStore = badger.Open

// openHistory opens the persisted dedup store. If it cannot be opened the
// run continues on an in-memory store, which only risks duplicates.
func openHistory(cfg *config.Config, logger *slog.Logger) (*badger.Store, error) {
	store, err := openStore(badger.Options{Path: cfg.HistoryDir, Retention: cfg.HistoryRetention})
	if err == nil {
		return store, nil
	}
	logger.Warn("history store unavailable, duplicate notifications are possible",
		"path", cfg.HistoryDir, "error", err)

	store, err = openStore(badger.Options{InMemory: true, Retention: cfg.HistoryRetention})
	if err != nil {
		logger.Error("in-memory history store failed to open", "error", err)
		return nil, err
	}
	return store, nil
}
