package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/weather-notify/internal/domain"
)

// AppName names the XDG state directory.
const AppName = "weather-notify"

// DefaultSettingsPath is used when neither --config nor CONFIG_PATH is set.
const DefaultSettingsPath = "config/settings.json"

// Config holds the settings file contents plus environment-driven settings.
type Config struct {
	SettingsPath string

	Locations            []domain.Location
	RainNotify           domain.NotifyConfig
	WeatherNotifyEnabled bool

	SlackWebhookURL string
	SlackTimeout    time.Duration

	ForecastBaseURL   string
	ForecastTimeout   time.Duration
	ForecastCacheSize int

	// History (dedup) store.
	HistoryDir       string
	HistoryRetention time.Duration

	// TimeZone defines the calendar day used for dedup.
	TimeZone *time.Location

	MetricsTextfile string
	LogLevel        string
	LogFormat       string
}

// Load reads the settings file at path and the environment, applying defaults
// where unset. An empty path falls back to CONFIG_PATH, then
// DefaultSettingsPath. The webhook URL is only required when dryRun is false.
// Every returned error wraps domain.ErrConfig.
func Load(path string, dryRun bool) (*Config, error) {
	if path == "" {
		path = sharedcfg.EnvOrDefault("CONFIG_PATH", DefaultSettingsPath)
	}

	settings, err := loadSettings(path)
	if err != nil {
		return nil, err
	}

	slackTimeout, err := parsePositiveDuration("SLACK_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	forecastTimeout, err := parsePositiveDuration("FORECAST_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	retention, err := parsePositiveDuration("HISTORY_RETENTION", "168h")
	if err != nil {
		return nil, err
	}

	tzName := sharedcfg.EnvOrDefault("TIMEZONE", "Asia/Tokyo")
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid TIMEZONE %q: %w", domain.ErrConfig, tzName, err)
	}

	cfg := &Config{
		SettingsPath:         path,
		Locations:            settings.locations,
		RainNotify:           settings.rainNotify,
		WeatherNotifyEnabled: settings.weatherNotify,

		SlackWebhookURL: os.Getenv("SLACK_WEBHOOK_URL"),
		SlackTimeout:    slackTimeout,

		ForecastBaseURL:   sharedcfg.EnvOrDefault("FORECAST_BASE_URL", "https://www.drk7.jp/weather/xml"),
		ForecastTimeout:   forecastTimeout,
		ForecastCacheSize: parseCacheSize(),

		HistoryDir:       sharedcfg.EnvOrDefault("HISTORY_DIR", filepath.Join(xdg.StateHome, AppName, "history")),
		HistoryRetention: retention,

		TimeZone: tz,

		MetricsTextfile: os.Getenv("METRICS_TEXTFILE"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "text"),
	}

	if !dryRun && cfg.SlackWebhookURL == "" {
		return nil, fmt.Errorf("%w: SLACK_WEBHOOK_URL is not set", domain.ErrConfig)
	}
	if cfg.ForecastBaseURL == "" {
		return nil, fmt.Errorf("%w: FORECAST_BASE_URL is empty", domain.ErrConfig)
	}

	return cfg, nil
}

// settingsFile mirrors the settings document, which is JSON or YAML
// depending on the file extension.
type settingsFile struct {
	Locations     []locationEntry     `json:"locations" yaml:"locations"`
	RainNotify    *rainNotifyEntry    `json:"rain_notify" yaml:"rain_notify"`
	WeatherNotify *weatherNotifyEntry `json:"weather_notify" yaml:"weather_notify"`
}

type rainNotifyEntry struct {
	Enabled   *bool `json:"enabled" yaml:"enabled"`
	Threshold *int  `json:"threshold" yaml:"threshold"`
}

type weatherNotifyEntry struct {
	Enabled *bool `json:"enabled" yaml:"enabled"`
}

type locationEntry struct {
	ID           string       `json:"id" yaml:"id"`
	Name         string       `json:"name" yaml:"name"`
	PrefectureID prefectureID `json:"prefecture_id" yaml:"prefecture_id"`
	AreaID       string       `json:"area_id" yaml:"area_id"`
}

// prefectureID accepts a JSON string or number, keeping the literal text.
// YAML scalars decode into it as plain strings.
type prefectureID string

func (p *prefectureID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = prefectureID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("prefecture_id must be a string or number, got %s", data)
	}
	*p = prefectureID(n.String())
	return nil
}

type settings struct {
	locations     []domain.Location
	rainNotify    domain.NotifyConfig
	weatherNotify bool
}

func loadSettings(path string) (settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings{}, fmt.Errorf("%w: settings file not found: %s", domain.ErrConfig, path)
		}
		return settings{}, fmt.Errorf("%w: read settings: %w", domain.ErrConfig, err)
	}

	file, err := decodeSettings(path, data)
	if err != nil {
		return settings{}, fmt.Errorf("%w: parse settings %s: %w", domain.ErrConfig, path, err)
	}

	locations, err := validateLocations(file.Locations)
	if err != nil {
		return settings{}, err
	}

	rain := domain.DefaultNotifyConfig()
	if file.RainNotify != nil {
		if file.RainNotify.Enabled != nil {
			rain.Enabled = *file.RainNotify.Enabled
		}
		if file.RainNotify.Threshold != nil {
			rain.Threshold = *file.RainNotify.Threshold
		}
	}
	if rain.Threshold < 0 || rain.Threshold > 100 {
		return settings{}, fmt.Errorf("%w: rain_notify.threshold must be between 0 and 100, got %d", domain.ErrConfig, rain.Threshold)
	}

	weather := true
	if file.WeatherNotify != nil && file.WeatherNotify.Enabled != nil {
		weather = *file.WeatherNotify.Enabled
	}

	return settings{locations: locations, rainNotify: rain, weatherNotify: weather}, nil
}

// decodeSettings uses yaml.v3 for .yaml and .yml files and encoding/json
// for everything else.
func decodeSettings(path string, data []byte) (settingsFile, error) {
	var file settingsFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err := yaml.Unmarshal(data, &file)
		return file, err
	default:
		if len(bytes.TrimSpace(data)) == 0 {
			return file, nil
		}
		err := json.Unmarshal(data, &file)
		return file, err
	}
}

func validateLocations(entries []locationEntry) ([]domain.Location, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: locations is required", domain.ErrConfig)
	}

	seen := make(map[string]bool, len(entries))
	locations := make([]domain.Location, 0, len(entries))
	for i, e := range entries {
		var missing []string
		if e.ID == "" {
			missing = append(missing, "id")
		}
		if e.Name == "" {
			missing = append(missing, "name")
		}
		if e.PrefectureID == "" {
			missing = append(missing, "prefecture_id")
		}
		if e.AreaID == "" {
			missing = append(missing, "area_id")
		}
		if len(missing) > 0 {
			return nil, fmt.Errorf("%w: locations[%d] is missing required keys %v", domain.ErrConfig, i, missing)
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("%w: duplicate location id %q", domain.ErrConfig, e.ID)
		}
		seen[e.ID] = true

		locations = append(locations, domain.Location{
			ID:           e.ID,
			Name:         e.Name,
			PrefectureID: string(e.PrefectureID),
			AreaID:       e.AreaID,
		})
	}
	return locations, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	s := sharedcfg.EnvOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", domain.ErrConfig, key, s)
	}
	return d, nil
}

// parseCacheSize defaults to 47, one entry per prefecture.
func parseCacheSize() int {
	if s := os.Getenv("FORECAST_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 47
}
