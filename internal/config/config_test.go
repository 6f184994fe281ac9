package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-notify/internal/domain"
)

const (
	testWebhookURL = "https://hooks.slack.com/services/T000/B000/XXXX"

	validSettings = `{
  "locations": [
    {"id": "tokyo_hq", "name": "本社（東京）", "prefecture_id": "13", "area_id": "東京地方"},
    {"id": "osaka", "name": "大阪支社", "prefecture_id": 27, "area_id": "大阪府"}
  ],
  "rain_notify": {"enabled": true, "threshold": 50}
}`
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SLACK_WEBHOOK_URL", testWebhookURL)
	path := writeSettings(t, `{"locations": [{"id": "tokyo_hq", "name": "本社（東京）", "prefecture_id": "13", "area_id": "東京地方"}]}`)

	cfg, err := Load(path, false)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.SettingsPath)
	assert.Equal(t, domain.NotifyConfig{Enabled: true, Threshold: 40}, cfg.RainNotify)
	assert.True(t, cfg.WeatherNotifyEnabled)
	assert.Equal(t, testWebhookURL, cfg.SlackWebhookURL)
	assert.Equal(t, 10*time.Second, cfg.SlackTimeout)
	assert.Equal(t, "https://www.drk7.jp/weather/xml", cfg.ForecastBaseURL)
	assert.Equal(t, 10*time.Second, cfg.ForecastTimeout)
	assert.Equal(t, 47, cfg.ForecastCacheSize)
	assert.Contains(t, cfg.HistoryDir, AppName)
	assert.Equal(t, 168*time.Hour, cfg.HistoryRetention)
	assert.Equal(t, "Asia/Tokyo", cfg.TimeZone.String())
	assert.Empty(t, cfg.MetricsTextfile)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_Settings(t *testing.T) {
	t.Setenv("SLACK_WEBHOOK_URL", testWebhookURL)
	path := writeSettings(t, validSettings)

	cfg, err := Load(path, false)
	require.NoError(t, err)

	require.Len(t, cfg.Locations, 2)
	assert.Equal(t, domain.Location{ID: "tokyo_hq", Name: "本社（東京）", PrefectureID: "13", AreaID: "東京地方"}, cfg.Locations[0])
	assert.Equal(t, "27", cfg.Locations[1].PrefectureID, "numeric prefecture ids are kept as text")
	assert.Equal(t, 50, cfg.RainNotify.Threshold)
}

func TestLoad_YAMLSettings(t *testing.T) {
	t.Setenv("SLACK_WEBHOOK_URL", testWebhookURL)
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
locations:
  - id: sapporo
    name: 札幌営業所
    prefecture_id: "01"
    area_id: 石狩地方
rain_notify:
  enabled: false
weather_notify:
  enabled: false
`), 0o600))

	cfg, err := Load(path, false)
	require.NoError(t, err)

	assert.Equal(t, "01", cfg.Locations[0].PrefectureID)
	assert.False(t, cfg.RainNotify.Enabled)
	assert.Equal(t, 40, cfg.RainNotify.Threshold)
	assert.False(t, cfg.WeatherNotifyEnabled)
}

func TestLoad_JSONEscapesAndDuplicateKeys(t *testing.T) {
	t.Setenv("SLACK_WEBHOOK_URL", testWebhookURL)
	path := writeSettings(t, `{"locations":[{"id":"a","name":"R\/D","prefecture_id":13,"area_id":"x","area_id":"東京地方"}]}`)

	cfg, err := Load(path, false)
	require.NoError(t, err)

	require.Len(t, cfg.Locations, 1)
	assert.Equal(t, "R/D", cfg.Locations[0].Name)
	assert.Equal(t, "13", cfg.Locations[0].PrefectureID)
	assert.Equal(t, "東京地方", cfg.Locations[0].AreaID, "last duplicate key wins")
}

func TestLoad_YAMLNumericPrefecture(t *testing.T) {
	t.Setenv("SLACK_WEBHOOK_URL", testWebhookURL)
	path := filepath.Join(t.TempDir(), "settings.yml")
	require.NoError(t, os.WriteFile(path, []byte("locations:\n  - {id: osaka, name: 大阪支社, prefecture_id: 27, area_id: 大阪府}\n"), 0o600))

	cfg, err := Load(path, false)
	require.NoError(t, err)
	assert.Equal(t, "27", cfg.Locations[0].PrefectureID)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("SLACK_WEBHOOK_URL", testWebhookURL)
	t.Setenv("SLACK_TIMEOUT", "3s")
	t.Setenv("FORECAST_BASE_URL", "http://localhost:9999/xml")
	t.Setenv("FORECAST_TIMEOUT", "2s")
	t.Setenv("FORECAST_CACHE_SIZE", "5")
	t.Setenv("HISTORY_DIR", "/tmp/history")
	t.Setenv("HISTORY_RETENTION", "48h")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("METRICS_TEXTFILE", "/tmp/weather_notify.prom")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load(writeSettings(t, validSettings), false)
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.SlackTimeout)
	assert.Equal(t, "http://localhost:9999/xml", cfg.ForecastBaseURL)
	assert.Equal(t, 2*time.Second, cfg.ForecastTimeout)
	assert.Equal(t, 5, cfg.ForecastCacheSize)
	assert.Equal(t, "/tmp/history", cfg.HistoryDir)
	assert.Equal(t, 48*time.Hour, cfg.HistoryRetention)
	assert.Equal(t, time.UTC, cfg.TimeZone)
	assert.Equal(t, "/tmp/weather_notify.prom", cfg.MetricsTextfile)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_PathFromEnv(t *testing.T) {
	t.Setenv("SLACK_WEBHOOK_URL", testWebhookURL)
	path := writeSettings(t, validSettings)
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load("", false)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.SettingsPath)
}

func TestLoad_DryRunWithoutWebhook(t *testing.T) {
	t.Setenv("SLACK_WEBHOOK_URL", "")

	cfg, err := Load(writeSettings(t, validSettings), true)
	require.NoError(t, err)
	assert.Empty(t, cfg.SlackWebhookURL)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name     string
		settings string
		env      map[string]string
		contains string
	}{
		{
			name:     "missing webhook",
			settings: validSettings,
			env:      map[string]string{"SLACK_WEBHOOK_URL": ""},
			contains: "SLACK_WEBHOOK_URL",
		},
		{
			name:     "malformed document",
			settings: `{"locations": [`,
			contains: "parse settings",
		},
		{
			name:     "prefecture id of wrong type",
			settings: `{"locations": [{"id": "a", "name": "A", "prefecture_id": true, "area_id": "東京地方"}]}`,
			contains: "prefecture_id must be a string or number",
		},
		{
			name:     "empty document",
			settings: ``,
			contains: "locations is required",
		},
		{
			name:     "no locations",
			settings: `{"locations": []}`,
			contains: "locations is required",
		},
		{
			name:     "missing keys",
			settings: `{"locations": [{"id": "tokyo_hq", "name": "本社"}]}`,
			contains: "prefecture_id area_id",
		},
		{
			name:     "duplicate ids",
			settings: `{"locations": [{"id": "a", "name": "A", "prefecture_id": "13", "area_id": "東京地方"}, {"id": "a", "name": "B", "prefecture_id": "14", "area_id": "東部"}]}`,
			contains: "duplicate location id",
		},
		{
			name:     "threshold above range",
			settings: `{"locations": [{"id": "a", "name": "A", "prefecture_id": "13", "area_id": "東京地方"}], "rain_notify": {"threshold": 101}}`,
			contains: "threshold",
		},
		{
			name:     "threshold below range",
			settings: `{"locations": [{"id": "a", "name": "A", "prefecture_id": "13", "area_id": "東京地方"}], "rain_notify": {"threshold": -1}}`,
			contains: "threshold",
		},
		{
			name:     "invalid forecast timeout",
			settings: validSettings,
			env:      map[string]string{"FORECAST_TIMEOUT": "soon"},
			contains: "FORECAST_TIMEOUT",
		},
		{
			name:     "negative slack timeout",
			settings: validSettings,
			env:      map[string]string{"SLACK_TIMEOUT": "-1s"},
			contains: "SLACK_TIMEOUT",
		},
		{
			name:     "invalid retention",
			settings: validSettings,
			env:      map[string]string{"HISTORY_RETENTION": "0s"},
			contains: "HISTORY_RETENTION",
		},
		{
			name:     "unknown time zone",
			settings: validSettings,
			env:      map[string]string{"TIMEZONE": "Mars/Olympus"},
			contains: "TIMEZONE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SLACK_WEBHOOK_URL", testWebhookURL)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(writeSettings(t, tt.settings), false)
			require.Error(t, err)
			require.ErrorIs(t, err, domain.ErrConfig)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"), true)
	require.ErrorIs(t, err, domain.ErrConfig)
	assert.Contains(t, err.Error(), "not found")
}
