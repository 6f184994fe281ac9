package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-notify/internal/adapter/badger"
	"github.com/couchcryptid/weather-notify/internal/adapter/drk7"
	"github.com/couchcryptid/weather-notify/internal/adapter/slack"
	"github.com/couchcryptid/weather-notify/internal/dedup"
	"github.com/couchcryptid/weather-notify/internal/domain"
	"github.com/couchcryptid/weather-notify/internal/observability"
	"github.com/couchcryptid/weather-notify/internal/pipeline"
)

const tokyoXML = `<?xml version="1.0" encoding="UTF-8" ?>
<weatherforecast>
  <pref id="東京都">
    <area id="東京地方">
      <info date="2026/01/09">
        <weather>くもり時々雨</weather>
        <weather_detail>くもり　昼前　から　雨</weather_detail>
        <rainfallchance unit="%">
          <period hour="00-06">10</period>
          <period hour="06-12">50</period>
          <period hour="12-18">60</period>
          <period hour="18-24">30</period>
        </rainfallchance>
      </info>
    </area>
  </pref>
</weatherforecast>`

var tokyoHQ = domain.Location{ID: "tokyo_hq", Name: "本社（東京）", PrefectureID: "13", AreaID: "東京地方"}

// webhookRecorder is a fake Slack incoming webhook.
type webhookRecorder struct {
	mu    sync.Mutex
	texts []string
	fail  atomic.Bool
}

func (w *webhookRecorder) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	if w.fail.Load() {
		rw.WriteHeader(http.StatusInternalServerError)
		return
	}
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		rw.WriteHeader(http.StatusBadRequest)
		return
	}
	w.mu.Lock()
	w.texts = append(w.texts, body.Text)
	w.mu.Unlock()
	_, _ = rw.Write([]byte("ok"))
}

func (w *webhookRecorder) calls() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.texts...)
}

type harness struct {
	forecastSrv *httptest.Server
	webhookSrv  *httptest.Server
	webhook     *webhookRecorder
	store       *badger.Store
	guard       *dedup.Guard
	logger      *slog.Logger
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	forecastSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/13.xml" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(tokyoXML))
	}))
	t.Cleanup(forecastSrv.Close)

	recorder := &webhookRecorder{}
	webhookSrv := httptest.NewServer(recorder)
	t.Cleanup(webhookSrv.Close)

	store, err := badger.Open(badger.Options{InMemory: true, Retention: time.Hour})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tz, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	return &harness{
		forecastSrv: forecastSrv,
		webhookSrv:  webhookSrv,
		webhook:     recorder,
		store:       store,
		guard:       dedup.NewGuard(store, tz, observability.NewMetrics(), logger),
		logger:      logger,
	}
}

func (h *harness) run(t *testing.T, dryRun bool, out io.Writer) pipeline.Report {
	t.Helper()
	metrics := observability.NewMetrics()
	client := drk7.NewClient(h.forecastSrv.URL, 5*time.Second, metrics, h.logger)
	fetcher := drk7.NewForecastClient(drk7.NewCachedFetcher(client, 4, metrics))
	sender := slack.NewSender(h.webhookSrv.URL, 5*time.Second, dryRun, out, h.logger)

	p := pipeline.New(fetcher, sender, h.guard, h.logger, metrics, pipeline.Options{
		RainNotify:    domain.NotifyConfig{Enabled: true, Threshold: 40},
		WeatherNotify: true,
	})
	return p.Run(context.Background(), []domain.Location{tokyoHQ})
}

func TestNotifyPipeline_SendsOncePerDay(t *testing.T) {
	h := newHarness(t)

	report := h.run(t, false, io.Discard)
	assert.False(t, report.Failed())
	assert.Equal(t, 1, report.Count(pipeline.StatusNotified))

	calls := h.webhook.calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0], "本社（東京）")
	assert.Contains(t, calls[0], "| 06-12時 | 50% |")
	assert.Contains(t, calls[0], "| 12-18時 | 60% |")
	assert.NotContains(t, calls[0], "00-06時")
	assert.True(t, h.guard.HasNotifiedToday(domain.KindRain, tokyoHQ.ID))

	keys, err := h.store.Keys("notified/rain/tokyo_hq/")
	require.NoError(t, err)
	assert.Len(t, keys, 1)

	second := h.run(t, false, io.Discard)
	assert.False(t, second.Failed())
	assert.Equal(t, 1, second.Count(pipeline.StatusAlreadyNotified))
	assert.Len(t, h.webhook.calls(), 1, "second run must not post again")
}

func TestNotifyPipeline_DryRun(t *testing.T) {
	h := newHarness(t)
	var out strings.Builder

	report := h.run(t, true, &out)
	assert.False(t, report.Failed())
	assert.Equal(t, 1, report.Count(pipeline.StatusWouldNotify))

	assert.Empty(t, h.webhook.calls())
	assert.Contains(t, out.String(), "本社（東京）")
	assert.Contains(t, out.String(), "| 12-18時 | 60% |")
	assert.False(t, h.guard.HasNotifiedToday(domain.KindRain, tokyoHQ.ID))

	// A real run afterwards still notifies.
	h.run(t, false, io.Discard)
	assert.Len(t, h.webhook.calls(), 1)
}

func TestNotifyPipeline_WebhookFailureIsRetriedNextRun(t *testing.T) {
	h := newHarness(t)
	h.webhook.fail.Store(true)

	report := h.run(t, false, io.Discard)
	assert.True(t, report.Failed())
	assert.Equal(t, 1, report.Count(pipeline.StatusSendError))
	assert.False(t, h.guard.HasNotifiedToday(domain.KindRain, tokyoHQ.ID))

	h.webhook.fail.Store(false)
	report = h.run(t, false, io.Discard)
	assert.False(t, report.Failed())
	assert.Len(t, h.webhook.calls(), 1)
}
