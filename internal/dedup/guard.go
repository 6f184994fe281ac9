// Package dedup keeps notifications to at most one per kind, location, and
// calendar day.
package dedup

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/weather-notify/internal/domain"
	"github.com/couchcryptid/weather-notify/internal/observability"
)

// Store is the persisted key-value state behind a Guard.
type Store interface {
	Has(key string) (bool, error)
	Put(key string, value []byte) error
}

// Record is the value stored for each sent notification.
type Record struct {
	Date             string      `json:"date"`
	LocationID       string      `json:"location_id"`
	NotificationType domain.Kind `json:"notification_type"`
	SentAt           time.Time   `json:"sent_at"`
}

// Guard answers "already sent today?" against a Store keyed by
// (kind, location, date). Store failures never propagate: a failed read
// counts as not notified and a failed write is only logged, since a missed
// mark at worst causes one duplicate on the next run.
type Guard struct {
	store   Store
	tz      *time.Location
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewGuard creates a Guard. tz defines the calendar day.
func NewGuard(store Store, tz *time.Location, metrics *observability.Metrics, logger *slog.Logger) *Guard {
	return &Guard{store: store, tz: tz, metrics: metrics, logger: logger}
}

// Key returns the store key for a kind, location, and date.
func Key(kind domain.Kind, locationID, date string) string {
	return fmt.Sprintf("notified/%s/%s/%s", kind, locationID, date)
}

// HasNotifiedToday reports whether a kind of notification was already sent
// for locationID today.
func (g *Guard) HasNotifiedToday(kind domain.Kind, locationID string) bool {
	ok, err := g.store.Has(Key(kind, locationID, domain.Today(g.tz)))
	if err != nil {
		g.metrics.DedupStoreErrors.Inc()
		g.logger.Warn("dedup read failed, treating as not notified",
			"location", locationID, "kind", kind, "error", err)
		return false
	}
	return ok
}

// MarkNotified records that a kind of notification was sent for locationID
// today. Call only after the send succeeded.
func (g *Guard) MarkNotified(kind domain.Kind, locationID string) {
	now := domain.Now()
	rec := Record{
		Date:             now.In(g.tz).Format(domain.DateLayout),
		LocationID:       locationID,
		NotificationType: kind,
		SentAt:           now,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		g.logger.Warn("dedup record encode failed", "location", locationID, "kind", kind, "error", err)
		return
	}
	if err := g.store.Put(Key(kind, locationID, rec.Date), data); err != nil {
		g.metrics.DedupStoreErrors.Inc()
		g.logger.Warn("dedup write failed, a duplicate may be sent on the next run",
			"location", locationID, "kind", kind, "error", err)
	}
}
