package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock is a package-level time source so tests can freeze time via SetClock.
// Production code uses the real clock; tests inject a fake for deterministic output.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Now returns the current time from the package clock.
func Now() time.Time {
	return clock.Now()
}

// DateLayout is the layout used for calendar-day keys, e.g. "2026-01-09".
const DateLayout = "2006-01-02"

// Today returns the current calendar day in loc formatted with DateLayout.
// A nil loc means UTC.
func Today(loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return clock.Now().In(loc).Format(DateLayout)
}
