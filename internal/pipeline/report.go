package pipeline

import "github.com/couchcryptid/weather-notify/internal/domain"

// Status is the outcome of one notification kind for one location.
type Status string

const (
	StatusNotified        Status = "notified"
	StatusWouldNotify     Status = "would_notify"
	StatusAlreadyNotified Status = "already_notified"
	StatusNoAlert         Status = "no_alert"
	StatusFetchError      Status = "fetch_error"
	StatusSendError       Status = "send_error"
	StatusDisabled        Status = "disabled"
)

// allStatuses fixes the order of summary log attributes.
var allStatuses = []Status{
	StatusNotified,
	StatusWouldNotify,
	StatusAlreadyNotified,
	StatusNoAlert,
	StatusFetchError,
	StatusSendError,
	StatusDisabled,
}

// Result records what happened for a location. Kind is empty for fetch
// errors and for a disabled run.
type Result struct {
	LocationID string
	Kind       domain.Kind
	Status     Status
	Err        error
}

// Report collects the results of one run.
type Report struct {
	Locations int
	Results   []Result
}

func (r *Report) add(res Result) {
	r.Results = append(r.Results, res)
}

// Count returns how many results have status s.
func (r Report) Count(s Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == s {
			n++
		}
	}
	return n
}

// Failed reports whether the run should exit non-zero: every location
// failed to fetch, or any webhook post failed.
func (r Report) Failed() bool {
	if r.Count(StatusSendError) > 0 {
		return true
	}
	return r.Locations > 0 && r.Count(StatusFetchError) == r.Locations
}

func (r Report) logAttrs() []any {
	attrs := make([]any, 0, 2*len(allStatuses))
	for _, s := range allStatuses {
		if n := r.Count(s); n > 0 {
			attrs = append(attrs, string(s), n)
		}
	}
	return attrs
}
