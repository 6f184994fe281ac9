package domain

import "errors"

// Error kinds. Adapters wrap the underlying cause with one of these so the
// pipeline can classify failures with errors.Is.
var (
	// ErrConfig marks missing or malformed configuration. Fatal for the run.
	ErrConfig = errors.New("config error")

	// ErrFetch marks a failed forecast fetch or an unparseable payload.
	// The affected location is skipped.
	ErrFetch = errors.New("forecast fetch error")

	// ErrSend marks a failed webhook post. The dedup mark is not recorded.
	ErrSend = errors.New("notification send error")

	// ErrDedupStore marks a failure reading or writing dedup state.
	// Never fatal.
	ErrDedupStore = errors.New("dedup store error")
)
