package domain

// Location is a monitored site loaded from the settings file.
type Location struct {
	ID           string
	Name         string
	PrefectureID string
	AreaID       string
}

// DefaultRainThreshold is the rain probability (percent) used when the
// settings file does not set one.
const DefaultRainThreshold = 40

// NotifyConfig controls rain notifications.
type NotifyConfig struct {
	Enabled   bool
	Threshold int // percent, 0-100
}

// DefaultNotifyConfig returns {enabled: true, threshold: 40}.
func DefaultNotifyConfig() NotifyConfig {
	return NotifyConfig{Enabled: true, Threshold: DefaultRainThreshold}
}

// Kind identifies a notification type. Dedup state is tracked per kind.
type Kind string

const (
	KindRain    Kind = "rain"
	KindWeather Kind = "weather"
)
