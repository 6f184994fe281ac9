// Package domain models daily weather forecasts for monitored locations and
// the rules that decide when a Slack notification goes out.
//
// # Data Source
//
// Forecasts come from the drk7 prefecture XML feed
// (https://www.drk7.jp/weather/xml/<prefecture>.xml), a mirror of the Japan
// Meteorological Agency daily forecast. One document covers every forecast
// area of a prefecture; each area carries one <info> element per day.
// Only the first <info> (today) is used.
//
// # Forecast Conventions
//
// Rainfall chance is reported in four six-hour time blocks:
//
//	"00-06", "06-12", "12-18", "18-24"  (local time)
//
// Past blocks are reported as "-" and are read as 0%, which means they never
// trigger a notification.
//
// Weather detail is free Japanese text such as "くもり　夜　雨　所により　雷を伴う".
// Special conditions are found by keyword match against it, see
// [DetectConditions].
//
// # Notification Rules
//
//	Rain:    any block with probability >= threshold (inclusive). Threshold
//	         defaults to 40%.
//	Weather: any special-condition keyword present in the weather detail.
//
// Each kind is sent at most once per location per calendar day. The calendar
// day is evaluated in the configured time zone using the package clock, see
// [Today].
package domain
