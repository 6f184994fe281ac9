package domain

import "strings"

// EvaluateRain reports whether any block meets or exceeds threshold and
// returns the qualifying blocks in their original order. Empty input never
// triggers.
func EvaluateRain(blocks []ForecastBlock, threshold int) (bool, []ForecastBlock) {
	var hits []ForecastBlock
	for _, b := range blocks {
		if b.Probability >= threshold {
			hits = append(hits, b)
		}
	}
	return len(hits) > 0, hits
}

// conditionKeywords maps weather-detail keywords to display names. Order
// matters: detected conditions are reported in this order.
var conditionKeywords = []struct {
	keyword string
	display string
}{
	{"雷", "雷"},
	{"雪", "雪"},
	{"みぞれ", "みぞれ"},
	{"霙", "みぞれ"},
	{"あられ", "あられ"},
	{"霰", "あられ"},
	{"ひょう", "ひょう"},
	{"雹", "ひょう"},
	{"暴風", "暴風"},
	{"大雨", "大雨"},
	{"大雪", "大雪"},
}

// DetectConditions scans a weather detail string for special conditions
// (thunder, snow, sleet, hail, storm, heavy rain, heavy snow) and returns
// their display names without duplicates.
func DetectConditions(detail string) []string {
	var found []string
	seen := make(map[string]bool)
	for _, kw := range conditionKeywords {
		if !strings.Contains(detail, kw.keyword) || seen[kw.display] {
			continue
		}
		seen[kw.display] = true
		found = append(found, kw.display)
	}
	return found
}
