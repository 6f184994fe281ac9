package domain

import (
	"fmt"
	"strings"
)

const tableRule = "+----------+------+"

// FormatRainMessage renders the rain notification for loc listing blocks.
// The output depends only on its inputs.
func FormatRainMessage(loc Location, cfg NotifyConfig, blocks []ForecastBlock) string {
	var b strings.Builder
	fmt.Fprintf(&b, ":umbrella_with_rain_drops: %s - 雨の可能性があります\n", loc.Name)
	b.WriteString("\n")
	fmt.Fprintf(&b, ":round_pushpin: %sの降水確率（%d%%以上）\n", loc.AreaID, cfg.Threshold)
	b.WriteString(formatRainTable(blocks))
	b.WriteString("\n\n")
	b.WriteString("傘をお忘れなく！")
	return b.String()
}

// formatRainTable renders one "| HH-HH時 | P% |" row per block inside a code fence.
func formatRainTable(blocks []ForecastBlock) string {
	lines := []string{
		"```",
		tableRule,
		"|  時間帯  | 確率 |",
		tableRule,
	}
	for _, blk := range blocks {
		lines = append(lines, fmt.Sprintf("| %s時 | %d%% |", blk.HourRange, blk.Probability))
	}
	lines = append(lines, tableRule, "```")
	return strings.Join(lines, "\n")
}

var conditionEmoji = map[string]string{
	"雷":   ":zap:",
	"雪":   ":snowflake:",
	"みぞれ": ":cloud_with_snow:",
	"あられ": ":cloud_with_snow:",
	"ひょう": ":cloud_with_snow:",
	"暴風":  ":dash:",
	"大雨":  ":rain_cloud:",
	"大雪":  ":snowflake:",
}

// FormatWeatherMessage renders the special-weather notification. The emoji
// comes from the first condition that has one, falling back to :warning:.
func FormatWeatherMessage(loc Location, detail string, conditions []string) string {
	emoji := ":warning:"
	for _, c := range conditions {
		if e, ok := conditionEmoji[c]; ok {
			emoji = e
			break
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s - %sの予報\n", emoji, loc.Name, strings.Join(conditions, "・"))
	b.WriteString("\n")
	fmt.Fprintf(&b, ":round_pushpin: %s\n", loc.AreaID)
	fmt.Fprintf(&b, "```%s```\n", detail)
	b.WriteString("\n")
	b.WriteString("お出かけの際はご注意ください。")
	return b.String()
}
