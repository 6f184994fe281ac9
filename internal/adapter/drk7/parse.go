package drk7

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/couchcryptid/weather-notify/internal/domain"
)

// drk7 XML document types.

// document accepts any root element name; the feed roots at <weatherforecast>.
type document struct {
	Pref *pref `xml:"pref"`
}

type pref struct {
	ID    string `xml:"id,attr"`
	Areas []area `xml:"area"`
}

type area struct {
	ID    string `xml:"id,attr"`
	Infos []info `xml:"info"`
}

type info struct {
	Date           string          `xml:"date,attr"`
	Weather        string          `xml:"weather"`
	WeatherDetail  string          `xml:"weather_detail"`
	Temperature    *temperature    `xml:"temperature"`
	RainfallChance *rainfallChance `xml:"rainfallchance"`
}

type temperature struct {
	Ranges []tempRange `xml:"range"`
}

type tempRange struct {
	Centigrade string `xml:"centigrade,attr"` // "max" or "min"
	Value      string `xml:",chardata"`
}

type rainfallChance struct {
	Periods []period `xml:"period"`
}

type period struct {
	Hour  string `xml:"hour,attr"` // e.g. "06-12"
	Value string `xml:",chardata"` // percent, or "-" for past blocks
}

func decodeDocument(data []byte) (document, error) {
	var doc document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return document{}, fmt.Errorf("%w: parse xml: %w", domain.ErrFetch, err)
	}
	if doc.Pref == nil {
		return document{}, fmt.Errorf("%w: pref element not found", domain.ErrFetch)
	}
	return doc, nil
}

// ParseForecast extracts today's forecast for areaID from a prefecture
// document. A missing pref, area, or info element is an error; a missing
// rainfall section yields a forecast with no blocks.
func ParseForecast(data []byte, areaID string) (domain.Forecast, error) {
	doc, err := decodeDocument(data)
	if err != nil {
		return domain.Forecast{}, err
	}

	var target *area
	for i := range doc.Pref.Areas {
		if doc.Pref.Areas[i].ID == areaID {
			target = &doc.Pref.Areas[i]
			break
		}
	}
	if target == nil {
		return domain.Forecast{}, fmt.Errorf("%w: area %q not found in %q", domain.ErrFetch, areaID, doc.Pref.ID)
	}
	if len(target.Infos) == 0 {
		return domain.Forecast{}, fmt.Errorf("%w: area %q has no info element", domain.ErrFetch, areaID)
	}

	today := target.Infos[0]
	forecast := domain.Forecast{
		Prefecture:    doc.Pref.ID,
		Area:          areaID,
		Date:          today.Date,
		Weather:       strings.TrimSpace(today.Weather),
		WeatherDetail: strings.TrimSpace(today.WeatherDetail),
	}

	if today.Temperature != nil {
		for _, r := range today.Temperature.Ranges {
			v, err := strconv.Atoi(strings.TrimSpace(r.Value))
			if err != nil {
				continue
			}
			switch r.Centigrade {
			case "max":
				forecast.TempMax = &v
			case "min":
				forecast.TempMin = &v
			}
		}
	}

	if today.RainfallChance != nil {
		for _, p := range today.RainfallChance.Periods {
			forecast.Blocks = append(forecast.Blocks, domain.ForecastBlock{
				HourRange:   p.Hour,
				Probability: parseProbability(p.Value),
			})
		}
	}

	return forecast, nil
}

// AreaIDs lists the forecast areas present in a prefecture document.
func AreaIDs(data []byte) ([]string, error) {
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(doc.Pref.Areas))
	for _, a := range doc.Pref.Areas {
		ids = append(ids, a.ID)
	}
	return ids, nil
}

// parseProbability converts a rainfall chance to percent. "-", empty, and
// non-numeric values are 0.
func parseProbability(s string) int {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}
