package session

import (
	"fmt"

	"weathermap/internal/i18n"
	"weathermap/internal/models"
	"weathermap/internal/units"
)

// View is the display-ready projection of one weather bundle in one
// language.
type View struct {
	PlaceName   string
	Temperature string
	Description string
	Humidity    string
	Wind        string
	Labels      i18n.Table
	RTL         bool

	// Forecast lists the next few samples, Daily the per-date reduction.
	Forecast []ForecastRow
	Daily    []DailyRow
}

// ForecastRow is one upcoming sample line.
type ForecastRow struct {
	Time        string
	Temperature string
	Description string
	Wind        string
}

// DailyRow is one per-date summary line.
type DailyRow struct {
	Date        string
	TempRange   string
	Description string
	Wind        string
}

func buildView(bundle models.WeatherBundle, lang i18n.Lang) View {
	table := i18n.T(lang)
	current := bundle.Current

	wind := fmt.Sprintf("%d %s %s %s",
		current.WindSpeedKmh, table.Kmh, table.BlowingFrom, current.WindCompass)
	if current.HasGust() {
		wind = fmt.Sprintf("%s, %s %d %s",
			wind, table.GustsUpTo, units.KmhFromMs(current.WindGustMs), table.Kmh)
	}

	view := View{
		PlaceName:   current.PlaceName,
		Temperature: units.FormatTemp(current.TemperatureC) + table.Celsius,
		Description: current.Description,
		Humidity:    fmt.Sprintf("%.0f%s", current.HumidityPct, table.Percent),
		Wind:        wind,
		Labels:      table,
		RTL:         lang.RTL(),
	}

	rows := bundle.Forecast
	if len(rows) > forecastRowCount {
		rows = rows[:forecastRowCount]
	}
	for _, sample := range rows {
		view.Forecast = append(view.Forecast, ForecastRow{
			Time:        sample.Timestamp.UTC().Format("15:04"),
			Temperature: units.FormatTemp(sample.TempC) + table.Celsius,
			Description: sample.Description,
			Wind:        fmt.Sprintf("%d %s %s", units.KmhFromMs(sample.WindSpeedMs), table.Kmh, units.Compass(sample.WindDegrees)),
		})
	}

	for _, day := range bundle.Daily {
		view.Daily = append(view.Daily, DailyRow{
			Date:        day.DateKey,
			TempRange:   units.FormatRange(day.MinC, day.MaxC) + table.Celsius,
			Description: day.DominantDescription,
			Wind:        fmt.Sprintf("%d %s", day.AvgWindKmh, table.Kmh),
		})
	}

	return view
}
