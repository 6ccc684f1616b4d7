package models

import "time"

// CurrentConditions is the assembled view of the current weather at the
// active coordinate. Raw provider units (Celsius, m/s) are kept alongside
// the display-ready derived fields.
type CurrentConditions struct {
	PlaceName    string  `json:"place_name"`
	TemperatureC float64 `json:"temperature_c"`
	Description  string  `json:"description"`
	HumidityPct  float64 `json:"humidity_pct"`
	WindSpeedMs  float64 `json:"wind_speed_ms"`
	WindDegrees  float64 `json:"wind_degrees"`
	WindGustMs   float64 `json:"wind_gust_ms,omitempty"`

	// Derived for display.
	WindSpeedKmh int    `json:"wind_speed_kmh"`
	WindCompass  string `json:"wind_compass"`
}

// HasGust reports whether the provider supplied a gust reading.
func (c CurrentConditions) HasGust() bool {
	return c.WindGustMs > 0
}

// ForecastSample is one provider time-step (typically 3-hourly).
type ForecastSample struct {
	Timestamp   time.Time `json:"timestamp"`
	TempC       float64   `json:"temp_c"`
	TempMinC    float64   `json:"temp_min_c"`
	TempMaxC    float64   `json:"temp_max_c"`
	WindSpeedMs float64   `json:"wind_speed_ms"`
	WindDegrees float64   `json:"wind_degrees"`
	Description string    `json:"description"`
}

// DateKey returns the sample's UTC calendar date in YYYY-MM-DD form, the
// grouping key for daily summaries.
func (s ForecastSample) DateKey() string {
	return s.Timestamp.UTC().Format("2006-01-02")
}

// DailyForecastSummary is the reduction of all samples sharing one UTC
// calendar date.
type DailyForecastSummary struct {
	DateKey             string  `json:"date"`
	MinC                float64 `json:"min_c"`
	MaxC                float64 `json:"max_c"`
	DominantDescription string  `json:"description"`
	AvgWindKmh          int     `json:"avg_wind_kmh"`
}

// WeatherBundle is the merged result of one aggregator fetch: current
// conditions, the flat forecast series, and its daily reduction.
type WeatherBundle struct {
	Coordinate Coordinate             `json:"coordinate"`
	Current    CurrentConditions      `json:"current"`
	Forecast   []ForecastSample       `json:"forecast"`
	Daily      []DailyForecastSummary `json:"daily"`
}
