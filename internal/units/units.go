package units

import (
	"fmt"
	"math"
)

// compassPoints is the 16-point compass rose, starting at north and
// proceeding clockwise.
var compassPoints = [16]string{
	"N", "NNE", "NE", "ENE",
	"E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW",
	"W", "WNW", "NW", "NNW",
}

// Compass maps meteorological wind degrees to a 16-point compass direction.
// Each point covers a 22.5 degree sector centered on its heading, so 359
// degrees wraps back to "N".
func Compass(degrees float64) string {
	idx := int(math.Round(degrees/22.5)) % 16
	if idx < 0 {
		idx += 16
	}
	return compassPoints[idx]
}

// KmhFromMs converts a wind speed from m/s to km/h, rounded to the nearest
// whole km/h for display.
func KmhFromMs(speedMs float64) int {
	return int(math.Round(speedMs * 3.6))
}

// KmhValue converts m/s to km/h without rounding, for averaging.
func KmhValue(speedMs float64) float64 {
	return speedMs * 3.6
}

// ClampLat forces a latitude into the valid [-90, 90] range.
func ClampLat(lat float64) float64 {
	if lat > 90 {
		return 90
	}
	if lat < -90 {
		return -90
	}
	return lat
}

// ClampLng forces a longitude into the valid [-180, 180] range.
func ClampLng(lng float64) float64 {
	if lng > 180 {
		return 180
	}
	if lng < -180 {
		return -180
	}
	return lng
}

// RoundTemp rounds a temperature to the nearest whole degree.
func RoundTemp(tempC float64) int {
	return int(math.Round(tempC))
}

// FormatTemp renders a temperature with one decimal, matching the upstream
// provider precision the panel displays.
func FormatTemp(tempC float64) string {
	return fmt.Sprintf("%.1f", tempC)
}

// FormatRange renders a min/max temperature pair as "min / max" with whole
// degrees.
func FormatRange(minC, maxC float64) string {
	return fmt.Sprintf("%d / %d", RoundTemp(minC), RoundTemp(maxC))
}
