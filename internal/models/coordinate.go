package models

import (
	"fmt"

	"weathermap/internal/units"
)

// Coordinate is a (latitude, longitude) pair identifying a point of interest.
// It is ephemeral: held only in session state and the URL query string.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NewCoordinate builds a Coordinate clamped to valid ranges.
func NewCoordinate(lat, lng float64) Coordinate {
	return Coordinate{
		Lat: units.ClampLat(lat),
		Lng: units.ClampLng(lng),
	}
}

// Clamped returns a copy with both components forced into valid ranges.
func (c Coordinate) Clamped() Coordinate {
	return NewCoordinate(c.Lat, c.Lng)
}

// String renders the coordinate in the canonical 6-decimal form used in the
// URL query string.
func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lng)
}
