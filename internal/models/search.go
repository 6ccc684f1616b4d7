package models

import "strings"

// SearchResult is one geocoding match for a city search query. Ephemeral:
// produced by the search service and destroyed on selection or dismissal.
type SearchResult struct {
	Name    string  `json:"name"`
	State   string  `json:"state,omitempty"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// DisplayName joins name, optional state, and country with commas, the form
// shown in the result list and carried on selection.
func (r SearchResult) DisplayName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{r.Name, r.State, r.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Coordinate returns the result's position, clamped.
func (r SearchResult) Coordinate() Coordinate {
	return NewCoordinate(r.Lat, r.Lng)
}

// IPLocation is the normalized response of the IP geolocation fallback.
type IPLocation struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	City    string  `json:"city"`
	Country string  `json:"country"`
	Source  string  `json:"source"`
}
