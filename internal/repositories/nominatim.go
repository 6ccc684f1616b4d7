package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/sony/gobreaker"

	"weathermap/internal/models"
	"weathermap/pkg/logger"
)

const maxSearchResults = 10

// NominatimRepository proxies the OpenStreetMap Nominatim reverse-geocoding
// endpoint and serves the forward city search.
type NominatimRepository struct {
	baseURL    string
	httpClient HTTPClient
	circuit    *gobreaker.CircuitBreaker
	l          *logger.Logger
}

func NewNominatimRepository(baseURL string, httpClient HTTPClient, l *logger.Logger) *NominatimRepository {
	return &NominatimRepository{
		baseURL:    baseURL,
		httpClient: httpClient,
		circuit:    newBreaker("nominatim"),
		l:          l,
	}
}

func (n *NominatimRepository) Name() string {
	return "nominatim"
}

// ReverseGeocode passes the provider JSON through verbatim; the client picks
// city/town/village out of the address object itself.
func (n *NominatimRepository) ReverseGeocode(ctx context.Context, lat, lon float64, lang string) (json.RawMessage, error) {
	values := url.Values{}
	values.Set("format", "json")
	values.Set("lat", fmt.Sprintf("%f", lat))
	values.Set("lon", fmt.Sprintf("%f", lon))
	if lang == "" {
		lang = "en"
	}
	values.Set("accept-language", lang)

	u := fmt.Sprintf("%s/reverse?%s", n.baseURL, values.Encode())

	n.l.Debug("making nominatim reverse request", map[string]any{"lat": lat, "lon": lon, "lang": lang})

	body, err := fetchBody(ctx, n.httpClient, n.circuit, n.Name(), u)
	if err != nil {
		return nil, err
	}

	return json.RawMessage(body), nil
}

// searchItem is the subset of a Nominatim search hit the proxy consumes.
type searchItem struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// SearchCity runs a forward search and normalizes each hit by splitting its
// display_name on commas: first segment is the name, last is the country,
// and the middle (when present) the state.
func (n *NominatimRepository) SearchCity(ctx context.Context, query, lang string, limit int) ([]models.SearchResult, error) {
	if limit <= 0 || limit > maxSearchResults {
		limit = maxSearchResults
	}

	values := url.Values{}
	values.Set("format", "json")
	values.Set("q", query)
	values.Set("limit", strconv.Itoa(limit))
	if lang == "" {
		lang = "en"
	}
	values.Set("accept-language", lang)

	u := fmt.Sprintf("%s/search?%s", n.baseURL, values.Encode())

	n.l.Debug("making nominatim search request", map[string]any{"query": query, "limit": limit})

	body, err := fetchBody(ctx, n.httpClient, n.circuit, n.Name(), u)
	if err != nil {
		return nil, err
	}

	var items []searchItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	results := make([]models.SearchResult, 0, len(items))
	for _, item := range items {
		lat, latErr := strconv.ParseFloat(item.Lat, 64)
		lon, lonErr := strconv.ParseFloat(item.Lon, 64)
		if latErr != nil || lonErr != nil {
			continue
		}

		name, state, country := splitDisplayName(item.DisplayName)
		if name == "" {
			continue
		}

		results = append(results, models.SearchResult{
			Name:    name,
			State:   state,
			Country: country,
			Lat:     lat,
			Lng:     lon,
		})
	}

	return results, nil
}

// splitDisplayName breaks a Nominatim display_name into name, state, and
// country. The first comma-separated segment is the name, the last the
// country, and the second-to-last (when at least three exist) the state.
func splitDisplayName(displayName string) (name, state, country string) {
	parts := strings.Split(displayName, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	switch len(parts) {
	case 0:
		return "", "", ""
	case 1:
		return parts[0], "", ""
	case 2:
		return parts[0], "", parts[1]
	default:
		return parts[0], parts[len(parts)-2], parts[len(parts)-1]
	}
}
