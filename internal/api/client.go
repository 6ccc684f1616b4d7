// Package api is the typed client of the proxy server. Every client-side
// service reaches the upstream providers through it, never directly.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"weathermap/internal/models"
)

// Doer abstracts the HTTP client so tests can stub transport.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the proxy routes and decodes their envelopes.
type Client struct {
	baseURL    string
	httpClient Doer
}

func NewClient(baseURL string, httpClient Doer) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// CurrentWeather returns the provider's current-conditions JSON for a
// coordinate, untouched by the proxy.
func (c *Client) CurrentWeather(ctx context.Context, coord models.Coordinate, lang string) (json.RawMessage, error) {
	return c.getRaw(ctx, "/api/weather", coordQuery(coord, lang))
}

// Forecast returns the provider's 3-hourly forecast JSON for a coordinate.
func (c *Client) Forecast(ctx context.Context, coord models.Coordinate, lang string) (json.RawMessage, error) {
	return c.getRaw(ctx, "/api/forecast", coordQuery(coord, lang))
}

// CityName returns the reverse-geocoding JSON for a coordinate.
func (c *Client) CityName(ctx context.Context, coord models.Coordinate, lang string) (json.RawMessage, error) {
	return c.getRaw(ctx, "/api/city-name", coordQuery(coord, lang))
}

// SearchCity runs the forward city search and returns normalized results.
func (c *Client) SearchCity(ctx context.Context, query, lang string, limit int) ([]models.SearchResult, error) {
	values := url.Values{}
	values.Set("q", query)
	if lang != "" {
		values.Set("lang", lang)
	}
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}

	body, err := c.getRaw(ctx, "/api/search-city", values)
	if err != nil {
		return nil, err
	}

	var results []models.SearchResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, errors.Wrap(err, "failed to parse search results")
	}
	return results, nil
}

// IPLocation resolves the caller's approximate position from its IP.
func (c *Client) IPLocation(ctx context.Context) (models.IPLocation, error) {
	body, err := c.getRaw(ctx, "/api/ip-location", nil)
	if err != nil {
		return models.IPLocation{}, err
	}

	var loc models.IPLocation
	if err := json.Unmarshal(body, &loc); err != nil {
		return models.IPLocation{}, errors.Wrap(err, "failed to parse ip location")
	}
	return loc, nil
}

// Version returns the deployed application version.
func (c *Client) Version(ctx context.Context) (string, error) {
	body, err := c.getRaw(ctx, "/version.json", nil)
	if err != nil {
		return "", err
	}

	var payload struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", errors.Wrap(err, "failed to parse version")
	}
	return payload.Version, nil
}

func coordQuery(coord models.Coordinate, lang string) url.Values {
	coord = coord.Clamped()
	values := url.Values{}
	values.Set("lat", fmt.Sprintf("%f", coord.Lat))
	values.Set("lon", fmt.Sprintf("%f", coord.Lng))
	if lang != "" {
		values.Set("lang", lang)
	}
	return values
}

// getRaw performs a GET and returns the body for 2xx statuses. Error
// envelopes ({"error": "..."}) from the proxy become Go errors carrying the
// proxy's message.
func (c *Client) getRaw(ctx context.Context, path string, values url.Values) (json.RawMessage, error) {
	u := c.baseURL + path
	if len(values) > 0 {
		u += "?" + values.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to call %s", path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope struct {
			Error string `json:"error"`
		}
		// The proxy's message reaches the user verbatim, without the route.
		if json.Unmarshal(body, &envelope) == nil && envelope.Error != "" {
			return nil, errors.New(envelope.Error)
		}
		return nil, errors.Errorf("%s: HTTP error (status %d)", path, resp.StatusCode)
	}

	return json.RawMessage(body), nil
}
