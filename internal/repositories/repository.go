package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"weathermap/config"
	"weathermap/internal/models"
	"weathermap/pkg/logger"
)

// HTTPClient abstracts the outbound HTTP client so tests can stub transport.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// WeatherRepository proxies the current-conditions and forecast provider.
// Payloads pass through verbatim; only transport and status failures are
// turned into errors.
type WeatherRepository interface {
	Name() string
	CurrentWeather(ctx context.Context, lat, lon float64, lang string) (json.RawMessage, error)
	Forecast(ctx context.Context, lat, lon float64, lang string) (json.RawMessage, error)
}

// GeocodeRepository proxies the reverse-geocoding provider and the forward
// city search.
type GeocodeRepository interface {
	Name() string
	ReverseGeocode(ctx context.Context, lat, lon float64, lang string) (json.RawMessage, error)
	SearchCity(ctx context.Context, query, lang string, limit int) ([]models.SearchResult, error)
}

// IPLocationRepository resolves the caller's approximate position from its
// IP address.
type IPLocationRepository interface {
	Name() string
	Locate(ctx context.Context, clientIP string) (models.IPLocation, error)
}

// Registry bundles the upstream clients the proxy routes depend on.
type Registry struct {
	Weather    WeatherRepository
	Geocode    GeocodeRepository
	IPLocation IPLocationRepository
}

// InitRepositories wires the upstream clients from configuration with a
// shared HTTP client.
func InitRepositories(cfg *config.Config, l *logger.Logger) *Registry {
	client := &http.Client{Timeout: cfg.Upstream.Timeout()}

	return &Registry{
		Weather:    NewOpenWeatherRepository(cfg.Upstream.OpenWeatherBaseURL, cfg.Upstream.OpenWeatherAPIKey, client, l),
		Geocode:    NewNominatimRepository(cfg.Upstream.NominatimBaseURL, client, l),
		IPLocation: NewIPAPIRepository(cfg.Upstream.IPLocationBaseURL, client, l),
	}
}

// newBreaker builds the circuit breaker guarding one upstream. Calls fail
// fast while the provider is down; there are no retries.
func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
}

// fetchBody performs the request through the breaker and returns the
// response body for 2xx statuses. Non-2xx responses become errors carrying
// the provider's own message when one can be extracted.
func fetchBody(ctx context.Context, client HTTPClient, cb *gobreaker.CircuitBreaker, provider, url string) ([]byte, error) {
	result, err := cb.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", "weathermap/1.0")

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to do request: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if msg := providerMessage(body); msg != "" {
				return nil, fmt.Errorf("%s: %s", provider, msg)
			}
			return nil, fmt.Errorf("%s: HTTP error (status %d)", provider, resp.StatusCode)
		}

		return body, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}

// providerMessage pulls a human-readable message out of an upstream error
// body, covering the shapes the proxied providers use.
func providerMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}
