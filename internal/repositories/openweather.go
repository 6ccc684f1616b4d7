package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/sony/gobreaker"

	"weathermap/pkg/logger"
)

// OpenWeatherRepository proxies the OpenWeatherMap current-weather and
// forecast endpoints, keeping the API key server-side.
type OpenWeatherRepository struct {
	baseURL    string
	apiKey     string
	httpClient HTTPClient
	circuit    *gobreaker.CircuitBreaker
	l          *logger.Logger
}

func NewOpenWeatherRepository(baseURL, apiKey string, httpClient HTTPClient, l *logger.Logger) *OpenWeatherRepository {
	return &OpenWeatherRepository{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
		circuit:    newBreaker("openweather"),
		l:          l,
	}
}

func (o *OpenWeatherRepository) Name() string {
	return "openweather"
}

// CurrentWeather fetches current conditions and passes the provider JSON
// through verbatim.
func (o *OpenWeatherRepository) CurrentWeather(ctx context.Context, lat, lon float64, lang string) (json.RawMessage, error) {
	return o.fetch(ctx, "/weather", lat, lon, lang)
}

// Forecast fetches the 3-hourly forecast series and passes the provider
// JSON through verbatim.
func (o *OpenWeatherRepository) Forecast(ctx context.Context, lat, lon float64, lang string) (json.RawMessage, error) {
	return o.fetch(ctx, "/forecast", lat, lon, lang)
}

func (o *OpenWeatherRepository) fetch(ctx context.Context, path string, lat, lon float64, lang string) (json.RawMessage, error) {
	if o.apiKey == "" {
		return nil, errors.New("openweather API key is not configured")
	}

	values := url.Values{}
	values.Set("lat", fmt.Sprintf("%f", lat))
	values.Set("lon", fmt.Sprintf("%f", lon))
	values.Set("appid", o.apiKey)
	values.Set("units", "metric")
	if lang != "" {
		values.Set("lang", lang)
	}

	u := fmt.Sprintf("%s%s?%s", o.baseURL, path, values.Encode())

	o.l.Debug("making openweather request", map[string]any{
		"path": path,
		"lat":  lat,
		"lon":  lon,
		"lang": lang,
	})

	body, err := fetchBody(ctx, o.httpClient, o.circuit, o.Name(), u)
	if err != nil {
		return nil, err
	}

	return json.RawMessage(body), nil
}
