// Package weather fetches and assembles everything the result panel needs
// for one coordinate: current conditions, the forecast series, and the
// reverse-geocoded place name.
package weather

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"weathermap/internal/i18n"
	"weathermap/internal/models"
	"weathermap/internal/units"
	"weathermap/pkg/logger"
)

// ProxyAPI is the slice of the proxy client the aggregator consumes.
type ProxyAPI interface {
	CurrentWeather(ctx context.Context, coord models.Coordinate, lang string) (json.RawMessage, error)
	Forecast(ctx context.Context, coord models.Coordinate, lang string) (json.RawMessage, error)
	CityName(ctx context.Context, coord models.Coordinate, lang string) (json.RawMessage, error)
}

// Aggregator runs the three proxy calls for a coordinate concurrently and
// merges their payloads into one WeatherBundle.
type Aggregator struct {
	api ProxyAPI
	l   *logger.Logger
}

func NewAggregator(api ProxyAPI, l *logger.Logger) *Aggregator {
	return &Aggregator{api: api, l: l}
}

// Fetch loads current weather, forecast, and place name for a coordinate.
// All three requests start together and all must succeed; when several fail
// the reported error is the current-weather one first, then forecast, then
// geocoding. searchName, when non-empty, overrides every geocoded name.
func (a *Aggregator) Fetch(ctx context.Context, coord models.Coordinate, lang i18n.Lang, searchName string) (models.WeatherBundle, error) {
	coord = coord.Clamped()
	fetchID := uuid.NewString()

	a.l.Info("fetching weather bundle", map[string]any{
		"fetch_id": fetchID,
		"lat":      coord.Lat,
		"lng":      coord.Lng,
		"lang":     string(lang),
	})

	var (
		wg sync.WaitGroup

		currentRaw, forecastRaw, geocodeRaw json.RawMessage
		currentErr, forecastErr, geocodeErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		currentRaw, currentErr = a.api.CurrentWeather(ctx, coord, string(lang))
	}()
	go func() {
		defer wg.Done()
		forecastRaw, forecastErr = a.api.Forecast(ctx, coord, string(lang))
	}()
	go func() {
		defer wg.Done()
		geocodeRaw, geocodeErr = a.api.CityName(ctx, coord, string(lang))
	}()
	wg.Wait()

	for _, e := range []error{currentErr, forecastErr, geocodeErr} {
		if e != nil {
			a.l.Error(e, map[string]any{"fetch_id": fetchID})
			return models.WeatherBundle{}, e
		}
	}

	current, err := parseCurrent(currentRaw)
	if err != nil {
		return models.WeatherBundle{}, err
	}

	samples, err := parseForecast(forecastRaw)
	if err != nil {
		return models.WeatherBundle{}, err
	}

	current.PlaceName = placeName(searchName, geocodeRaw, current.PlaceName)

	bundle := models.WeatherBundle{
		Coordinate: coord,
		Current:    current,
		Forecast:   samples,
		Daily:      GroupByDay(samples),
	}

	a.l.Debug("weather bundle assembled", map[string]any{
		"fetch_id":   fetchID,
		"place_name": bundle.Current.PlaceName,
		"samples":    len(samples),
	})

	return bundle, nil
}

// currentPayload mirrors the OpenWeather current-conditions shape.
type currentPayload struct {
	Name string `json:"name"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   float64 `json:"deg"`
		Gust  float64 `json:"gust"`
	} `json:"wind"`
}

func parseCurrent(raw json.RawMessage) (models.CurrentConditions, error) {
	var payload currentPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return models.CurrentConditions{}, errors.Wrap(err, "failed to parse current weather")
	}

	current := models.CurrentConditions{
		PlaceName:    payload.Name,
		TemperatureC: payload.Main.Temp,
		HumidityPct:  payload.Main.Humidity,
		WindSpeedMs:  payload.Wind.Speed,
		WindDegrees:  payload.Wind.Deg,
		WindGustMs:   payload.Wind.Gust,
		WindSpeedKmh: units.KmhFromMs(payload.Wind.Speed),
		WindCompass:  units.Compass(payload.Wind.Deg),
	}
	if len(payload.Weather) > 0 {
		current.Description = payload.Weather[0].Description
	}

	return current, nil
}

// forecastPayload mirrors the OpenWeather 5-day/3-hour forecast shape.
type forecastPayload struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp    float64 `json:"temp"`
			TempMin float64 `json:"temp_min"`
			TempMax float64 `json:"temp_max"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
		Wind struct {
			Speed float64 `json:"speed"`
			Deg   float64 `json:"deg"`
		} `json:"wind"`
	} `json:"list"`
}

func parseForecast(raw json.RawMessage) ([]models.ForecastSample, error) {
	var payload forecastPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.Wrap(err, "failed to parse forecast")
	}

	samples := make([]models.ForecastSample, 0, len(payload.List))
	for _, item := range payload.List {
		sample := models.ForecastSample{
			Timestamp:   time.Unix(item.Dt, 0).UTC(),
			TempC:       item.Main.Temp,
			TempMinC:    item.Main.TempMin,
			TempMaxC:    item.Main.TempMax,
			WindSpeedMs: item.Wind.Speed,
			WindDegrees: item.Wind.Deg,
		}
		if len(item.Weather) > 0 {
			sample.Description = item.Weather[0].Description
		}
		samples = append(samples, sample)
	}

	return samples, nil
}

// placeName picks the displayed name: a committed search name wins, then the
// reverse-geocoded city, town, and village in that order, then the name the
// weather provider attached. Empty fields are skipped.
func placeName(searchName string, geocodeRaw json.RawMessage, providerName string) string {
	if searchName != "" {
		return searchName
	}

	var payload struct {
		Address struct {
			City    string `json:"city"`
			Town    string `json:"town"`
			Village string `json:"village"`
		} `json:"address"`
	}
	// A malformed geocode body falls through to the provider name.
	_ = json.Unmarshal(geocodeRaw, &payload)

	for _, candidate := range []string{payload.Address.City, payload.Address.Town, payload.Address.Village} {
		if candidate != "" {
			return candidate
		}
	}
	return providerName
}
