package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sony/gobreaker"

	"weathermap/internal/models"
	"weathermap/internal/units"
	"weathermap/pkg/logger"
)

// IPAPIRepository resolves an approximate position from an IP address via
// the ip-api.com JSON endpoint.
type IPAPIRepository struct {
	baseURL    string
	httpClient HTTPClient
	circuit    *gobreaker.CircuitBreaker
	l          *logger.Logger
}

func NewIPAPIRepository(baseURL string, httpClient HTTPClient, l *logger.Logger) *IPAPIRepository {
	return &IPAPIRepository{
		baseURL:    baseURL,
		httpClient: httpClient,
		circuit:    newBreaker("ip-api"),
		l:          l,
	}
}

func (r *IPAPIRepository) Name() string {
	return "ip-api"
}

// Locate looks up clientIP (or, when empty, the caller the provider sees)
// and normalizes the answer to the proxy's {lat,lng,city,country} shape.
func (r *IPAPIRepository) Locate(ctx context.Context, clientIP string) (models.IPLocation, error) {
	u := fmt.Sprintf("%s/json/%s", r.baseURL, clientIP)

	r.l.Debug("making ip-api request", map[string]any{"client_ip": clientIP})

	body, err := fetchBody(ctx, r.httpClient, r.circuit, r.Name(), u)
	if err != nil {
		return models.IPLocation{}, err
	}

	var payload struct {
		Status  string  `json:"status"`
		Message string  `json:"message"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
		City    string  `json:"city"`
		Country string  `json:"country"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return models.IPLocation{}, fmt.Errorf("failed to parse ip-api response: %w", err)
	}

	if payload.Status != "success" {
		if payload.Message != "" {
			return models.IPLocation{}, fmt.Errorf("ip-api: %s", payload.Message)
		}
		return models.IPLocation{}, fmt.Errorf("ip-api: lookup failed")
	}

	return models.IPLocation{
		Lat:     units.ClampLat(payload.Lat),
		Lng:     units.ClampLng(payload.Lon),
		City:    payload.City,
		Country: payload.Country,
		Source:  "ip",
	}, nil
}
