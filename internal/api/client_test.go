package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weathermap/internal/models"
)

func TestClientCurrentWeather(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/weather", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "40.712800", q.Get("lat"))
		assert.Equal(t, "-74.006000", q.Get("lon"))
		assert.Equal(t, "en", q.Get("lang"))
		w.Write([]byte(`{"name":"New York","main":{"temp":21.3}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client())

	body, err := c.CurrentWeather(context.Background(), models.Coordinate{Lat: 40.7128, Lng: -74.0060}, "en")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"New York","main":{"temp":21.3}}`, string(body))
}

func TestClientClampsOutOfRangeCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "90.000000", q.Get("lat"))
		assert.Equal(t, "-180.000000", q.Get("lon"))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client())

	_, err := c.Forecast(context.Background(), models.Coordinate{Lat: 95, Lng: -200}, "")
	require.NoError(t, err)
}

func TestClientErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Invalid API key"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client())

	_, err := c.CityName(context.Background(), models.Coordinate{Lat: 1, Lng: 2}, "en")
	require.Error(t, err)
	assert.EqualError(t, err, "Invalid API key")
}

func TestClientNonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("bad gateway"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client())

	_, err := c.CityName(context.Background(), models.Coordinate{Lat: 1, Lng: 2}, "en")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/api/city-name")
	assert.Contains(t, err.Error(), "status 502")
}

func TestClientSearchCity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/search-city", r.URL.Path)
		assert.Equal(t, "lond", r.URL.Query().Get("q"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		w.Write([]byte(`[{"name":"London","state":"England","country":"United Kingdom","lat":51.5,"lng":-0.12}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client())

	results, err := c.SearchCity(context.Background(), "lond", "en", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "London, England, United Kingdom", results[0].DisplayName())
}

func TestClientIPLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ip-location", r.URL.Path)
		w.Write([]byte(`{"lat":32.08,"lng":34.78,"city":"Tel Aviv","country":"Israel","source":"ip"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client())

	loc, err := c.IPLocation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Tel Aviv", loc.City)
	assert.Equal(t, "ip", loc.Source)
}

func TestClientVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/version.json", r.URL.Path)
		w.Write([]byte(`{"version":"1.4.2"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client())

	v, err := c.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.4.2", v)
}
