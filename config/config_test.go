package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cnf, err := NewConfigFromFile("nonexistent.yaml")
	require.NoError(t, err)

	assert.Equal(t, "weathermap", cnf.AppName)
	assert.Equal(t, "1.0.0", cnf.AppVersion)
	assert.Equal(t, "development", cnf.AppEnv)
	assert.Equal(t, "3000", cnf.Port)
	assert.Equal(t, "en", cnf.DefaultLang)
	assert.Equal(t, "https://api.openweathermap.org/data/2.5", cnf.Upstream.OpenWeatherBaseURL)
	assert.Equal(t, "https://nominatim.openstreetmap.org", cnf.Upstream.NominatimBaseURL)
	assert.Equal(t, "http://ip-api.com", cnf.Upstream.IPLocationBaseURL)
	assert.Equal(t, 10*time.Second, cnf.Upstream.Timeout())
	assert.True(t, cnf.IsDevelopment())
	assert.False(t, cnf.IsProduction())
}

func TestNewConfigEnvOverride(t *testing.T) {
	t.Setenv("APP_NAME", "weathermap-test")
	t.Setenv("APP_VERSION", "2.1.3")
	t.Setenv("PORT", "9090")
	t.Setenv("DEFAULT_LANG", "he")
	t.Setenv("OPENWEATHER_API_KEY", "test-key")

	cnf, err := NewConfigFromFile("nonexistent.yaml")
	require.NoError(t, err)

	assert.Equal(t, "weathermap-test", cnf.AppName)
	assert.Equal(t, "2.1.3", cnf.AppVersion)
	assert.Equal(t, "9090", cnf.Port)
	assert.Equal(t, "he", cnf.DefaultLang)
	assert.Equal(t, "test-key", cnf.Upstream.OpenWeatherAPIKey)
}

func TestNewConfigFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
upstream:
  openweather_api_key: yaml-key
  openweather_base_url: http://localhost:9999/ow
  timeout_seconds: 5
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cnf, err := NewConfigFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "yaml-key", cnf.Upstream.OpenWeatherAPIKey)
	assert.Equal(t, "http://localhost:9999/ow", cnf.Upstream.OpenWeatherBaseURL)
	assert.Equal(t, 5*time.Second, cnf.Upstream.Timeout())
	// Defaults still fill in whatever the file omits.
	assert.Equal(t, "https://nominatim.openstreetmap.org", cnf.Upstream.NominatimBaseURL)
}

func TestNewConfigInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":\nnot yaml::"), 0o644))

	_, err := NewConfigFromFile(path)
	assert.Error(t, err)
}
