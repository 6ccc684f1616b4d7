package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all service settings, layered from the YAML file and then
// overridden by environment variables.
type Config struct {
	AppName    string `envconfig:"APP_NAME" default:"weathermap"`
	AppVersion string `envconfig:"APP_VERSION" default:"1.0.0"`
	AppEnv     string `envconfig:"APP_ENV" default:"development"`
	Port       string `envconfig:"PORT" default:"3000"`

	// DefaultLang is used when a request carries no lang parameter.
	DefaultLang string `envconfig:"DEFAULT_LANG" default:"en"`

	SentryDSN string `envconfig:"SENTRY_DSN" yaml:"sentry_dsn"`

	// PrefsPath is where the session preference mirror is persisted.
	PrefsPath string `envconfig:"PREFS_PATH" default:".weathermap/prefs.json"`

	Upstream UpstreamConfig `yaml:"upstream"`
}

// UpstreamConfig addresses the proxied third-party providers. Base URLs
// default in code so YAML values survive the env override pass.
type UpstreamConfig struct {
	OpenWeatherAPIKey  string `envconfig:"OPENWEATHER_API_KEY" yaml:"openweather_api_key"`
	OpenWeatherBaseURL string `envconfig:"OPENWEATHER_BASE_URL" yaml:"openweather_base_url"`
	NominatimBaseURL   string `envconfig:"NOMINATIM_BASE_URL" yaml:"nominatim_base_url"`
	IPLocationBaseURL  string `envconfig:"IP_LOCATION_BASE_URL" yaml:"ip_location_base_url"`

	// TimeoutSeconds bounds each upstream HTTP call.
	TimeoutSeconds int `envconfig:"UPSTREAM_TIMEOUT_SECONDS" yaml:"timeout_seconds"`
}

// Timeout returns the upstream HTTP timeout as a duration.
func (u UpstreamConfig) Timeout() time.Duration {
	return time.Duration(u.TimeoutSeconds) * time.Second
}

// NewConfig loads config/config.yaml (when present) and applies environment
// overrides.
func NewConfig() (*Config, error) {
	return NewConfigFromFile("config/config.yaml")
}

// NewConfigFromFile loads the given YAML file (missing file is fine) and
// applies environment overrides on top.
func NewConfigFromFile(path string) (*Config, error) {
	var cnf Config

	if yamlData, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(yamlData, &cnf); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	if err := envconfig.Process("", &cnf); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	cnf.applyDefaults()

	if err := cnf.validate(); err != nil {
		return nil, err
	}

	return &cnf, nil
}

func (c *Config) applyDefaults() {
	if c.Upstream.OpenWeatherBaseURL == "" {
		c.Upstream.OpenWeatherBaseURL = "https://api.openweathermap.org/data/2.5"
	}
	if c.Upstream.NominatimBaseURL == "" {
		c.Upstream.NominatimBaseURL = "https://nominatim.openstreetmap.org"
	}
	if c.Upstream.IPLocationBaseURL == "" {
		c.Upstream.IPLocationBaseURL = "http://ip-api.com"
	}
	if c.Upstream.TimeoutSeconds == 0 {
		c.Upstream.TimeoutSeconds = 10
	}
}

func (c *Config) validate() error {
	if c.AppName == "" {
		return fmt.Errorf("app_name is required")
	}
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	if c.Upstream.TimeoutSeconds <= 0 {
		return fmt.Errorf("upstream timeout must be positive")
	}
	return nil
}

// IsDevelopment reports whether the service runs in a development
// environment.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
