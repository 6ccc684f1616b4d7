package http

import (
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"weathermap/internal/observability"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error" example:"Missing required parameter: lat"`
}

// VersionResponse represents the deployed version marker
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// coordsQuery is the validated coordinate pair common to the weather,
// forecast, and city-name routes.
type coordsQuery struct {
	Lat  float64 `validate:"gte=-90,lte=90"`
	Lon  float64 `validate:"gte=-180,lte=180"`
	Lang string
}

// bindCoords parses and validates lat/lon/lang. On failure the 400 response
// is already written and ok is false.
func (r *routes) bindCoords(c *fiber.Ctx) (coordsQuery, bool) {
	lat := c.Query("lat")
	lon := c.Query("lon")

	if lat == "" {
		c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "Missing required parameter: lat",
		})
		return coordsQuery{}, false
	}

	if lon == "" {
		c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "Missing required parameter: lon",
		})
		return coordsQuery{}, false
	}

	latFloat, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "Invalid latitude format",
		})
		return coordsQuery{}, false
	}

	lonFloat, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "Invalid longitude format",
		})
		return coordsQuery{}, false
	}

	q := coordsQuery{
		Lat:  latFloat,
		Lon:  lonFloat,
		Lang: c.Query("lang", r.defaultLang),
	}

	if err := r.validate.Struct(q); err != nil {
		msg := "Invalid coordinates"
		for _, fieldErr := range err.(validator.ValidationErrors) {
			switch fieldErr.Field() {
			case "Lat":
				msg = "Latitude must be between -90 and 90"
			case "Lon":
				msg = "Longitude must be between -180 and 180"
			}
			break
		}
		c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: msg})
		return coordsQuery{}, false
	}

	return q, true
}

// GetWeather godoc
// @Summary Get current weather
// @Description Proxies the current-conditions provider for a coordinate, passing the payload through verbatim
// @Tags Weather
// @Produce json
// @Param lat query number true "Latitude coordinate (-90 to 90)" example(40.7128)
// @Param lon query number true "Longitude coordinate (-180 to 180)" example(-74.006)
// @Param lang query string false "Description language" example(en)
// @Success 200 {object} map[string]interface{} "Provider payload"
// @Failure 400 {object} ErrorResponse "Bad request - invalid parameters"
// @Failure 500 {object} ErrorResponse "Upstream failure"
// @Router /api/weather [get]
func (r *routes) handleWeather(c *fiber.Ctx) error {
	q, ok := r.bindCoords(c)
	if !ok {
		r.metrics.ProxyRequests.WithLabelValues("weather", observability.OutcomeBadRequest).Inc()
		return nil
	}

	start := time.Now()
	body, err := r.repos.Weather.CurrentWeather(c.Context(), q.Lat, q.Lon, q.Lang)
	r.metrics.UpstreamDuration.WithLabelValues(r.repos.Weather.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		r.l.Error(err, map[string]any{"route": "weather", "lat": q.Lat, "lon": q.Lon})
		r.metrics.ProxyRequests.WithLabelValues("weather", observability.OutcomeUpstreamError).Inc()
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}

	r.metrics.ProxyRequests.WithLabelValues("weather", observability.OutcomeSuccess).Inc()
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}

// GetForecast godoc
// @Summary Get weather forecast
// @Description Proxies the 3-hourly forecast provider for a coordinate, passing the payload through verbatim
// @Tags Weather
// @Produce json
// @Param lat query number true "Latitude coordinate (-90 to 90)" example(40.7128)
// @Param lon query number true "Longitude coordinate (-180 to 180)" example(-74.006)
// @Param lang query string false "Description language" example(en)
// @Success 200 {object} map[string]interface{} "Provider payload"
// @Failure 400 {object} ErrorResponse "Bad request - invalid parameters"
// @Failure 500 {object} ErrorResponse "Upstream failure"
// @Router /api/forecast [get]
func (r *routes) handleForecast(c *fiber.Ctx) error {
	q, ok := r.bindCoords(c)
	if !ok {
		r.metrics.ProxyRequests.WithLabelValues("forecast", observability.OutcomeBadRequest).Inc()
		return nil
	}

	start := time.Now()
	body, err := r.repos.Weather.Forecast(c.Context(), q.Lat, q.Lon, q.Lang)
	r.metrics.UpstreamDuration.WithLabelValues(r.repos.Weather.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		r.l.Error(err, map[string]any{"route": "forecast", "lat": q.Lat, "lon": q.Lon})
		r.metrics.ProxyRequests.WithLabelValues("forecast", observability.OutcomeUpstreamError).Inc()
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}

	r.metrics.ProxyRequests.WithLabelValues("forecast", observability.OutcomeSuccess).Inc()
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}

// GetCityName godoc
// @Summary Reverse geocode a coordinate
// @Description Proxies the reverse-geocoding provider, passing the payload through verbatim
// @Tags Geocoding
// @Produce json
// @Param lat query number true "Latitude coordinate (-90 to 90)" example(40.7128)
// @Param lon query number true "Longitude coordinate (-180 to 180)" example(-74.006)
// @Param lang query string false "Preferred result language" example(en)
// @Success 200 {object} map[string]interface{} "Provider payload"
// @Failure 400 {object} ErrorResponse "Bad request - invalid parameters"
// @Failure 500 {object} ErrorResponse "Upstream failure"
// @Router /api/city-name [get]
func (r *routes) handleCityName(c *fiber.Ctx) error {
	q, ok := r.bindCoords(c)
	if !ok {
		r.metrics.ProxyRequests.WithLabelValues("city-name", observability.OutcomeBadRequest).Inc()
		return nil
	}

	start := time.Now()
	body, err := r.repos.Geocode.ReverseGeocode(c.Context(), q.Lat, q.Lon, q.Lang)
	r.metrics.UpstreamDuration.WithLabelValues(r.repos.Geocode.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		r.l.Error(err, map[string]any{"route": "city-name", "lat": q.Lat, "lon": q.Lon})
		r.metrics.ProxyRequests.WithLabelValues("city-name", observability.OutcomeUpstreamError).Inc()
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}

	r.metrics.ProxyRequests.WithLabelValues("city-name", observability.OutcomeSuccess).Inc()
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}

// SearchCity godoc
// @Summary Search cities by name
// @Description Forward geocoding search returning up to ten normalized matches
// @Tags Geocoding
// @Produce json
// @Param q query string true "City name query (at least 2 characters)" example(London)
// @Param lang query string false "Preferred result language" example(en)
// @Param limit query integer false "Maximum results (1-10, default 10)" example(5)
// @Success 200 {array} map[string]interface{} "Normalized matches"
// @Failure 400 {object} ErrorResponse "Bad request - invalid parameters"
// @Failure 500 {object} ErrorResponse "Upstream failure"
// @Router /api/search-city [get]
func (r *routes) handleSearchCity(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		r.metrics.ProxyRequests.WithLabelValues("search-city", observability.OutcomeBadRequest).Inc()
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "Missing required parameter: q",
		})
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			r.l.Warning("invalid limit parameter, using default", map[string]any{"provided": raw})
		} else {
			limit = parsed
		}
	}

	lang := c.Query("lang", r.defaultLang)

	start := time.Now()
	results, err := r.repos.Geocode.SearchCity(c.Context(), query, lang, limit)
	r.metrics.UpstreamDuration.WithLabelValues(r.repos.Geocode.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		r.l.Error(err, map[string]any{"route": "search-city", "query": query})
		r.metrics.ProxyRequests.WithLabelValues("search-city", observability.OutcomeUpstreamError).Inc()
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}

	r.metrics.ProxyRequests.WithLabelValues("search-city", observability.OutcomeSuccess).Inc()
	return c.JSON(results)
}

// GetIPLocation godoc
// @Summary Locate the caller by IP
// @Description Resolves an approximate position from the caller's IP address
// @Tags Geocoding
// @Produce json
// @Success 200 {object} map[string]interface{} "Normalized location"
// @Failure 500 {object} ErrorResponse "Upstream failure"
// @Router /api/ip-location [get]
func (r *routes) handleIPLocation(c *fiber.Ctx) error {
	ip := c.IP()
	// Loopback callers carry no routable address; let the provider see the
	// egress IP instead.
	if ip == "127.0.0.1" || ip == "::1" {
		ip = ""
	}

	start := time.Now()
	loc, err := r.repos.IPLocation.Locate(c.Context(), ip)
	r.metrics.UpstreamDuration.WithLabelValues(r.repos.IPLocation.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		r.l.Error(err, map[string]any{"route": "ip-location"})
		r.metrics.ProxyRequests.WithLabelValues("ip-location", observability.OutcomeUpstreamError).Inc()
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}

	r.metrics.ProxyRequests.WithLabelValues("ip-location", observability.OutcomeSuccess).Inc()
	return c.JSON(loc)
}

// GetVersion godoc
// @Summary Get the deployed version
// @Description Returns the version marker clients poll for update detection; never cached
// @Tags Meta
// @Produce json
// @Success 200 {object} VersionResponse "Version marker"
// @Router /version.json [get]
func (r *routes) handleVersion(c *fiber.Ctx) error {
	r.metrics.VersionRequests.Inc()

	c.Set(fiber.HeaderCacheControl, "no-store, no-cache, must-revalidate")
	c.Set("Pragma", "no-cache")
	c.Set("Expires", "0")
	return c.JSON(VersionResponse{Version: r.appVersion})
}
