package http

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"weathermap/internal/observability"
	"weathermap/internal/repositories"
	"weathermap/pkg/logger"
)

type routes struct {
	repos       *repositories.Registry
	metrics     *observability.Metrics
	appVersion  string
	defaultLang string
	validate    *validator.Validate
	l           *logger.Logger
}

func NewRouter(
	app *fiber.App,
	repos *repositories.Registry,
	metrics *observability.Metrics,
	appVersion string,
	defaultLang string,
	l *logger.Logger,
) {
	r := &routes{
		repos:       repos,
		metrics:     metrics,
		appVersion:  appVersion,
		defaultLang: defaultLang,
		validate:    validator.New(),
		l:           l,
	}

	// Swagger documentation
	app.Get("/swagger/doc.json", func(c *fiber.Ctx) error {
		swaggerData, err := os.ReadFile("docs/swagger.json")
		if err != nil {
			return c.Status(fiber.ErrInternalServerError.Code).JSON(fiber.Map{"error": "Failed to read Swagger documentation"})
		}

		c.Set("Content-Type", "application/json")
		return c.Send(swaggerData)
	})

	app.Get("/swagger/*", swagger.New(swagger.Config{
		URL:         "/swagger/doc.json",
		DeepLinking: true,
	}))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/version.json", r.handleVersion)

	// API routes
	api := app.Group("/api")
	api.Get("/weather", r.handleWeather)
	api.Get("/forecast", r.handleForecast)
	api.Get("/city-name", r.handleCityName)
	api.Get("/search-city", r.handleSearchCity)
	api.Get("/ip-location", r.handleIPLocation)
}
