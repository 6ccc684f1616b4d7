package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"weathermap/config"
	v1 "weathermap/internal/controllers/http/v1"
	"weathermap/internal/observability"
	"weathermap/internal/repositories"
	"weathermap/pkg/httpserver"
	"weathermap/pkg/logger"
	"weathermap/pkg/observe"
)

// @title Weathermap Proxy API
// @version 1.0.0
// @description Stateless proxy in front of the weather, geocoding, and IP location providers.
// @description Keeps provider credentials server-side and serves the version marker clients poll for updates.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:3000
// @BasePath /
// @schemes http https

// @tag.name Weather
// @tag.description Current conditions and forecast proxying
// @tag.name Geocoding
// @tag.description Reverse geocoding, city search, and IP location
// @tag.name Meta
// @tag.description Version marker and service endpoints
func main() {
	_ = godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())

	cnf, err := config.NewConfig()
	if err != nil {
		log.Fatalln("cannot load configuration:", err)
	}

	hook := observe.NewSentryHook(cnf.AppEnv, cnf.AppName, cnf.SentryDSN, cnf.IsDevelopment())

	l := logger.NewZapLogger(cnf.AppName, os.Stdout, hook)

	app := httpserver.InitFiberServer(cnf.AppName)

	repos := repositories.InitRepositories(cnf, l)

	metrics := observability.NewMetrics()

	v1.NewRouter(
		app,
		repos,
		metrics,
		cnf.AppVersion,
		cnf.DefaultLang,
		l,
	)

	go func() {
		if err := app.Listen(":" + cnf.Port); err != nil {
			l.Fatal("cannot run the server", map[string]any{"err": err})
		}
	}()

	l.Info("application started successfully", map[string]any{
		"port":    cnf.Port,
		"version": cnf.AppVersion,
	})

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer func() {
		l.Warning("stopping application services")
		signal.Stop(sigCh)
		close(sigCh)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		_ = app.ShutdownWithContext(shutdownCtx)
		hook.Flush()
		_ = l.Stop()
		cancel()
	}()

	select {
	case <-sigCh:
		fmt.Println("received shutdown signal")
	case <-ctx.Done():
		fmt.Println("context cancelled")
	}
}
