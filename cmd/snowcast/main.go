package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/snowcastio/snowcast/internal/api/http"
	"github.com/snowcastio/snowcast/internal/config"
	"github.com/snowcastio/snowcast/internal/fetch"
	"github.com/snowcastio/snowcast/internal/geo"
	"github.com/snowcastio/snowcast/internal/observability"
	"github.com/snowcastio/snowcast/internal/pipeline"
	"github.com/snowcastio/snowcast/internal/provider"
	"github.com/snowcastio/snowcast/internal/scheduler"
	"github.com/snowcastio/snowcast/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(slogger)

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Flatten the nested resort hierarchy into fetchable locations.
	locations, err := geo.LoadHierarchy(cfg.ResortsFile)
	if err != nil {
		log.Fatalf("failed to load resorts file %q: %v", cfg.ResortsFile, err)
	}
	slogger.Info("loaded resort hierarchy",
		"file", cfg.ResortsFile,
		"locations", len(locations))

	metrics := observability.NewMetrics()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	client := provider.NewOpenMeteoClient(httpClient, cfg.ProviderBaseURL)

	dataset := store.NewDataset()

	orch := fetch.New(client, clockwork.NewRealClock(), cfg.BatchDelay, cfg.ForecastDays, metrics, slogger)
	pipe := pipeline.New(locations, orch, dataset, cfg.MaxLocationsPerChunk, metrics, slogger)

	// Scheduler that periodically rebuilds the forecast dataset.
	sched := scheduler.New(pipe, cfg.UpdateInterval, metrics, slogger)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "snowcast",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "snowcast",
			"ready":   dataset.Ready(),
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, dataset)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
