package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"orthoview/internal/config"
	"orthoview/internal/database"
	"orthoview/internal/database/migration"
	handlers "orthoview/internal/http/handler"
	"orthoview/internal/http/middleware"
	"orthoview/internal/notify"
	"orthoview/internal/otel"
	"orthoview/internal/repository/postgres"
	"orthoview/internal/service"
	"orthoview/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := time.UTC

	ctx := context.Background()

	shutdownTracing, err := otel.Init(ctx, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// Push dispatch is optional; without credentials it degrades to a no-op.
	var notifier notify.Notifier = notify.Noop{}
	if cfg.FCM.CredentialsFile != "" {
		notifier, err = notify.NewFCM(ctx, cfg.FCM)
		if err != nil {
			log.Fatalf("failed to initialize fcm: %v", err)
		}
	}

	// Initialize repositories and services
	planRepo := postgres.NewPlanPostgres(db)
	snapRepo := postgres.NewSnapshotPostgres(db)
	moveRepo := postgres.NewMovementPostgres(db)

	assetTTL := time.Duration(cfg.Viewer.AssetURLTTLSec) * time.Second
	planSvc := service.NewPlanService(objStore, planRepo, assetTTL)
	snapSvc := service.NewSnapshotService(planRepo, snapRepo, moveRepo, notifier)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    cfg.Viewer.MaxUploadMB * 1024 * 1024,
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to initialize metrics: %v", err)
	}
	app.Use(promMiddleware.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, planSvc, snapSvc)

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
