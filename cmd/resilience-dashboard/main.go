package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/mr1hm/go-resilience-dashboard/internal/api"
	"github.com/mr1hm/go-resilience-dashboard/internal/config"
	"github.com/mr1hm/go-resilience-dashboard/internal/ingestion"
	"github.com/mr1hm/go-resilience-dashboard/internal/locale"
	"github.com/mr1hm/go-resilience-dashboard/internal/logging"
	"github.com/mr1hm/go-resilience-dashboard/internal/mapview"
	"github.com/mr1hm/go-resilience-dashboard/internal/models"
	"github.com/mr1hm/go-resilience-dashboard/internal/observability"
	"github.com/mr1hm/go-resilience-dashboard/internal/repository"
	"github.com/mr1hm/go-resilience-dashboard/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port, "province", cfg.Province.Name)

	labels := locale.Default()
	if cfg.Sources.LocaleFile != "" {
		labels, err = locale.Load(cfg.Sources.LocaleFile)
		if err != nil {
			logging.Fatalf("Failed to load labels: %v", err)
		}
	}

	metrics := observability.NewMetrics()

	var districts ingestion.DistrictSource
	if cfg.Sources.DistrictsDBPath != "" {
		db, err := repository.NewSQLiteDB(cfg.Sources.DistrictsDBPath)
		if err != nil {
			logging.Fatalf("Failed to initialize database: %v", err)
		}
		defer db.Close()
		districts = db
		slog.Info("district records from database", "path", cfg.Sources.DistrictsDBPath)
	} else {
		districts = ingestion.NewHTTPDistrictSource(cfg.Sources.DistrictsURL, cfg.Sources.FetchTimeout)
		slog.Info("district records from url", "url", cfg.Sources.DistrictsURL)
	}
	boundaries := ingestion.NewHTTPBoundarySource(cfg.Sources.BoundariesURL, cfg.Sources.FetchTimeout)

	mgr := ingestion.NewManager(districts, boundaries, labels, ingestion.Options{
		ProvinceField:  cfg.Province.ProvinceField,
		ProvinceName:   cfg.Province.Name,
		DistrictField:  cfg.Province.DistrictField,
		Prefix:         cfg.Province.DistrictPrefix,
		StrictMatching: cfg.Province.StrictMatching,
	}, metrics, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := worker.NewWorkerPool(cfg.Sessions.LoadWorkers, cfg.Sessions.LoadQueueSize, logger)
	pool.Start(ctx)

	registry := mapview.NewRegistry(mgr, pool, mapview.NewStyleCache(cfg.Sessions.StyleCacheSize, metrics), mapview.RegistryConfig{
		IdleTTL: cfg.Sessions.IdleTTL,
		Session: mapview.Options{
			Province:      cfg.Province.Name,
			Center:        models.LatLng{Lat: cfg.Map.CenterLat, Lng: cfg.Map.CenterLng},
			Zoom:          cfg.Map.Zoom,
			FlyToZoom:     cfg.Map.FlyToZoom,
			FlyToDuration: cfg.Map.FlyToDuration,
			Labels:        labels,
		},
		Metrics: metrics,
		Logger:  logger,
	})
	registry.Start(ctx)

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.NewHandler(registry, labels, logger), api.RouterOptions{
		RateLimitRPS: cfg.Server.RateLimitRPS,
		StaticDir:    cfg.Server.StaticDir,
		Logger:       logger,
	})

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	// Closing sessions ends their event streams so Shutdown does not wait on them.
	registry.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	cancel()
	pool.Stop()

	slog.Info("shutdown complete")
}
