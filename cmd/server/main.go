package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/chargemap/internal/config"
	"github.com/stwalsh4118/chargemap/internal/database"
	apierrors "github.com/stwalsh4118/chargemap/internal/errors"
	"github.com/stwalsh4118/chargemap/internal/geocoder"
	"github.com/stwalsh4118/chargemap/internal/handlers"
	"github.com/stwalsh4118/chargemap/internal/logger"
	"github.com/stwalsh4118/chargemap/internal/middleware"
	"github.com/stwalsh4118/chargemap/internal/repository"
	"github.com/stwalsh4118/chargemap/internal/services"
)

const (
	shutdownTimeout = 30 * time.Second
	startupTimeout  = 15 * time.Second
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.NewWithLevel(cfg.Server.Env, cfg.Server.LogLevel)
	log.Info("Starting ChargeMap API", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
		"store":       cfg.Store.Driver,
	})

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	store, closeStore, err := openStore(ctx, cfg, log)
	cancel()
	if err != nil {
		log.Fatal("Failed to open station store", err, map[string]interface{}{
			"driver": cfg.Store.Driver,
		})
	}
	defer closeStore()

	geo := newGeocoder(cfg.Geocoder, log)
	service := services.NewStationService(store, geo, services.Timeouts{
		Store:   cfg.Store.Timeout,
		Geocode: cfg.Geocoder.Timeout,
	}, log.WithComponent("stations"))

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(cfg, log, store, service)

	// Create HTTP server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	// Wait for interrupt signal (SIGINT or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	log.Info("Shutting down server...", nil)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}

// openStore connects the configured station store. The returned func releases it.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (repository.StationRepository, func(), error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		store, err := repository.NewMemoryRepository()
		if err != nil {
			return nil, nil, err
		}
		log.Warn("Using in-memory station store; data is lost on restart", nil)
		return store, func() {}, nil

	case config.StoreDriverPostgres:
		db, err := database.NewPostgresPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}

		log.Info("Database connection established", map[string]interface{}{
			"host":     cfg.Database.Host,
			"port":     cfg.Database.Port,
			"database": cfg.Database.Name,
			"pool_min": cfg.Database.PoolMin,
			"pool_max": cfg.Database.PoolMax,
		})
		return repository.NewStationRepository(db), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// newGeocoder builds the Nominatim client, cached unless the cache size is zero.
func newGeocoder(cfg config.GeocoderConfig, log *logger.Logger) geocoder.Geocoder {
	var geo geocoder.Geocoder = geocoder.NewNominatimClient(cfg.URL, cfg.UserAgent, cfg.Timeout)
	if cfg.CacheSize > 0 {
		geo = geocoder.NewCachingGeocoder(geo, cfg.CacheSize, cfg.CacheTTL)
	}

	log.Info("Geocoder configured", map[string]interface{}{
		"url":        cfg.URL,
		"cache_size": cfg.CacheSize,
		"cache_ttl":  cfg.CacheTTL.String(),
	})
	return geo
}

// newRouter assembles middleware and routes.
func newRouter(cfg *config.Config, log *logger.Logger, store handlers.Pinger, service services.StationService) *gin.Engine {
	router := gin.New()

	// Add middleware in order: RequestID -> Logger -> Recovery -> CORS -> Timeout
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS.Origins))
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	router.NoRoute(func(c *gin.Context) {
		apierrors.NotFound(c, "Route not found")
	})

	// Register health check routes
	healthHandler := handlers.NewHealthHandler(store, cfg.Server.Env, cfg.Store.Driver)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/api/v1/info", healthHandler.Info)

	stationHandler := handlers.NewStationHandler(service, cfg.Search.DefaultRadiusKm)

	// Register API v1 routes
	v1 := router.Group("/api/v1")
	{
		stations := v1.Group("/stations")
		{
			stations.GET("", stationHandler.List)
			stations.POST("", stationHandler.Add)
			stations.GET("/geojson", stationHandler.GeoJSON)
			stations.GET("/nearby", stationHandler.Nearby)
		}
	}

	return router
}
