package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "nearby-imagery-api/docs"
	"nearby-imagery-api/internal/archive"
	"nearby-imagery-api/internal/cache"
	"nearby-imagery-api/internal/config"
	"nearby-imagery-api/internal/handler"
	"nearby-imagery-api/internal/logger"
	"nearby-imagery-api/internal/provider"
	"nearby-imagery-api/internal/refresh"
	"nearby-imagery-api/internal/repository"
	"nearby-imagery-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func main() {
	config, err := config.LoadConfig("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	logger := logger.New(config.LogLevel, config.LogFormat)
	log.Logger = logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database connection
	repo, closeDB, err := repository.Open(ctx, config.DBDriver, config.DBSource)
	if err != nil {
		log.Fatal().Err(err).Str("driver", config.DBDriver).Msg("cannot connect to db")
	}
	defer closeDB()

	// Providers
	providers := provider.NewSet(provider.Options{
		StreetLevel: provider.StreetLevelOptions{
			AccessToken: config.MapillaryAccessToken,
			BaseURL:     config.MapillaryBaseURL,
			Limit:       config.MapillaryLimit,
		},
		SyntheticMap: provider.SyntheticMapOptions{
			AccessToken: config.MapboxAccessToken,
			BaseURL:     config.MapboxBaseURL,
			Style:       config.MapboxStyle,
			Zoom:        config.MapboxZoom,
			SampleCount: config.MapboxSampleCount,
		},
	})
	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name())
	}
	if len(providers) == 0 {
		logger.Warn().Msg("no provider access tokens configured, aggregation will return nothing")
	}
	health := provider.NewHealthRegistry(names...)

	// Initialize layers
	limits := service.QueryLimits{
		DefaultRadiusKm: config.DefaultRadiusKm,
		MaxRadiusKm:     config.MaxRadiusKm,
		DefaultLimit:    config.DefaultLimit,
		MaxLimit:        config.MaxLimit,
	}
	imageryService := service.NewImageryService(providers, health, config.ProviderTimeout, logger)
	imageryService.SetLimits(limits)
	store := cache.NewStore(repo)

	var archiver refresh.Archiver
	if config.ArchiveEndpoint != "" {
		minioArchiver, err := archive.NewMinio(archive.Options{
			Endpoint:  config.ArchiveEndpoint,
			AccessKey: config.ArchiveAccessKey,
			SecretKey: config.ArchiveSecretKey,
			Bucket:    config.ArchiveBucket,
			UseSSL:    config.ArchiveUseSSL,
		}, logger)
		if err != nil {
			log.Fatal().Err(err).Msg("cannot create archive client")
		}
		archiver = minioArchiver
	}

	orchestrator := refresh.New(imageryService, store, archiver, refresh.Options{
		Workers:   config.RefreshWorkers,
		QueueSize: config.RefreshQueueSize,
		Timeout:   config.RefreshTimeout,
	}, logger)
	if err := orchestrator.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("cannot start refresh orchestrator")
	}

	cacheService := service.NewCacheService(store, imageryService, orchestrator, service.CacheServiceOptions{
		Freshness:     cache.NewFreshnessPolicy(config.CacheMaxAge),
		Limits:        limits,
		SeedLatitude:  config.SeedLatitude,
		SeedLongitude: config.SeedLongitude,
	}, logger)
	locationService := service.NewLocationService(repo)

	imageryHandler := handler.NewImageryHandler(cacheService, imageryService)
	locationHandler := handler.NewLocationHandler(locationService)

	srv := &http.Server{
		Addr:    config.ServerAddress,
		Handler: newRouter(logger, imageryHandler, locationHandler),
	}

	go func() {
		logger.Info().Str("address", config.ServerAddress).Strs("providers", names).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown")
	}
	if err := orchestrator.Stop(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("refresh orchestrator shutdown")
	}
}

func newRouter(logger zerolog.Logger, imagery *handler.ImageryHandler, locations *handler.LocationHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), handler.RequestLogger(logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")
	{
		img := api.Group("/imagery")
		img.GET("/nearby-cached", imagery.NearbyCached)
		img.POST("/populate", imagery.Populate)
		img.POST("/refresh", imagery.Refresh)
		img.GET("/nearby", imagery.Nearby)
		img.GET("/random", imagery.Random)
		img.GET("/geojson", imagery.GeoJSON)
		img.GET("/providers", imagery.Providers)

		api.POST("/locations", locations.AddLocation)
		api.GET("/locations", locations.GetLocation)
	}

	return r
}
