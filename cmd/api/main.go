package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/api"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/cache"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/config"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/repository/postgres"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/internal/service"
	"github.com/GodfreyNjoro/dawacare-pharmacy-system-sub003/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := postgres.Migrate(migrateCtx, db); err != nil {
		cancelMigrate()
		logger.Log.Fatal().Err(err).Msg("Failed to run migrations")
	}
	cancelMigrate()

	summaryCache, err := cache.NewInventorySummaryCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Cache unavailable, continuing without it")
		summaryCache = cache.NewNoopInventorySummaryCache()
	}

	store := postgres.NewStore(db)

	registerService := service.NewRegister(store)
	dispensingService := service.NewDispensing(store, registerService)

	services := &api.Services{
		Register:   registerService,
		Receiving:  service.NewReceiving(store),
		Transfer:   service.NewTransfer(store),
		Dispensing: dispensingService,
		Sync:       service.NewSync(store, dispensingService),
		Inventory:  service.NewInventory(store, summaryCache),
	}

	router := api.NewRouter(services, cfg)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
