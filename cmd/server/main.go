package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/api"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/app"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/config"
	"github.com/andresuchdata/pricing-automation/backend-go/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.Configure(os.Stdout, cfg.Server.LogJSON)
	logger.SetLevel(cfg.Server.LogLevel)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize application")
	}

	router := api.NewRouter(&api.Services{
		Pricing:   a.PricingService(),
		Barometer: a.BarometerService(),
		Runs:      a.RunService(),
		Metrics:   a.Metrics,
		Ready:     a.Store.Ping,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// background runs finish before the store closes
	if err := a.Close(); err != nil {
		logger.Log.Error().Err(err).Msg("Failed to close application")
	}

	logger.Log.Info().Msg("Server exiting")
}
