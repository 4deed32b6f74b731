package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/api/handlers"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/api/middleware"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/metrics"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/service"
)

type Services struct {
	Pricing   *service.PricingService
	Barometer *service.BarometerService
	Runs      *service.RunService
	Metrics   *metrics.Metrics
	// Ready reports whether the store is reachable; nil skips the check.
	Ready func(ctx context.Context) error
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		if services != nil && services.Ready != nil {
			if err := services.Ready(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if services == nil {
		return router
	}

	if services.Metrics != nil {
		router.GET("/metrics", gin.WrapH(services.Metrics.Handler()))
	}

	apiGroup := router.Group("/api/v1")

	if services.Pricing != nil {
		pricingHandler := handlers.NewPricingHandler(services.Pricing)
		pricingGroup := apiGroup.Group("/pricing")
		{
			pricingGroup.POST("/derive", pricingHandler.StartDerive)
			pricingGroup.POST("/vbcs", pricingHandler.StartVBCS)
			pricingGroup.POST("/inputs/pull", pricingHandler.PullInputs)
			pricingGroup.GET("/components", pricingHandler.Search)
			pricingGroup.GET("/components/export", pricingHandler.Export)
			pricingGroup.GET("/options", pricingHandler.Options)
		}
	}

	if services.Barometer != nil {
		barometerHandler := handlers.NewBarometerHandler(services.Barometer)
		barometerGroup := apiGroup.Group("/barometer")
		{
			barometerGroup.GET("/series", barometerHandler.GetSeries)
			barometerGroup.GET("/observations", barometerHandler.GetObservations)
			barometerGroup.GET("/forecast", barometerHandler.GetForecast)
			barometerGroup.POST("/refresh", barometerHandler.Refresh)
		}
	}

	if services.Runs != nil {
		runHandler := handlers.NewRunHandler(services.Runs)
		runGroup := apiGroup.Group("/runs")
		{
			runGroup.GET("", runHandler.ListRuns)
			runGroup.GET("/:id", runHandler.GetRun)
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
