package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/service"
)

type BarometerHandler struct {
	service *service.BarometerService
}

func NewBarometerHandler(service *service.BarometerService) *BarometerHandler {
	return &BarometerHandler{service: service}
}

func (h *BarometerHandler) GetSeries(c *gin.Context) {
	names, err := h.service.SeriesNames(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list series")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list series"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"series": names})
}

// GetObservations returns history for ?series= (repeatable), or all series.
func (h *BarometerHandler) GetObservations(c *gin.Context) {
	names := splitValues(c.QueryArray("series"))
	obs, err := h.service.Observations(c.Request.Context(), names...)
	if err != nil {
		log.Error().Err(err).Msg("failed to load observations")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load observations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"observations": obs})
}

func (h *BarometerHandler) GetForecast(c *gin.Context) {
	ctx := c.Request.Context()
	points, err := h.service.Forecast(ctx, c.Query("series"))
	if err != nil {
		log.Error().Err(err).Msg("failed to load forecast")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load forecast"})
		return
	}
	version, err := h.service.ForecastVersion(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to read forecast version")
	}
	c.JSON(http.StatusOK, gin.H{"forecast": points, "history_hash": version})
}

// Refresh launches a barometer run; ?force=true ignores file ages.
func (h *BarometerHandler) Refresh(c *gin.Context) {
	force, _ := strconv.ParseBool(c.DefaultQuery("force", "false"))
	run, err := h.service.StartRefresh(c.Request.Context(), force)
	if err != nil {
		log.Error().Err(err).Msg("failed to start barometer run")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start barometer run"})
		return
	}
	c.JSON(http.StatusAccepted, run)
}
