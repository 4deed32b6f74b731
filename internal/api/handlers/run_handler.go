package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/service"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/store"
)

type RunHandler struct {
	service *service.RunService
}

func NewRunHandler(service *service.RunService) *RunHandler {
	return &RunHandler{service: service}
}

func (h *RunHandler) GetRun(c *gin.Context) {
	run, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("run_id", c.Param("id")).Msg("failed to load run")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load run"})
		return
	}
	c.JSON(http.StatusOK, run)
}

func (h *RunHandler) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	runs, err := h.service.List(c.Request.Context(), c.Query("kind"), limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to list runs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}
