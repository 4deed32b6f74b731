package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/pricing-automation/backend-go/internal/pricing"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/quote"
	"github.com/andresuchdata/pricing-automation/backend-go/internal/service"
)

type PricingHandler struct {
	service *service.PricingService
}

func NewPricingHandler(service *service.PricingService) *PricingHandler {
	return &PricingHandler{service: service}
}

type vbcsRequest struct {
	Steps []string `json:"steps"`
}

// StartDerive launches a derivation run and returns it as accepted.
func (h *PricingHandler) StartDerive(c *gin.Context) {
	run, err := h.service.StartDerive(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to start pricing run")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start pricing run"})
		return
	}
	c.JSON(http.StatusAccepted, run)
}

func (h *PricingHandler) StartVBCS(c *gin.Context) {
	var req vbcsRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}
	run, err := h.service.StartVBCS(c.Request.Context(), req.Steps)
	if err != nil {
		log.Error().Err(err).Msg("failed to start vbcs run")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start vbcs run"})
		return
	}
	c.JSON(http.StatusAccepted, run)
}

func (h *PricingHandler) parseFilter(c *gin.Context) (quote.Filter, error) {
	var filter quote.Filter
	if err := c.ShouldBindQuery(&filter); err != nil {
		return filter, err
	}
	// accept ?plant=A,B as well as repeated params
	for _, list := range []*[]string{&filter.Plants, &filter.SellTo, &filter.CustomLabel, &filter.Pallets, &filter.Mileages, &filter.Drops} {
		*list = splitValues(*list)
	}
	return filter, nil
}

func splitValues(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Search returns matching price rows as display strings.
func (h *PricingHandler) Search(c *gin.Context) {
	filter, err := h.parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter"})
		return
	}

	limit := 500
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "500")); err == nil && v > 0 {
		limit = v
	}

	rows, err := h.service.Search(c.Request.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("price search failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "price search failed"})
		return
	}

	total := len(rows)
	if len(rows) > limit {
		rows = rows[:limit]
	}
	data := make([][]string, len(rows))
	for i := range rows {
		data[i] = rows[i].DisplayFields(quote.DisplayDecimals)
	}

	c.JSON(http.StatusOK, gin.H{
		"columns": pricing.OutputColumns,
		"rows":    data,
		"total":   total,
	})
}

// Export streams matching rows as CSV.
func (h *PricingHandler) Export(c *gin.Context) {
	filter, err := h.parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter"})
		return
	}
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="quote.csv"`)
	if err := h.service.Export(c.Request.Context(), c.Writer, filter); err != nil {
		log.Error().Err(err).Msg("price export failed")
		c.Status(http.StatusInternalServerError)
	}
}

func (h *PricingHandler) Options(c *gin.Context) {
	opts, err := h.service.Options(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to load filter options")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load filter options"})
		return
	}
	c.JSON(http.StatusOK, opts)
}

// PullInputs downloads the reference files from Drive.
func (h *PricingHandler) PullInputs(c *gin.Context) {
	res, err := h.service.PullInputs(c.Request.Context())
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, service.ErrDriveDisabled) {
			status = http.StatusServiceUnavailable
		}
		log.Error().Err(err).Msg("drive pull failed")
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": res.Files, "missing": res.Missing})
}
