package handlers

import (
	"net/http"

	"perseus/internal/service"

	"github.com/gin-gonic/gin"
)

type SatelliteHandler struct {
	service service.SatelliteService
}

func NewSatelliteHandler(service service.SatelliteService) *SatelliteHandler {
	return &SatelliteHandler{service: service}
}

// GetSatelliteInfo - карточка спутника по номеру NORAD
func (h *SatelliteHandler) GetSatelliteInfo(c *gin.Context) {
	ctx := c.Request.Context()

	noradID, ok := parseNoradID(c)
	if !ok {
		return
	}

	satellite, err := h.service.GetSatelliteInfo(ctx, noradID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    satellite,
	})
}

// SearchSatellites - поиск по имени среди локально известных спутников
func (h *SatelliteHandler) SearchSatellites(c *gin.Context) {
	ctx := c.Request.Context()

	query := c.Query("q")
	satellites, err := h.service.SearchSatellites(ctx, query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    satellites,
		"count":   len(satellites),
	})
}

// InvalidateCache сбрасывает все кэшированные данные спутника
func (h *SatelliteHandler) InvalidateCache(c *gin.Context) {
	ctx := c.Request.Context()

	noradID, ok := parseNoradID(c)
	if !ok {
		return
	}

	invalidated, err := h.service.InvalidateSatelliteCache(ctx, noradID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"invalidated": invalidated,
	})
}

// RateLimitStatus - остаток квоты внешнего API
func (h *SatelliteHandler) RateLimitStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.service.RateLimitStatus(),
	})
}
