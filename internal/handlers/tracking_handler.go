package handlers

import (
	"net/http"

	"perseus/internal/service"

	"github.com/gin-gonic/gin"
)

type TrackingHandler struct {
	service service.TrackingService
}

func NewTrackingHandler(service service.TrackingService) *TrackingHandler {
	return &TrackingHandler{service: service}
}

// GetPosition - текущая позиция спутника с расчетными полями
func (h *TrackingHandler) GetPosition(c *gin.Context) {
	ctx := c.Request.Context()

	noradID, ok := parseNoradID(c)
	if !ok {
		return
	}

	lat := queryFloat(c, "lat", "55.7558")
	lon := queryFloat(c, "lon", "37.6176")
	alt := queryFloat(c, "alt", "0")
	forceRefresh := queryBool(c, "force_refresh", false)

	position, err := h.service.GetRealTimePosition(ctx, noradID, lat, lon, alt, forceRefresh)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    position,
	})
}

type batchPositionsRequest struct {
	NoradIDs      []int   `json:"norad_ids" binding:"required"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Altitude      float64 `json:"altitude"`
	MaxConcurrent int     `json:"max_concurrent"`
}

// GetMultiplePositions - пакетная выборка позиций нескольких спутников
func (h *TrackingHandler) GetMultiplePositions(c *gin.Context) {
	ctx := c.Request.Context()

	var req batchPositionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"message": err.Error(),
		})
		return
	}

	positions, err := h.service.GetMultiplePositions(ctx, req.NoradIDs, req.Latitude, req.Longitude, req.Altitude, req.MaxConcurrent)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"data":      positions,
		"requested": len(req.NoradIDs),
		"returned":  len(positions),
	})
}

// GetFavoritePositions - позиции всех избранных спутников пользователя
func (h *TrackingHandler) GetFavoritePositions(c *gin.Context) {
	ctx := c.Request.Context()

	userID, ok := parseUserID(c)
	if !ok {
		return
	}
	forceRefresh := queryBool(c, "force_refresh", false)

	positions, err := h.service.GetFavoritePositions(ctx, userID, forceRefresh)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    positions,
		"count":   len(positions),
	})
}

// GetPositionHistory - сохраненные позиции спутника за период
func (h *TrackingHandler) GetPositionHistory(c *gin.Context) {
	ctx := c.Request.Context()

	noradID, ok := parseNoradID(c)
	if !ok {
		return
	}

	hours := queryInt(c, "hours", 24)
	limit := queryInt(c, "limit", 100)

	history, err := h.service.GetPositionHistory(ctx, noradID, hours, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    history,
		"count":   len(history),
		"hours":   hours,
	})
}
