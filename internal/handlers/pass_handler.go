package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"perseus/internal/service"

	"github.com/gin-gonic/gin"
)

type PassHandler struct {
	service service.PassService
}

func NewPassHandler(service service.PassService) *PassHandler {
	return &PassHandler{service: service}
}

// GetSatellitePasses - прогноз пролетов спутника над точкой наблюдения
func (h *PassHandler) GetSatellitePasses(c *gin.Context) {
	ctx := c.Request.Context()

	noradID, ok := parseNoradID(c)
	if !ok {
		return
	}

	lat := queryFloat(c, "lat", "55.7558")
	lon := queryFloat(c, "lon", "37.6176")
	alt := queryFloat(c, "alt", "0")
	days := queryInt(c, "days", 7)
	minElevation := queryFloat(c, "min_elevation", "0")
	filter := c.DefaultQuery("filter", "all")

	passes, err := h.service.GetSatellitePasses(ctx, noradID, lat, lon, alt, days, minElevation, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    passes,
		"count":   len(passes),
		"filter":  filter,
		"location": gin.H{
			"lat": lat,
			"lon": lon,
		},
	})
}

// GetFavoritePasses - пролеты всех избранных спутников пользователя
func (h *PassHandler) GetFavoritePasses(c *gin.Context) {
	ctx := c.Request.Context()

	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	days := queryInt(c, "days", 3)
	minElevation := queryFloat(c, "min_elevation", "0")
	filter := c.DefaultQuery("filter", "all")
	maxPerSatellite := queryInt(c, "max_per_satellite", 3)

	passes, err := h.service.GetAllFavoritePasses(ctx, userID, days, minElevation, filter, maxPerSatellite)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    passes,
		"count":   len(passes),
		"filter":  filter,
	})
}

// GetUpcomingPasses - ближайшие пролеты только из кэша, без внешнего API
func (h *PassHandler) GetUpcomingPasses(c *gin.Context) {
	ctx := c.Request.Context()

	userID, ok := parseUserID(c)
	if !ok {
		return
	}
	hours := queryInt(c, "hours", 24)
	minElevation := queryFloat(c, "min_elevation", "0")

	passes, err := h.service.GetUpcomingPasses(ctx, userID, hours, minElevation)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    passes,
		"count":   len(passes),
		"hours":   hours,
	})
}

// GetPassAlerts - пролеты, до которых осталось заданное число минут.
// Отметки передаются списком через запятую, по умолчанию 60, 15 и 5.
func (h *PassHandler) GetPassAlerts(c *gin.Context) {
	ctx := c.Request.Context()

	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	alertMinutes, ok := parseAlertMinutes(c)
	if !ok {
		return
	}

	alerts, err := h.service.GetPassAlerts(ctx, userID, alertMinutes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    alerts,
		"count":   len(alerts),
	})
}

// parseAlertMinutes читает список отметок из query-параметра alert_minutes
func parseAlertMinutes(c *gin.Context) ([]int, bool) {
	raw := c.Query("alert_minutes")
	if raw == "" {
		return nil, true
	}

	parts := strings.Split(raw, ",")
	minutes := make([]int, 0, len(parts))
	for _, part := range parts {
		value, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid alert_minutes",
				"message": "alert_minutes must be a comma-separated list of integers",
			})
			return nil, false
		}
		minutes = append(minutes, value)
	}
	return minutes, true
}
