package handlers

import (
	"net/http"
	"strconv"

	"perseus/internal/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	favorites service.FavoriteService
	locations service.LocationService
}

func NewUserHandler(favorites service.FavoriteService, locations service.LocationService) *UserHandler {
	return &UserHandler{favorites: favorites, locations: locations}
}

// AddFavorite добавляет спутник в избранное пользователя
func (h *UserHandler) AddFavorite(c *gin.Context) {
	ctx := c.Request.Context()

	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	noradID, err := strconv.Atoi(c.Param("norad_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid norad_id",
			"message": "norad_id must be an integer",
		})
		return
	}

	favorite, err := h.favorites.AddFavorite(ctx, userID, noradID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    favorite,
	})
}

// RemoveFavorite убирает спутник из избранного
func (h *UserHandler) RemoveFavorite(c *gin.Context) {
	ctx := c.Request.Context()

	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	noradID, err := strconv.Atoi(c.Param("norad_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid norad_id",
			"message": "norad_id must be an integer",
		})
		return
	}

	if err := h.favorites.RemoveFavorite(ctx, userID, noradID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListFavorites - все избранные спутники пользователя
func (h *UserHandler) ListFavorites(c *gin.Context) {
	ctx := c.Request.Context()

	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	favorites, err := h.favorites.ListFavorites(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    favorites,
		"count":   len(favorites),
	})
}

type setLocationRequest struct {
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
	Address   *string `json:"address"`
}

// SetLocation сохраняет новую точку наблюдения пользователя
func (h *UserHandler) SetLocation(c *gin.Context) {
	ctx := c.Request.Context()

	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	var req setLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"message": err.Error(),
		})
		return
	}

	location, err := h.locations.SetLocation(ctx, userID, req.Latitude, req.Longitude, req.Address)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    location,
	})
}

// GetLocation - актуальная точка наблюдения пользователя
func (h *UserHandler) GetLocation(c *gin.Context) {
	ctx := c.Request.Context()

	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	location, err := h.locations.GetLatestLocation(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    location,
	})
}
