package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"perseus/internal/apperrors"

	"github.com/gin-gonic/gin"
)

// respondError переводит доменные ошибки в HTTP-статусы
func respondError(c *gin.Context, err error) {
	var (
		validationErr *apperrors.ValidationError
		notFoundErr   *apperrors.NotFoundError
		conflictErr   *apperrors.ConflictError
		rateLimitErr  *apperrors.RateLimitError
		apiErr        *apperrors.ExternalAPIError
		configErr     *apperrors.ConfigurationError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation failed",
			"message": validationErr.Error(),
		})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not found",
			"message": notFoundErr.Error(),
		})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "conflict",
			"message": conflictErr.Error(),
		})
	case errors.As(err, &rateLimitErr):
		resp := gin.H{
			"error":   "rate limit exceeded",
			"message": rateLimitErr.Error(),
		}
		if rateLimitErr.ResetAt != nil {
			resp["reset_at"] = rateLimitErr.ResetAt.Format(time.RFC3339)
		}
		c.JSON(http.StatusTooManyRequests, resp)
	case errors.As(err, &apiErr):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "external API unavailable",
			"message": apiErr.Error(),
		})
	case errors.As(err, &configErr):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "service misconfigured",
			"message": configErr.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal server error",
			"message": err.Error(),
		})
	}
}

func parseNoradID(c *gin.Context) (int, bool) {
	noradID, err := strconv.Atoi(c.Param("norad_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid norad_id",
			"message": "norad_id must be an integer",
		})
		return 0, false
	}
	return noradID, true
}

func parseUserID(c *gin.Context) (uint, bool) {
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid user_id",
			"message": "user_id must be a positive integer",
		})
		return 0, false
	}
	return uint(userID), true
}

func queryFloat(c *gin.Context, name, def string) float64 {
	value, _ := strconv.ParseFloat(c.DefaultQuery(name, def), 64)
	return value
}

func queryInt(c *gin.Context, name string, def int) int {
	value, err := strconv.Atoi(c.DefaultQuery(name, strconv.Itoa(def)))
	if err != nil {
		return def
	}
	return value
}

func queryBool(c *gin.Context, name string, def bool) bool {
	value, err := strconv.ParseBool(c.DefaultQuery(name, strconv.FormatBool(def)))
	if err != nil {
		return def
	}
	return value
}
