package handlers

import (
	"net/http"
	"time"

	"perseus/internal/repository"
	"perseus/internal/service"
	"perseus/internal/worker"
	pkgredis "perseus/pkg/redis"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

type SystemHandler struct {
	taskManager   *worker.TaskManager
	satellite     service.SatelliteService
	satelliteRepo repository.SatelliteRepository
	positionRepo  repository.PositionCacheRepository
	passRepo      repository.PassCacheRepository
	redisClient   *redis.Client
	startedAt     time.Time
}

func NewSystemHandler(
	taskManager *worker.TaskManager,
	satellite service.SatelliteService,
	satelliteRepo repository.SatelliteRepository,
	positionRepo repository.PositionCacheRepository,
	passRepo repository.PassCacheRepository,
	redisClient *redis.Client,
) *SystemHandler {
	return &SystemHandler{
		taskManager:   taskManager,
		satellite:     satellite,
		satelliteRepo: satelliteRepo,
		positionRepo:  positionRepo,
		passRepo:      passRepo,
		redisClient:   redisClient,
		startedAt:     time.Now().UTC(),
	}
}

func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
	})
}

// Stats - сводка по кэшу, внешнему API и фоновым задачам
func (h *SystemHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	satellites, _ := h.satelliteRepo.Count(ctx)
	positions, _ := h.positionRepo.Count(ctx)
	passes, _ := h.passRepo.Count(ctx)

	redisStats, err := pkgredis.GetStats(h.redisClient)
	if err != nil {
		redisStats = map[string]string{"error": err.Error()}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"database": gin.H{
				"satellites":       satellites,
				"cached_positions": positions,
				"cached_passes":    passes,
			},
			"redis":      redisStats,
			"rate_limit": h.satellite.RateLimitStatus(),
			"tasks":      h.taskManager.Status(),
		},
	})
}

// TaskStatus - состояние фоновых задач
func (h *SystemHandler) TaskStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.taskManager.Status(),
	})
}

// TriggerPositionRefresh - ручной запуск обновления позиций
func (h *SystemHandler) TriggerPositionRefresh(c *gin.Context) {
	ctx := c.Request.Context()

	result, err := h.taskManager.ManualRefreshAllPositions(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// TriggerCacheCleanup - ручной запуск чистки кэша
func (h *SystemHandler) TriggerCacheCleanup(c *gin.Context) {
	ctx := c.Request.Context()

	result, err := h.taskManager.ManualCleanupCache(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}
