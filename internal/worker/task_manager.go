package worker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"perseus/internal/config"
	"perseus/internal/models"
	"perseus/internal/repository"
	"perseus/internal/service"
)

// Имена фоновых задач
const (
	TaskPositionRefresh = "position_refresh"
	TaskCacheCleanup    = "cache_cleanup"
	TaskStaleRefresh    = "stale_data_refresh"
)

// Пакетное обновление избранного идет порциями, между порциями пауза
const (
	refreshBatchSize  = 5
	refreshBatchPause = time.Second
)

type taskFn func(ctx context.Context) error

// task - один фоновый цикл с собственным контекстом отмены
type task struct {
	name     string
	interval time.Duration
	backoff  time.Duration
	run      taskFn

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// TaskManager управляет фоновыми циклами: обновление позиций избранных
// спутников, чистка кэша и упреждающее обновление протухающих записей
type TaskManager struct {
	tracking  service.TrackingService
	satellite service.SatelliteService
	passes    service.PassService
	userRepo  repository.UserRepository
	cfg       config.WorkersConfig
	staleAge  time.Duration

	mu    sync.Mutex
	tasks map[string]*task
}

func NewTaskManager(
	tracking service.TrackingService,
	satellite service.SatelliteService,
	passes service.PassService,
	userRepo repository.UserRepository,
	cfg config.WorkersConfig,
	staleAge time.Duration,
) *TaskManager {
	return &TaskManager{
		tracking:  tracking,
		satellite: satellite,
		passes:    passes,
		userRepo:  userRepo,
		cfg:       cfg,
		staleAge:  staleAge,
		tasks:     make(map[string]*task),
	}
}

// StartAll запускает все фоновые циклы. Повторный запуск уже идущей
// задачи не запускает второй экземпляр.
func (m *TaskManager) StartAll(ctx context.Context) {
	m.StartTask(ctx, TaskPositionRefresh)
	m.StartTask(ctx, TaskCacheCleanup)
	m.StartTask(ctx, TaskStaleRefresh)
}

func (m *TaskManager) StartTask(ctx context.Context, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.tasks[name]; ok {
		select {
		case <-existing.done:
			// Задача завершилась, можно перезапустить
		default:
			log.Printf("Task %s is already running, skipping start", name)
			return
		}
	}

	t, err := m.buildTask(name)
	if err != nil {
		log.Printf("Failed to start task: %v", err)
		return
	}

	taskCtx, cancel := context.WithCancel(ctx)
	t.ctx = taskCtx
	t.cancel = cancel
	t.done = make(chan struct{})
	m.tasks[name] = t

	go m.loop(taskCtx, t)
	log.Printf("Started background task %s (interval %v)", name, t.interval)
}

func (m *TaskManager) buildTask(name string) (*task, error) {
	switch name {
	case TaskPositionRefresh:
		return &task{
			name:     name,
			interval: m.cfg.PositionInterval,
			backoff:  time.Minute,
			run:      m.refreshFavoritePositions,
		}, nil
	case TaskCacheCleanup:
		return &task{
			name:     name,
			interval: m.cfg.CleanupInterval,
			backoff:  5 * time.Minute,
			run:      m.cleanupCache,
		}, nil
	case TaskStaleRefresh:
		return &task{
			name:     name,
			interval: m.cfg.StaleInterval,
			backoff:  2 * time.Minute,
			run:      m.refreshStaleData,
		}, nil
	}
	return nil, fmt.Errorf("unknown task %q", name)
}

// loop крутит задачу до отмены контекста. Ошибка итерации сокращает
// паузу до backoff, чтобы быстрее повторить попытку.
func (m *TaskManager) loop(ctx context.Context, t *task) {
	defer close(t.done)

	for {
		wait := t.interval
		if err := t.run(ctx); err != nil {
			if ctx.Err() != nil {
				log.Printf("Task %s stopped", t.name)
				return
			}
			log.Printf("Task %s iteration failed: %v", t.name, err)
			wait = t.backoff
		}

		select {
		case <-ctx.Done():
			log.Printf("Task %s stopped", t.name)
			return
		case <-time.After(wait):
		}
	}
}

// StopTask отменяет задачу и дожидается завершения текущей итерации
func (m *TaskManager) StopTask(name string) bool {
	m.mu.Lock()
	t, ok := m.tasks[name]
	m.mu.Unlock()
	if !ok {
		return false
	}

	t.cancel()
	<-t.done
	return true
}

func (m *TaskManager) StopAll() {
	m.mu.Lock()
	running := make([]*task, 0, len(m.tasks))
	for _, t := range m.tasks {
		running = append(running, t)
	}
	m.mu.Unlock()

	for _, t := range running {
		t.cancel()
	}
	for _, t := range running {
		<-t.done
	}
	log.Println("All background tasks stopped")
}

// Status - состояние всех известных задач
func (m *TaskManager) Status() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := make(map[string]interface{}, len(m.tasks))
	for name, t := range m.tasks {
		done := false
		select {
		case <-t.done:
			done = true
		default:
		}
		status[name] = map[string]interface{}{
			"running":          !done,
			"interval_seconds": int(t.interval.Seconds()),
			"done":             done,
			"cancelled":        t.ctx.Err() != nil,
		}
	}
	return status
}

// ManualRefreshAllPositions - разовый запуск обновления позиций вне расписания
func (m *TaskManager) ManualRefreshAllPositions(ctx context.Context) (*models.TaskRunResult, error) {
	started := time.Now().UTC()
	stats, err := m.refreshFavoritePositionsStats(ctx)
	if err != nil {
		return nil, err
	}
	completed := time.Now().UTC()
	return &models.TaskRunResult{
		StartedAt:       started,
		CompletedAt:     completed,
		DurationSeconds: completed.Sub(started).Seconds(),
		Statistics:      stats,
	}, nil
}

// ManualCleanupCache - разовая чистка кэша вне расписания
func (m *TaskManager) ManualCleanupCache(ctx context.Context) (*models.TaskRunResult, error) {
	started := time.Now().UTC()
	stats := m.satellite.CleanupExpiredCache(ctx)
	completed := time.Now().UTC()
	return &models.TaskRunResult{
		StartedAt:       started,
		CompletedAt:     completed,
		DurationSeconds: completed.Sub(started).Seconds(),
		Statistics:      stats,
	}, nil
}

func (m *TaskManager) refreshFavoritePositions(ctx context.Context) error {
	_, err := m.refreshFavoritePositionsStats(ctx)
	return err
}

// refreshFavoritePositionsStats обновляет позиции всех спутников,
// находящихся у кого-либо в избранном, порциями с паузой между ними
func (m *TaskManager) refreshFavoritePositionsStats(ctx context.Context) (models.RefreshStats, error) {
	noradIDs, err := m.userRepo.DistinctFavoriteNoradIDs(ctx)
	if err != nil {
		return models.RefreshStats{}, fmt.Errorf("failed to list favorite satellites: %w", err)
	}
	if len(noradIDs) == 0 {
		return models.RefreshStats{}, nil
	}

	loc, err := m.userRepo.LatestLocationAnyUser(ctx)
	if err != nil {
		return models.RefreshStats{}, fmt.Errorf("failed to get observer location: %w", err)
	}
	lat, lon := 40.7128, -74.0060
	if loc != nil {
		lat, lon = loc.Latitude, loc.Longitude
	}

	stats := models.RefreshStats{Total: len(noradIDs)}
	for i := 0; i < len(noradIDs); i += refreshBatchSize {
		end := i + refreshBatchSize
		if end > len(noradIDs) {
			end = len(noradIDs)
		}

		batch := noradIDs[i:end]
		positions, err := m.tracking.GetMultiplePositions(ctx, batch, lat, lon, 0, refreshBatchSize)
		if err != nil {
			return stats, err
		}
		stats.Refreshed += len(positions)
		stats.Failed += len(batch) - len(positions)

		if end < len(noradIDs) {
			select {
			case <-ctx.Done():
				return stats, ctx.Err()
			case <-time.After(refreshBatchPause):
			}
		}
	}

	log.Printf("Favorite position refresh: %d refreshed, %d failed", stats.Refreshed, stats.Failed)
	return stats, nil
}

func (m *TaskManager) cleanupCache(ctx context.Context) error {
	stats := m.satellite.CleanupExpiredCache(ctx)
	log.Printf("Cache cleanup removed %d records (%d positions, %d passes)", stats.Total, stats.Positions, stats.Passes)
	return nil
}

// refreshStaleData обновляет протухающие позиции и прогревает кэш пролетов
func (m *TaskManager) refreshStaleData(ctx context.Context) error {
	if _, err := m.tracking.RefreshStalePositions(ctx, m.staleAge, 10); err != nil {
		return err
	}
	if _, err := m.passes.OptimizePassCache(ctx, 2); err != nil {
		return err
	}
	return nil
}
