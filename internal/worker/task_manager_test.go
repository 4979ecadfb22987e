package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"perseus/internal/config"
	"perseus/internal/models"
	"perseus/internal/repository"
	"perseus/internal/service"
)

// Стабы с встроенным интерфейсом: реализованы только методы,
// которые дергает TaskManager

type stubTracking struct {
	service.TrackingService
	multiFn   func(ctx context.Context, noradIDs []int) (map[int]*models.EnrichedPosition, error)
	refreshFn func(ctx context.Context) (models.RefreshStats, error)
}

func (s *stubTracking) GetMultiplePositions(ctx context.Context, noradIDs []int, _, _, _ float64, _ int) (map[int]*models.EnrichedPosition, error) {
	return s.multiFn(ctx, noradIDs)
}

func (s *stubTracking) RefreshStalePositions(ctx context.Context, _ time.Duration, _ int) (models.RefreshStats, error) {
	return s.refreshFn(ctx)
}

type stubSatellite struct {
	service.SatelliteService
	cleanups atomic.Int64
}

func (s *stubSatellite) CleanupExpiredCache(context.Context) models.CleanupStats {
	s.cleanups.Add(1)
	return models.CleanupStats{Positions: 2, Passes: 1, Total: 3}
}

type stubPasses struct {
	service.PassService
}

func (s *stubPasses) OptimizePassCache(context.Context, int) (map[string]interface{}, error) {
	return map[string]interface{}{"warmed": 0}, nil
}

type stubUserRepo struct {
	repository.UserRepository
	favoriteIDs []int
}

func (s *stubUserRepo) DistinctFavoriteNoradIDs(context.Context) ([]int, error) {
	return s.favoriteIDs, nil
}

func (s *stubUserRepo) LatestLocationAnyUser(context.Context) (*models.UserLocation, error) {
	return &models.UserLocation{Latitude: 55.75, Longitude: 37.61}, nil
}

func testConfig() config.WorkersConfig {
	return config.WorkersConfig{
		PositionInterval: 10 * time.Millisecond,
		CleanupInterval:  10 * time.Millisecond,
		StaleInterval:    10 * time.Millisecond,
	}
}

func newTestManager(tracking service.TrackingService, satellite *stubSatellite) *TaskManager {
	return NewTaskManager(tracking, satellite, &stubPasses{}, &stubUserRepo{}, testConfig(), 3*time.Minute)
}

func TestStartTaskIsIdempotent(t *testing.T) {
	satellite := &stubSatellite{}
	m := newTestManager(&stubTracking{}, satellite)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m.StartTask(ctx, TaskCacheCleanup)
	m.StartTask(ctx, TaskCacheCleanup)

	status := m.Status()
	if len(status) != 1 {
		t.Fatalf("expected single task entry, got %d", len(status))
	}

	if !m.StopTask(TaskCacheCleanup) {
		t.Fatal("expected StopTask to find the running task")
	}
	if satellite.cleanups.Load() < 1 {
		t.Fatal("expected at least one cleanup iteration")
	}
}

func TestStopTaskWaitsForCompletion(t *testing.T) {
	satellite := &stubSatellite{}
	m := newTestManager(&stubTracking{}, satellite)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m.StartTask(ctx, TaskCacheCleanup)
	m.StopTask(TaskCacheCleanup)

	// После остановки итерации прекращаются
	count := satellite.cleanups.Load()
	time.Sleep(50 * time.Millisecond)
	if satellite.cleanups.Load() != count {
		t.Fatal("expected no iterations after StopTask returned")
	}

	status := m.Status()
	entry := status[TaskCacheCleanup].(map[string]interface{})
	if entry["running"].(bool) {
		t.Fatal("expected task reported as stopped")
	}
	if !entry["done"].(bool) {
		t.Fatal("expected done flag after StopTask")
	}
	if !entry["cancelled"].(bool) {
		t.Fatal("expected cancelled flag after StopTask")
	}
}

func TestStatusFlagsForRunningTask(t *testing.T) {
	m := newTestManager(&stubTracking{}, &stubSatellite{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m.StartTask(ctx, TaskCacheCleanup)
	defer m.StopTask(TaskCacheCleanup)

	entry := m.Status()[TaskCacheCleanup].(map[string]interface{})
	if !entry["running"].(bool) {
		t.Fatal("expected running flag for active task")
	}
	if entry["done"].(bool) {
		t.Fatal("expected done to be false while running")
	}
	if entry["cancelled"].(bool) {
		t.Fatal("expected cancelled to be false while running")
	}
	if entry["interval_seconds"].(int) != 0 {
		// Интервалы в тестовой конфигурации меньше секунды
		t.Fatalf("unexpected interval: %v", entry["interval_seconds"])
	}
}

func TestStopTaskUnknownName(t *testing.T) {
	m := newTestManager(&stubTracking{}, &stubSatellite{})
	if m.StopTask("nonexistent") {
		t.Fatal("expected StopTask to report unknown task")
	}
}

func TestStartAllAndStopAll(t *testing.T) {
	tracking := &stubTracking{
		multiFn: func(_ context.Context, noradIDs []int) (map[int]*models.EnrichedPosition, error) {
			result := make(map[int]*models.EnrichedPosition, len(noradIDs))
			for _, id := range noradIDs {
				result[id] = &models.EnrichedPosition{}
			}
			return result, nil
		},
		refreshFn: func(context.Context) (models.RefreshStats, error) {
			return models.RefreshStats{}, nil
		},
	}

	m := newTestManager(tracking, &stubSatellite{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m.StartAll(ctx)
	if len(m.Status()) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(m.Status()))
	}

	m.StopAll()
	for name, raw := range m.Status() {
		entry := raw.(map[string]interface{})
		if entry["running"].(bool) {
			t.Fatalf("expected task %s stopped", name)
		}
	}
}

func TestManualRefreshAllPositions(t *testing.T) {
	var requested []int
	tracking := &stubTracking{
		multiFn: func(_ context.Context, noradIDs []int) (map[int]*models.EnrichedPosition, error) {
			requested = append(requested, noradIDs...)
			result := make(map[int]*models.EnrichedPosition, len(noradIDs))
			for _, id := range noradIDs {
				if id != 3 {
					result[id] = &models.EnrichedPosition{}
				}
			}
			return result, nil
		},
	}

	m := NewTaskManager(tracking, &stubSatellite{}, &stubPasses{}, &stubUserRepo{favoriteIDs: []int{1, 2, 3}}, testConfig(), 3*time.Minute)

	result, err := m.ManualRefreshAllPositions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stats := result.Statistics.(models.RefreshStats)
	if stats.Total != 3 || stats.Refreshed != 2 || stats.Failed != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(requested) != 3 {
		t.Fatalf("expected all favorites requested, got %v", requested)
	}
	if result.CompletedAt.Before(result.StartedAt) {
		t.Fatal("expected completion after start")
	}
}

func TestManualCleanupCache(t *testing.T) {
	satellite := &stubSatellite{}
	m := newTestManager(&stubTracking{}, satellite)

	result, err := m.ManualCleanupCache(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stats := result.Statistics.(models.CleanupStats)
	if stats.Total != 3 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if satellite.cleanups.Load() != 1 {
		t.Fatalf("expected exactly one cleanup call, got %d", satellite.cleanups.Load())
	}
}
