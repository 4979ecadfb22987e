package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"perseus/internal/apperrors"
	"perseus/internal/models"
	"perseus/internal/repository"
	"perseus/internal/satmath"

	"golang.org/x/sync/errgroup"
)

// Дефолтная точка наблюдения для фоновых обновлений, когда в системе
// нет ни одной пользовательской локации (Нью-Йорк)
const (
	defaultObserverLat = 40.7128
	defaultObserverLon = -74.0060
)

// TrackingService - слежение за позициями: обогащение расчетами,
// пакетная выборка с ограничением параллелизма, упреждающее обновление
type TrackingService interface {
	GetRealTimePosition(ctx context.Context, noradID int, lat, lon, altM float64, forceRefresh bool) (*models.EnrichedPosition, error)
	GetMultiplePositions(ctx context.Context, noradIDs []int, lat, lon, altM float64, maxConcurrent int) (map[int]*models.EnrichedPosition, error)
	GetFavoritePositions(ctx context.Context, userID uint, forceRefresh bool) ([]models.FavoritePosition, error)
	GetPositionHistory(ctx context.Context, noradID int, hours, limit int) ([]models.PositionHistoryEntry, error)
	RefreshStalePositions(ctx context.Context, maxAge time.Duration, batchSize int) (models.RefreshStats, error)
}

type trackingService struct {
	satellites    SatelliteService
	positionRepo  repository.PositionCacheRepository
	userRepo      repository.UserRepository
	maxConcurrent int
}

func NewTrackingService(
	satellites SatelliteService,
	positionRepo repository.PositionCacheRepository,
	userRepo repository.UserRepository,
	maxConcurrent int,
) TrackingService {
	if maxConcurrent < 1 {
		maxConcurrent = 5
	}
	return &trackingService{
		satellites:    satellites,
		positionRepo:  positionRepo,
		userRepo:      userRepo,
		maxConcurrent: maxConcurrent,
	}
}

func (s *trackingService) GetRealTimePosition(ctx context.Context, noradID int, lat, lon, altM float64, forceRefresh bool) (*models.EnrichedPosition, error) {
	pos, err := s.satellites.GetSatellitePosition(ctx, noradID, lat, lon, altM, !forceRefresh)
	if err != nil {
		return nil, err
	}

	return enrichPosition(pos, lat, lon, altM), nil
}

// GetMultiplePositions выполняет не более maxConcurrent запросов к API
// одновременно. Сбой по одному спутнику не валит весь пакет - такой
// спутник просто отсутствует в результате.
func (s *trackingService) GetMultiplePositions(ctx context.Context, noradIDs []int, lat, lon, altM float64, maxConcurrent int) (map[int]*models.EnrichedPosition, error) {
	if err := validateObserver(lat, lon, altM); err != nil {
		return nil, err
	}
	if maxConcurrent < 1 {
		maxConcurrent = s.maxConcurrent
	}

	positions := make(map[int]*models.EnrichedPosition, len(noradIDs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	for _, noradID := range noradIDs {
		noradID := noradID
		g.Go(func() error {
			pos, err := s.GetRealTimePosition(gctx, noradID, lat, lon, altM, false)
			if err != nil {
				log.Printf("Failed to get position for satellite %d: %v", noradID, err)
				return nil
			}

			mu.Lock()
			positions[noradID] = pos
			mu.Unlock()
			return nil
		})
	}

	// Горутины не возвращают ошибок, Wait нужен только для синхронизации
	_ = g.Wait()

	log.Printf("Retrieved positions for %d/%d satellites", len(positions), len(noradIDs))
	return positions, nil
}

func (s *trackingService) GetFavoritePositions(ctx context.Context, userID uint, forceRefresh bool) ([]models.FavoritePosition, error) {
	user, err := s.userRepo.GetActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	if user == nil {
		return nil, apperrors.NewNotFound("user", fmt.Sprintf("%d", userID))
	}

	location, err := s.userRepo.LatestLocation(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get location for user %d: %w", userID, err)
	}
	if location == nil {
		return nil, apperrors.NewValidation("location", "user must set location before getting satellite positions")
	}

	favorites, err := s.userRepo.Favorites(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get favorites for user %d: %w", userID, err)
	}
	if len(favorites) == 0 {
		return []models.FavoritePosition{}, nil
	}

	noradIDs := make([]int, 0, len(favorites))
	for _, fav := range favorites {
		noradIDs = append(noradIDs, fav.NoradID)
	}

	positions, err := s.GetMultiplePositions(ctx, noradIDs, location.Latitude, location.Longitude, 0, s.maxConcurrent)
	if err != nil {
		return nil, err
	}

	result := make([]models.FavoritePosition, 0, len(favorites))
	for _, fav := range favorites {
		entry := models.FavoritePosition{
			FavoriteID:      fav.ID,
			NoradID:         fav.NoradID,
			Name:            fmt.Sprintf("Satellite %d", fav.NoradID),
			Category:        "Unknown",
			AddedAt:         fav.CreatedAt,
			CurrentPosition: positions[fav.NoradID],
		}
		if fav.Satellite != nil {
			entry.Name = fav.Satellite.Name
			if fav.Satellite.Category != nil {
				entry.Category = *fav.Satellite.Category
			}
		}
		result = append(result, entry)
	}

	return result, nil
}

func (s *trackingService) GetPositionHistory(ctx context.Context, noradID int, hours, limit int) ([]models.PositionHistoryEntry, error) {
	if err := validateNoradID(noradID); err != nil {
		return nil, err
	}
	if hours < 1 {
		hours = 24
	}

	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	positions, err := s.positionRepo.GetHistory(ctx, noradID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get position history for satellite %d: %w", noradID, err)
	}

	now := time.Now().UTC()
	history := make([]models.PositionHistoryEntry, 0, len(positions))
	for _, pos := range positions {
		history = append(history, models.PositionHistoryEntry{
			SatellitePositionCache: pos,
			AgeSeconds:             int(now.Sub(pos.CreatedAt).Seconds()),
		})
	}

	return history, nil
}

// RefreshStalePositions обновляет позиции, которые скоро протухнут: порог
// maxAge короче TTL чтения, поэтому обновление происходит до промаха
func (s *trackingService) RefreshStalePositions(ctx context.Context, maxAge time.Duration, batchSize int) (models.RefreshStats, error) {
	cutoff := time.Now().UTC().Add(-maxAge)

	noradIDs, err := s.positionRepo.StaleNoradIDs(ctx, cutoff, batchSize)
	if err != nil {
		return models.RefreshStats{}, fmt.Errorf("failed to find stale positions: %w", err)
	}
	if len(noradIDs) == 0 {
		return models.RefreshStats{}, nil
	}

	lat, lon := s.representativeLocation(ctx)

	stats := models.RefreshStats{Total: len(noradIDs)}
	for _, noradID := range noradIDs {
		if _, err := s.GetRealTimePosition(ctx, noradID, lat, lon, 0, true); err != nil {
			log.Printf("Failed to refresh position for satellite %d: %v", noradID, err)
			stats.Failed++
			continue
		}
		stats.Refreshed++
	}

	log.Printf("Position refresh completed: %d refreshed, %d failed", stats.Refreshed, stats.Failed)
	return stats, nil
}

// representativeLocation - последняя созданная локация любого пользователя
// или дефолтная точка
func (s *trackingService) representativeLocation(ctx context.Context) (float64, float64) {
	loc, err := s.userRepo.LatestLocationAnyUser(ctx)
	if err != nil {
		log.Printf("Failed to get representative location: %v", err)
	}
	if loc != nil {
		return loc.Latitude, loc.Longitude
	}
	return defaultObserverLat, defaultObserverLon
}

func enrichPosition(pos *models.CachedPosition, obsLat, obsLon, obsAltM float64) *models.EnrichedPosition {
	distance := satmath.Distance3D(obsLat, obsLon, obsAltM, pos.Latitude, pos.Longitude, pos.Altitude)
	elevation := satmath.ElevationAngle(pos.Latitude, pos.Longitude, pos.Altitude, obsLat, obsLon, obsAltM/1000)

	visibility := models.VisibilityInfo{Status: "unknown"}
	if elevation > 0 {
		visibility.IsVisible = true
		visibility.Status = "above_horizon"
		visibility.Reason = fmt.Sprintf("Satellite is %.1f° above horizon", elevation)
	} else {
		visibility.Status = "below_horizon"
		visibility.Reason = fmt.Sprintf("Satellite is %.1f° below horizon", -elevation)
	}

	return &models.EnrichedPosition{
		CachedPosition: *pos,
		Observer: models.Observer{
			Latitude:  obsLat,
			Longitude: obsLon,
			Altitude:  obsAltM,
		},
		DistanceKm: roundTo(distance, 2),
		Visibility: visibility,
		FormattedCoordinates: models.FormattedCoordinates{
			Latitude:  fmt.Sprintf("%.6f°", pos.Latitude),
			Longitude: fmt.Sprintf("%.6f°", pos.Longitude),
			Altitude:  fmt.Sprintf("%.2f km", pos.Altitude),
		},
		RetrievedAt: time.Now().UTC(),
	}
}

func roundTo(value float64, places int) float64 {
	shift := 1.0
	for i := 0; i < places; i++ {
		shift *= 10
	}
	return float64(int64(value*shift+0.5)) / shift
}
