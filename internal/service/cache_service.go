package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"perseus/internal/models"
	"perseus/internal/repository"
)

// CacheService - двухуровневый кэш спутниковых данных: Redis для скорости,
// Postgres как источник истины. Redis можно потерять целиком без потери данных.
type CacheService interface {
	GetCachedPosition(ctx context.Context, noradID int) *models.CachedPosition
	GetStalePosition(ctx context.Context, noradID int) *models.CachedPosition
	CachePosition(ctx context.Context, noradID int, pos *models.PositionData) bool
	GetCachedPasses(ctx context.Context, noradID int, lat, lon float64) []models.SatellitePassCache
	GetStalePasses(ctx context.Context, noradID int, lat, lon float64) []models.SatellitePassCache
	CachePasses(ctx context.Context, noradID int, lat, lon float64, passes []models.PassData) ([]models.SatellitePassCache, bool)
	InvalidateSatellite(ctx context.Context, noradID int) bool
	CleanupExpiredPositions(ctx context.Context) int64
	CleanupExpiredPasses(ctx context.Context) int64
	CleanupAllExpired(ctx context.Context) models.CleanupStats
}

type cacheService struct {
	satelliteRepo repository.SatelliteRepository
	positionRepo  repository.PositionCacheRepository
	passRepo      repository.PassCacheRepository
	cacheRepo     repository.CacheRepository
	positionTTL   time.Duration
	passesTTL     time.Duration
}

type CacheConfig struct {
	PositionTTL time.Duration
	PassesTTL   time.Duration
}

func NewCacheService(
	satelliteRepo repository.SatelliteRepository,
	positionRepo repository.PositionCacheRepository,
	passRepo repository.PassCacheRepository,
	cacheRepo repository.CacheRepository,
	config CacheConfig,
) CacheService {
	return &cacheService{
		satelliteRepo: satelliteRepo,
		positionRepo:  positionRepo,
		passRepo:      passRepo,
		cacheRepo:     cacheRepo,
		positionTTL:   config.PositionTTL,
		passesTTL:     config.PassesTTL,
	}
}

func positionKey(noradID int) string {
	return fmt.Sprintf("satellite_position:%d", noradID)
}

func passesKey(noradID int, lat, lon float64) string {
	return fmt.Sprintf("satellite_passes:%d:%v:%v", noradID, lat, lon)
}

// GetCachedPosition: сначала Redis, потом последняя строка в БД.
// Свежую строку из БД кладем в Redis с остатком TTL, чтобы уровни
// не расходились в оценке свежести.
func (s *cacheService) GetCachedPosition(ctx context.Context, noradID int) *models.CachedPosition {
	var cached models.CachedPosition
	found, err := s.cacheRepo.GetJSON(ctx, positionKey(noradID), &cached)
	if err != nil {
		log.Printf("Redis read failed for position %d: %v", noradID, err)
	} else if found {
		return &cached
	}

	latest, err := s.positionRepo.GetLatest(ctx, noradID)
	if err != nil {
		log.Printf("Failed to query position cache for satellite %d: %v", noradID, err)
		return nil
	}
	if latest == nil || latest.IsExpired(s.positionTTL) {
		return nil
	}

	pos := toCachedPosition(latest)

	remaining := s.positionTTL - time.Now().UTC().Sub(latest.CreatedAt)
	if remaining > 0 {
		if err := s.cacheRepo.SetJSON(ctx, positionKey(noradID), pos, remaining); err != nil {
			log.Printf("Failed to backfill Redis position for satellite %d: %v", noradID, err)
		}
	}

	return pos
}

// GetStalePosition игнорирует TTL: лучше устаревшие данные, чем отказ,
// когда внешний API лежит
func (s *cacheService) GetStalePosition(ctx context.Context, noradID int) *models.CachedPosition {
	latest, err := s.positionRepo.GetLatest(ctx, noradID)
	if err != nil {
		log.Printf("Failed to query stale position for satellite %d: %v", noradID, err)
		return nil
	}
	if latest == nil {
		return nil
	}
	return toCachedPosition(latest)
}

// CachePosition добавляет строку истории в БД и обновляет Redis.
// Спутник обязан существовать в справочнике - позиции не бывают сиротами.
func (s *cacheService) CachePosition(ctx context.Context, noradID int, pos *models.PositionData) bool {
	exists, err := s.satelliteRepo.Exists(ctx, noradID)
	if err != nil {
		log.Printf("Failed to check satellite %d existence: %v", noradID, err)
		return false
	}
	if !exists {
		log.Printf("Satellite %d not found in database, cannot cache position", noradID)
		return false
	}

	row := &models.SatellitePositionCache{
		NoradID:   noradID,
		Latitude:  pos.Latitude,
		Longitude: pos.Longitude,
		Altitude:  pos.Altitude,
		Velocity:  pos.Velocity,
		Timestamp: pos.Timestamp,
		Raw:       pos.Raw,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.positionRepo.Create(ctx, row); err != nil {
		log.Printf("Failed to cache position for satellite %d: %v", noradID, err)
		return false
	}

	if err := s.cacheRepo.SetJSON(ctx, positionKey(noradID), toCachedPosition(row), s.positionTTL); err != nil {
		log.Printf("Failed to cache position in Redis for satellite %d: %v", noradID, err)
	}

	return true
}

func (s *cacheService) GetCachedPasses(ctx context.Context, noradID int, lat, lon float64) []models.SatellitePassCache {
	var cached []models.SatellitePassCache
	found, err := s.cacheRepo.GetJSON(ctx, passesKey(noradID, lat, lon), &cached)
	if err != nil {
		log.Printf("Redis read failed for passes %d: %v", noradID, err)
	} else if found {
		return cached
	}

	passes, err := s.passRepo.GetUpcoming(ctx, noradID, lat, lon, time.Now().UTC())
	if err != nil {
		log.Printf("Failed to query pass cache for satellite %d: %v", noradID, err)
		return nil
	}
	if len(passes) == 0 {
		return nil
	}

	if err := s.cacheRepo.SetJSON(ctx, passesKey(noradID, lat, lon), passes, s.passesTTL); err != nil {
		log.Printf("Failed to backfill Redis passes for satellite %d: %v", noradID, err)
	}

	return passes
}

// GetStalePasses отдает будущие пролеты даже с истекшим expires_at
func (s *cacheService) GetStalePasses(ctx context.Context, noradID int, lat, lon float64) []models.SatellitePassCache {
	passes, err := s.passRepo.GetAnyFuture(ctx, noradID, lat, lon, time.Now().UTC())
	if err != nil {
		log.Printf("Failed to query stale passes for satellite %d: %v", noradID, err)
		return nil
	}
	return passes
}

// CachePasses полностью заменяет пачку для ключа (спутник, точка):
// частичное слияние оставляло бы дубликаты при смене окна прогноза
func (s *cacheService) CachePasses(ctx context.Context, noradID int, lat, lon float64, passes []models.PassData) ([]models.SatellitePassCache, bool) {
	exists, err := s.satelliteRepo.Exists(ctx, noradID)
	if err != nil {
		log.Printf("Failed to check satellite %d existence: %v", noradID, err)
		return nil, false
	}
	if !exists {
		log.Printf("Satellite %d not found in database, cannot cache passes", noradID)
		return nil, false
	}

	now := time.Now().UTC()
	expiresAt := now.Add(s.passesTTL)

	rows := make([]models.SatellitePassCache, 0, len(passes))
	for _, p := range passes {
		rows = append(rows, models.SatellitePassCache{
			NoradID:      noradID,
			Latitude:     lat,
			Longitude:    lon,
			StartTime:    p.StartTime,
			EndTime:      p.EndTime,
			MaxElevation: p.MaxElevation,
			StartAzimuth: p.StartAzimuth,
			EndAzimuth:   p.EndAzimuth,
			Magnitude:    p.Magnitude,
			CreatedAt:    now,
			ExpiresAt:    expiresAt,
		})
	}

	if err := s.passRepo.ReplaceForLocation(ctx, noradID, lat, lon, rows); err != nil {
		log.Printf("Failed to cache passes for satellite %d: %v", noradID, err)
		return rows, false
	}

	if err := s.cacheRepo.SetJSON(ctx, passesKey(noradID, lat, lon), rows, s.passesTTL); err != nil {
		log.Printf("Failed to cache passes in Redis for satellite %d: %v", noradID, err)
	}

	return rows, true
}

// InvalidateSatellite сбрасывает оба уровня кэша для спутника
func (s *cacheService) InvalidateSatellite(ctx context.Context, noradID int) bool {
	if err := s.cacheRepo.Delete(ctx, positionKey(noradID)); err != nil {
		log.Printf("Failed to delete Redis position key for satellite %d: %v", noradID, err)
	}
	if err := s.cacheRepo.DeleteByPattern(ctx, fmt.Sprintf("satellite_passes:%d:*", noradID)); err != nil {
		log.Printf("Failed to delete Redis pass keys for satellite %d: %v", noradID, err)
	}

	if _, err := s.positionRepo.DeleteBySatellite(ctx, noradID); err != nil {
		log.Printf("Failed to delete position cache for satellite %d: %v", noradID, err)
		return false
	}
	if _, err := s.passRepo.DeleteBySatellite(ctx, noradID); err != nil {
		log.Printf("Failed to delete pass cache for satellite %d: %v", noradID, err)
		return false
	}

	log.Printf("Cache invalidated for satellite %d", noradID)
	return true
}

// CleanupExpiredPositions держит короткую историю: порог 2xTTL намеренно
// мягче, чем отсечка чтения
func (s *cacheService) CleanupExpiredPositions(ctx context.Context) int64 {
	cutoff := time.Now().UTC().Add(-2 * s.positionTTL)

	deleted, err := s.positionRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		log.Printf("Failed to clean up expired positions: %v", err)
		return 0
	}

	if deleted > 0 {
		log.Printf("Cleaned up %d expired position cache entries", deleted)
	}
	return deleted
}

func (s *cacheService) CleanupExpiredPasses(ctx context.Context) int64 {
	deleted, err := s.passRepo.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		log.Printf("Failed to clean up expired passes: %v", err)
		return 0
	}

	if deleted > 0 {
		log.Printf("Cleaned up %d expired pass cache entries", deleted)
	}
	return deleted
}

func (s *cacheService) CleanupAllExpired(ctx context.Context) models.CleanupStats {
	positions := s.CleanupExpiredPositions(ctx)
	passes := s.CleanupExpiredPasses(ctx)

	return models.CleanupStats{
		Positions: positions,
		Passes:    passes,
		Total:     positions + passes,
	}
}

func toCachedPosition(row *models.SatellitePositionCache) *models.CachedPosition {
	return &models.CachedPosition{
		NoradID:   row.NoradID,
		Latitude:  row.Latitude,
		Longitude: row.Longitude,
		Altitude:  row.Altitude,
		Velocity:  row.Velocity,
		Timestamp: row.Timestamp,
		CachedAt:  row.CreatedAt,
	}
}
