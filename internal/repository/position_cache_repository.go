package repository

import (
	"context"
	"errors"
	"time"

	"perseus/internal/models"

	"gorm.io/gorm"
)

type PositionCacheRepository interface {
	Create(ctx context.Context, pos *models.SatellitePositionCache) error
	GetLatest(ctx context.Context, noradID int) (*models.SatellitePositionCache, error)
	GetHistory(ctx context.Context, noradID int, since time.Time, limit int) ([]models.SatellitePositionCache, error)
	StaleNoradIDs(ctx context.Context, olderThan time.Time, limit int) ([]int, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteBySatellite(ctx context.Context, noradID int) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type positionCacheRepository struct {
	db *gorm.DB
}

func NewPositionCacheRepository(db *gorm.DB) PositionCacheRepository {
	return &positionCacheRepository{db: db}
}

func (r *positionCacheRepository) Create(ctx context.Context, pos *models.SatellitePositionCache) error {
	return r.db.WithContext(ctx).Create(pos).Error
}

func (r *positionCacheRepository) GetLatest(ctx context.Context, noradID int) (*models.SatellitePositionCache, error) {
	var pos models.SatellitePositionCache
	err := r.db.WithContext(ctx).
		Where("norad_id = ?", noradID).
		Order("created_at DESC").
		First(&pos).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pos, nil
}

func (r *positionCacheRepository) GetHistory(ctx context.Context, noradID int, since time.Time, limit int) ([]models.SatellitePositionCache, error) {
	if limit < 1 || limit > 1000 {
		limit = 100
	}

	var positions []models.SatellitePositionCache
	err := r.db.WithContext(ctx).
		Where("norad_id = ? AND created_at >= ?", noradID, since).
		Order("created_at DESC").
		Limit(limit).
		Find(&positions).
		Error
	return positions, err
}

// StaleNoradIDs возвращает спутники, самая свежая позиция которых старше olderThan
func (r *positionCacheRepository) StaleNoradIDs(ctx context.Context, olderThan time.Time, limit int) ([]int, error) {
	var ids []int
	err := r.db.WithContext(ctx).
		Model(&models.SatellitePositionCache{}).
		Select("norad_id").
		Group("norad_id").
		Having("MAX(created_at) < ?", olderThan).
		Limit(limit).
		Scan(&ids).
		Error
	return ids, err
}

func (r *positionCacheRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.SatellitePositionCache{})
	return result.RowsAffected, result.Error
}

func (r *positionCacheRepository) DeleteBySatellite(ctx context.Context, noradID int) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("norad_id = ?", noradID).
		Delete(&models.SatellitePositionCache{})
	return result.RowsAffected, result.Error
}

func (r *positionCacheRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SatellitePositionCache{}).
		Count(&count).
		Error
	return count, err
}
