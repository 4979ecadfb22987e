package repository

import (
	"context"
	"time"

	"perseus/internal/models"

	"gorm.io/gorm"
)

type PassCacheRepository interface {
	// ReplaceForLocation удаляет старую пачку для ключа и вставляет новую
	ReplaceForLocation(ctx context.Context, noradID int, lat, lon float64, passes []models.SatellitePassCache) error
	GetUpcoming(ctx context.Context, noradID int, lat, lon float64, now time.Time) ([]models.SatellitePassCache, error)
	GetAnyFuture(ctx context.Context, noradID int, lat, lon float64, now time.Time) ([]models.SatellitePassCache, error)
	GetUpcomingForSatellites(ctx context.Context, noradIDs []int, lat, lon float64, from, to time.Time, minElevation float64) ([]models.SatellitePassCache, error)
	HasFreshCache(ctx context.Context, noradID int, lat, lon float64, now time.Time) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	DeleteBySatellite(ctx context.Context, noradID int) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type passCacheRepository struct {
	db *gorm.DB
}

func NewPassCacheRepository(db *gorm.DB) PassCacheRepository {
	return &passCacheRepository{db: db}
}

// ReplaceForLocation: delete-then-insert без транзакции. Гонка двух писателей
// по одному ключу сходится к пачке последнего - операция идемпотентна.
func (r *passCacheRepository) ReplaceForLocation(ctx context.Context, noradID int, lat, lon float64, passes []models.SatellitePassCache) error {
	err := r.db.WithContext(ctx).
		Where("norad_id = ? AND latitude = ? AND longitude = ?", noradID, lat, lon).
		Delete(&models.SatellitePassCache{}).
		Error
	if err != nil {
		return err
	}

	if len(passes) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Create(&passes).Error
}

// GetUpcoming - будущие непросроченные пролеты для ключа, по времени старта
func (r *passCacheRepository) GetUpcoming(ctx context.Context, noradID int, lat, lon float64, now time.Time) ([]models.SatellitePassCache, error) {
	var passes []models.SatellitePassCache
	err := r.db.WithContext(ctx).
		Where("norad_id = ? AND latitude = ? AND longitude = ? AND expires_at > ? AND start_time > ?",
			noradID, lat, lon, now, now).
		Order("start_time").
		Find(&passes).
		Error
	return passes, err
}

// GetAnyFuture игнорирует expires_at - используется для выдачи устаревших
// данных, когда внешний API недоступен
func (r *passCacheRepository) GetAnyFuture(ctx context.Context, noradID int, lat, lon float64, now time.Time) ([]models.SatellitePassCache, error) {
	var passes []models.SatellitePassCache
	err := r.db.WithContext(ctx).
		Where("norad_id = ? AND latitude = ? AND longitude = ? AND start_time > ?",
			noradID, lat, lon, now).
		Order("start_time").
		Find(&passes).
		Error
	return passes, err
}

func (r *passCacheRepository) GetUpcomingForSatellites(ctx context.Context, noradIDs []int, lat, lon float64, from, to time.Time, minElevation float64) ([]models.SatellitePassCache, error) {
	if len(noradIDs) == 0 {
		return nil, nil
	}

	var passes []models.SatellitePassCache
	err := r.db.WithContext(ctx).
		Where("norad_id IN ? AND latitude = ? AND longitude = ?", noradIDs, lat, lon).
		Where("start_time >= ? AND start_time <= ?", from, to).
		Where("max_elevation >= ? AND expires_at > ?", minElevation, from).
		Order("start_time").
		Find(&passes).
		Error
	return passes, err
}

func (r *passCacheRepository) HasFreshCache(ctx context.Context, noradID int, lat, lon float64, now time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SatellitePassCache{}).
		Where("norad_id = ? AND latitude = ? AND longitude = ? AND expires_at > ?", noradID, lat, lon, now).
		Count(&count).
		Error
	return count > 0, err
}

// DeleteExpired удаляет просроченные и уже закончившиеся пролеты
func (r *passCacheRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ? OR end_time < ?", now, now).
		Delete(&models.SatellitePassCache{})
	return result.RowsAffected, result.Error
}

func (r *passCacheRepository) DeleteBySatellite(ctx context.Context, noradID int) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("norad_id = ?", noradID).
		Delete(&models.SatellitePassCache{})
	return result.RowsAffected, result.Error
}

func (r *passCacheRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SatellitePassCache{}).
		Count(&count).
		Error
	return count, err
}
