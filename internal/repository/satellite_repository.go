package repository

import (
	"context"
	"errors"

	"perseus/internal/models"

	"gorm.io/gorm"
)

type SatelliteRepository interface {
	GetByNoradID(ctx context.Context, noradID int) (*models.Satellite, error)
	Exists(ctx context.Context, noradID int) (bool, error)
	Upsert(ctx context.Context, info *models.SatelliteInfo) (*models.Satellite, error)
	SearchByName(ctx context.Context, query string, limit int) ([]models.Satellite, error)
	Count(ctx context.Context) (int64, error)
}

type satelliteRepository struct {
	db *gorm.DB
}

func NewSatelliteRepository(db *gorm.DB) SatelliteRepository {
	return &satelliteRepository{db: db}
}

func (r *satelliteRepository) GetByNoradID(ctx context.Context, noradID int) (*models.Satellite, error) {
	var sat models.Satellite
	err := r.db.WithContext(ctx).
		Where("norad_id = ?", noradID).
		First(&sat).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sat, nil
}

func (r *satelliteRepository) Exists(ctx context.Context, noradID int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Satellite{}).
		Where("norad_id = ?", noradID).
		Count(&count).
		Error
	return count > 0, err
}

// Upsert обновляет запись свежими данными; nil-поля не затирают сохраненные значения
func (r *satelliteRepository) Upsert(ctx context.Context, info *models.SatelliteInfo) (*models.Satellite, error) {
	existing, err := r.GetByNoradID(ctx, info.NoradID)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		sat := &models.Satellite{
			NoradID:    info.NoradID,
			Name:       info.Name,
			LaunchDate: info.LaunchDate,
			Country:    info.Country,
			Category:   info.Category,
		}
		if err := r.db.WithContext(ctx).Create(sat).Error; err != nil {
			return nil, err
		}
		return sat, nil
	}

	if info.Name != "" {
		existing.Name = info.Name
	}
	if info.LaunchDate != nil {
		existing.LaunchDate = info.LaunchDate
	}
	if info.Country != nil {
		existing.Country = info.Country
	}
	if info.Category != nil {
		existing.Category = info.Category
	}

	if err := r.db.WithContext(ctx).Save(existing).Error; err != nil {
		return nil, err
	}
	return existing, nil
}

func (r *satelliteRepository) SearchByName(ctx context.Context, query string, limit int) ([]models.Satellite, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}

	var sats []models.Satellite
	err := r.db.WithContext(ctx).
		Where("name ILIKE ?", "%"+query+"%").
		Order("name").
		Limit(limit).
		Find(&sats).
		Error
	return sats, err
}

func (r *satelliteRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Satellite{}).
		Count(&count).
		Error
	return count, err
}
