package repository

import (
	"context"
	"errors"

	"perseus/internal/models"

	"gorm.io/gorm"
)

// UserRepository - справочник пользователей, локаций и избранного
type UserRepository interface {
	GetActive(ctx context.Context, userID uint) (*models.User, error)
	LatestLocation(ctx context.Context, userID uint) (*models.UserLocation, error)
	LatestLocationAnyUser(ctx context.Context) (*models.UserLocation, error)
	CreateLocation(ctx context.Context, loc *models.UserLocation) error
	Favorites(ctx context.Context, userID uint) ([]models.UserFavoriteSatellite, error)
	FavoriteNoradIDs(ctx context.Context, userID uint) ([]int, error)
	DistinctFavoriteNoradIDs(ctx context.Context) ([]int, error)
	FavoriteExists(ctx context.Context, userID uint, noradID int) (bool, error)
	CreateFavorite(ctx context.Context, fav *models.UserFavoriteSatellite) error
	DeleteFavorite(ctx context.Context, userID uint, noradID int) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetActive(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", userID, true).
		First(&user).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) LatestLocation(ctx context.Context, userID uint) (*models.UserLocation, error) {
	var loc models.UserLocation
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&loc).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

// LatestLocationAnyUser - репрезентативная точка наблюдения для фоновых задач
func (r *userRepository) LatestLocationAnyUser(ctx context.Context) (*models.UserLocation, error) {
	var loc models.UserLocation
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		First(&loc).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

func (r *userRepository) CreateLocation(ctx context.Context, loc *models.UserLocation) error {
	return r.db.WithContext(ctx).Create(loc).Error
}

func (r *userRepository) Favorites(ctx context.Context, userID uint) ([]models.UserFavoriteSatellite, error) {
	var favorites []models.UserFavoriteSatellite
	err := r.db.WithContext(ctx).
		Preload("Satellite").
		Where("user_id = ?", userID).
		Order("created_at").
		Find(&favorites).
		Error
	return favorites, err
}

func (r *userRepository) FavoriteNoradIDs(ctx context.Context, userID uint) ([]int, error) {
	var ids []int
	err := r.db.WithContext(ctx).
		Model(&models.UserFavoriteSatellite{}).
		Where("user_id = ?", userID).
		Pluck("norad_id", &ids).
		Error
	return ids, err
}

func (r *userRepository) DistinctFavoriteNoradIDs(ctx context.Context) ([]int, error) {
	var ids []int
	err := r.db.WithContext(ctx).
		Model(&models.UserFavoriteSatellite{}).
		Distinct("norad_id").
		Pluck("norad_id", &ids).
		Error
	return ids, err
}

func (r *userRepository) FavoriteExists(ctx context.Context, userID uint, noradID int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.UserFavoriteSatellite{}).
		Where("user_id = ? AND norad_id = ?", userID, noradID).
		Count(&count).
		Error
	return count > 0, err
}

func (r *userRepository) CreateFavorite(ctx context.Context, fav *models.UserFavoriteSatellite) error {
	return r.db.WithContext(ctx).Create(fav).Error
}

func (r *userRepository) DeleteFavorite(ctx context.Context, userID uint, noradID int) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND norad_id = ?", userID, noradID).
		Delete(&models.UserFavoriteSatellite{})
	return result.RowsAffected, result.Error
}
