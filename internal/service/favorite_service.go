package service

import (
	"context"
	"fmt"
	"log"

	"perseus/internal/apperrors"
	"perseus/internal/models"
	"perseus/internal/repository"
)

// FavoriteService - избранные спутники пользователя
type FavoriteService interface {
	AddFavorite(ctx context.Context, userID uint, noradID int) (*models.UserFavoriteSatellite, error)
	RemoveFavorite(ctx context.Context, userID uint, noradID int) error
	ListFavorites(ctx context.Context, userID uint) ([]models.UserFavoriteSatellite, error)
}

type favoriteService struct {
	satellites SatelliteService
	userRepo   repository.UserRepository
}

func NewFavoriteService(satellites SatelliteService, userRepo repository.UserRepository) FavoriteService {
	return &favoriteService{satellites: satellites, userRepo: userRepo}
}

func (s *favoriteService) AddFavorite(ctx context.Context, userID uint, noradID int) (*models.UserFavoriteSatellite, error) {
	if err := validateNoradID(noradID); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	if user == nil {
		return nil, apperrors.NewNotFound("user", fmt.Sprintf("%d", userID))
	}

	exists, err := s.userRepo.FavoriteExists(ctx, userID, noradID)
	if err != nil {
		return nil, fmt.Errorf("failed to check favorite: %w", err)
	}
	if exists {
		return nil, &apperrors.ConflictError{Message: fmt.Sprintf("satellite %d is already in favorites", noradID)}
	}

	// Подтягиваем карточку спутника, чтобы избранное сразу имело имя
	// и категорию. Недоступность внешнего API не мешает добавлению.
	if _, err := s.satellites.GetSatelliteInfo(ctx, noradID); err != nil {
		if apperrors.IsNotFound(err) {
			return nil, err
		}
		log.Printf("Failed to fetch satellite %d info while adding favorite: %v", noradID, err)
	}

	fav := &models.UserFavoriteSatellite{UserID: userID, NoradID: noradID}
	if err := s.userRepo.CreateFavorite(ctx, fav); err != nil {
		return nil, fmt.Errorf("failed to add favorite: %w", err)
	}

	log.Printf("User %d added satellite %d to favorites", userID, noradID)
	return fav, nil
}

func (s *favoriteService) RemoveFavorite(ctx context.Context, userID uint, noradID int) error {
	if err := validateNoradID(noradID); err != nil {
		return err
	}

	deleted, err := s.userRepo.DeleteFavorite(ctx, userID, noradID)
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	if deleted == 0 {
		return apperrors.NewNotFound("favorite", fmt.Sprintf("%d", noradID))
	}

	log.Printf("User %d removed satellite %d from favorites", userID, noradID)
	return nil
}

func (s *favoriteService) ListFavorites(ctx context.Context, userID uint) ([]models.UserFavoriteSatellite, error) {
	favorites, err := s.userRepo.Favorites(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	return favorites, nil
}
