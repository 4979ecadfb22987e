package service

import (
	"context"
	"fmt"
	"log"

	"perseus/internal/apperrors"
	"perseus/internal/models"
	"perseus/internal/repository"
	"perseus/internal/satmath"
)

// LocationService - точки наблюдения пользователя
type LocationService interface {
	SetLocation(ctx context.Context, userID uint, lat, lon float64, address *string) (*models.UserLocation, error)
	GetLatestLocation(ctx context.Context, userID uint) (*models.UserLocation, error)
}

type locationService struct {
	userRepo repository.UserRepository
}

func NewLocationService(userRepo repository.UserRepository) LocationService {
	return &locationService{userRepo: userRepo}
}

// SetLocation добавляет новую запись, история локаций сохраняется
func (s *locationService) SetLocation(ctx context.Context, userID uint, lat, lon float64, address *string) (*models.UserLocation, error) {
	if err := satmath.ValidateCoordinates(lat, lon); err != nil {
		return nil, apperrors.NewValidation("coordinates", err.Error())
	}

	user, err := s.userRepo.GetActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	if user == nil {
		return nil, apperrors.NewNotFound("user", fmt.Sprintf("%d", userID))
	}

	loc := &models.UserLocation{
		UserID:    userID,
		Latitude:  lat,
		Longitude: lon,
		Address:   address,
	}
	if err := s.userRepo.CreateLocation(ctx, loc); err != nil {
		return nil, fmt.Errorf("failed to save location: %w", err)
	}

	log.Printf("User %d set location (%.4f, %.4f)", userID, lat, lon)
	return loc, nil
}

func (s *locationService) GetLatestLocation(ctx context.Context, userID uint) (*models.UserLocation, error) {
	loc, err := s.userRepo.LatestLocation(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get location: %w", err)
	}
	if loc == nil {
		return nil, apperrors.NewNotFound("location", fmt.Sprintf("user %d", userID))
	}
	return loc, nil
}
