package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"perseus/internal/apperrors"
	"perseus/internal/clients"
	"perseus/internal/models"
	"perseus/internal/repository"
	"perseus/internal/satmath"
)

// SatelliteService объединяет внешний API с кэшем.
// Лестница отказов: свежие данные -> кэш -> устаревший кэш при недоступности
// API -> ошибка, только если данных нет вообще.
type SatelliteService interface {
	GetSatelliteInfo(ctx context.Context, noradID int) (*models.Satellite, error)
	SearchSatellites(ctx context.Context, query string) ([]models.Satellite, error)
	GetSatellitePosition(ctx context.Context, noradID int, lat, lon, altM float64, useCache bool) (*models.CachedPosition, error)
	GetSatellitePasses(ctx context.Context, noradID int, lat, lon, altM float64, days int, minElevation float64, useCache bool) ([]models.SatellitePassCache, error)
	InvalidateSatelliteCache(ctx context.Context, noradID int) (bool, error)
	CleanupExpiredCache(ctx context.Context) models.CleanupStats
	RateLimitStatus() map[string]interface{}
}

type satelliteService struct {
	satelliteRepo repository.SatelliteRepository
	cache         CacheService
	client        clients.N2YOClient
}

func NewSatelliteService(
	satelliteRepo repository.SatelliteRepository,
	cache CacheService,
	client clients.N2YOClient,
) SatelliteService {
	return &satelliteService{
		satelliteRepo: satelliteRepo,
		cache:         cache,
		client:        client,
	}
}

func validateNoradID(noradID int) error {
	if !satmath.ValidateNoradID(noradID) {
		return apperrors.NewValidation("norad_id", fmt.Sprintf("invalid NORAD ID: %d", noradID))
	}
	return nil
}

func validateObserver(lat, lon, altM float64) error {
	if err := satmath.ValidateCoordinates(lat, lon); err != nil {
		return apperrors.NewValidation("coordinates", err.Error())
	}
	if altM < 0 || altM > 10000 {
		return apperrors.NewValidation("altitude", "altitude must be between 0 and 10000 meters")
	}
	return nil
}

func (s *satelliteService) GetSatelliteInfo(ctx context.Context, noradID int) (*models.Satellite, error) {
	if err := validateNoradID(noradID); err != nil {
		return nil, err
	}

	info, err := s.client.GetSatelliteInfo(ctx, noradID)
	if err != nil {
		// API подвел - отдаем локальную запись, если она есть
		local, dbErr := s.satelliteRepo.GetByNoradID(ctx, noradID)
		if dbErr == nil && local != nil {
			log.Printf("N2YO failed for satellite %d, using stored record: %v", noradID, err)
			return local, nil
		}
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("satellite", strconv.Itoa(noradID))
		}
		return nil, err
	}

	info.Name = satmath.FormatSatelliteName(info.Name)
	if info.Category == nil {
		category := satmath.CategorizeSatellite(info.Name)
		info.Category = &category
	}

	sat, err := s.satelliteRepo.Upsert(ctx, info)
	if err != nil {
		return nil, fmt.Errorf("failed to store satellite %d: %w", noradID, err)
	}

	log.Printf("Retrieved satellite info for %d from API", noradID)
	return sat, nil
}

// SearchSatellites ищет по локальному справочнику: у N2YO нет поиска по имени,
// справочник наполняется по мере обращений и добавлений в избранное
func (s *satelliteService) SearchSatellites(ctx context.Context, query string) ([]models.Satellite, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return nil, apperrors.NewValidation("query", "search query must be at least 2 characters long")
	}

	sats, err := s.satelliteRepo.SearchByName(ctx, query, 50)
	if err != nil {
		return nil, fmt.Errorf("failed to search satellites: %w", err)
	}

	log.Printf("Search for %q returned %d satellites", query, len(sats))
	return sats, nil
}

func (s *satelliteService) GetSatellitePosition(ctx context.Context, noradID int, lat, lon, altM float64, useCache bool) (*models.CachedPosition, error) {
	if err := validateNoradID(noradID); err != nil {
		return nil, err
	}
	if err := validateObserver(lat, lon, altM); err != nil {
		return nil, err
	}

	if useCache {
		if cached := s.cache.GetCachedPosition(ctx, noradID); cached != nil {
			return cached, nil
		}
	}

	pos, err := s.client.GetPosition(ctx, noradID, lat, lon, altM)
	if err != nil {
		if apperrors.IsUnavailable(err) {
			// Устаревший кэш лучше отказа, даже при форсированном обновлении
			if stale := s.cache.GetStalePosition(ctx, noradID); stale != nil {
				log.Printf("N2YO unavailable for position %d, serving stale cache: %v", noradID, err)
				return stale, nil
			}
		}
		return nil, err
	}

	s.ensureSatellite(ctx, noradID)
	s.cache.CachePosition(ctx, noradID, pos)

	log.Printf("Retrieved position for satellite %d from API", noradID)
	return &models.CachedPosition{
		NoradID:   noradID,
		Latitude:  pos.Latitude,
		Longitude: pos.Longitude,
		Altitude:  pos.Altitude,
		Velocity:  pos.Velocity,
		Timestamp: pos.Timestamp,
		CachedAt:  time.Now().UTC(),
	}, nil
}

func (s *satelliteService) GetSatellitePasses(ctx context.Context, noradID int, lat, lon, altM float64, days int, minElevation float64, useCache bool) ([]models.SatellitePassCache, error) {
	if err := validateNoradID(noradID); err != nil {
		return nil, err
	}
	if err := validateObserver(lat, lon, altM); err != nil {
		return nil, err
	}
	if days < 1 || days > 10 {
		return nil, apperrors.NewValidation("days", "days must be between 1 and 10")
	}
	if minElevation < 0 || minElevation > 90 {
		return nil, apperrors.NewValidation("min_elevation", "minimum elevation must be between 0 and 90 degrees")
	}

	if useCache {
		if cached := s.cache.GetCachedPasses(ctx, noradID, lat, lon); cached != nil {
			return filterPassesByElevation(cached, minElevation), nil
		}
	}

	passes, err := s.client.GetPasses(ctx, noradID, lat, lon, altM, days)
	if err != nil {
		if apperrors.IsUnavailable(err) {
			if stale := s.cache.GetStalePasses(ctx, noradID, lat, lon); stale != nil {
				log.Printf("N2YO unavailable for passes %d, serving stale cache: %v", noradID, err)
				return filterPassesByElevation(stale, minElevation), nil
			}
		}
		return nil, err
	}

	s.ensureSatellite(ctx, noradID)
	rows, _ := s.cache.CachePasses(ctx, noradID, lat, lon, passes)

	log.Printf("Retrieved %d passes for satellite %d from API", len(rows), noradID)
	return filterPassesByElevation(rows, minElevation), nil
}

func (s *satelliteService) InvalidateSatelliteCache(ctx context.Context, noradID int) (bool, error) {
	if err := validateNoradID(noradID); err != nil {
		return false, err
	}
	return s.cache.InvalidateSatellite(ctx, noradID), nil
}

func (s *satelliteService) CleanupExpiredCache(ctx context.Context) models.CleanupStats {
	return s.cache.CleanupAllExpired(ctx)
}

func (s *satelliteService) RateLimitStatus() map[string]interface{} {
	return s.client.RateLimitStatus()
}

// ensureSatellite создает минимальную запись при первом успешном фетче,
// чтобы строки позиций и пролетов всегда имели родителя
func (s *satelliteService) ensureSatellite(ctx context.Context, noradID int) {
	exists, err := s.satelliteRepo.Exists(ctx, noradID)
	if err != nil {
		log.Printf("Failed to check satellite %d: %v", noradID, err)
		return
	}
	if exists {
		return
	}

	name := fmt.Sprintf("Satellite %d", noradID)
	category := "Other"
	_, err = s.satelliteRepo.Upsert(ctx, &models.SatelliteInfo{
		NoradID:  noradID,
		Name:     name,
		Category: &category,
	})
	if err != nil {
		log.Printf("Failed to create satellite record for %d: %v", noradID, err)
	}
}

func filterPassesByElevation(passes []models.SatellitePassCache, minElevation float64) []models.SatellitePassCache {
	filtered := make([]models.SatellitePassCache, 0, len(passes))
	for _, p := range passes {
		if p.MaxElevation >= minElevation {
			filtered = append(filtered, p)
		}
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].StartTime.Before(filtered[j].StartTime)
	})
	return filtered
}
