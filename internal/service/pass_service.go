package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"perseus/internal/apperrors"
	"perseus/internal/models"
	"perseus/internal/repository"
	"perseus/internal/satmath"
)

// Интервалы уведомлений по умолчанию перед началом пролета, минуты
var defaultAlertMinutes = []int{60, 15, 5}

// PassService - прогнозы пролетов: обогащение оценками качества,
// фильтрация, сводки по избранному и уведомления
type PassService interface {
	GetSatellitePasses(ctx context.Context, noradID int, lat, lon, altM float64, days int, minElevation float64, filter string) ([]models.EnrichedPass, error)
	GetAllFavoritePasses(ctx context.Context, userID uint, days int, minElevation float64, filter string, maxPerSatellite int) ([]models.EnrichedPass, error)
	GetUpcomingPasses(ctx context.Context, userID uint, hours int, minElevation float64) ([]models.EnrichedPass, error)
	GetPassAlerts(ctx context.Context, userID uint, alertMinutes []int) ([]models.PassAlert, error)
	OptimizePassCache(ctx context.Context, days int) (map[string]interface{}, error)
}

type passService struct {
	satellites    SatelliteService
	satelliteRepo repository.SatelliteRepository
	passRepo      repository.PassCacheRepository
	userRepo      repository.UserRepository
}

func NewPassService(
	satellites SatelliteService,
	satelliteRepo repository.SatelliteRepository,
	passRepo repository.PassCacheRepository,
	userRepo repository.UserRepository,
) PassService {
	return &passService{
		satellites:    satellites,
		satelliteRepo: satelliteRepo,
		passRepo:      passRepo,
		userRepo:      userRepo,
	}
}

func (s *passService) GetSatellitePasses(ctx context.Context, noradID int, lat, lon, altM float64, days int, minElevation float64, filter string) ([]models.EnrichedPass, error) {
	if err := validatePassFilter(filter); err != nil {
		return nil, err
	}

	passes, err := s.satellites.GetSatellitePasses(ctx, noradID, lat, lon, altM, days, minElevation, true)
	if err != nil {
		return nil, err
	}

	observer := models.Observer{Latitude: lat, Longitude: lon, Altitude: altM}
	now := time.Now().UTC()

	enriched := make([]models.EnrichedPass, 0, len(passes))
	for _, pass := range passes {
		enriched = append(enriched, enrichPass(pass, observer, now))
	}

	enriched = filterPasses(enriched, filter)
	sortPasses(enriched)
	return enriched, nil
}

// GetAllFavoritePasses собирает пролеты по всем избранным спутникам
// пользователя. Сбой по одному спутнику пропускается, остальные
// спутники все равно попадают в выдачу.
func (s *passService) GetAllFavoritePasses(ctx context.Context, userID uint, days int, minElevation float64, filter string, maxPerSatellite int) ([]models.EnrichedPass, error) {
	if days < 1 || days > 10 {
		return nil, apperrors.NewValidation("days", "days must be between 1 and 10")
	}
	if minElevation < 0 || minElevation > 90 {
		return nil, apperrors.NewValidation("min_elevation", "minimum elevation must be between 0 and 90 degrees")
	}
	if err := validatePassFilter(filter); err != nil {
		return nil, err
	}
	if maxPerSatellite < 1 {
		maxPerSatellite = 3
	}

	location, favorites, err := s.favoritesWithLocation(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := make([]models.EnrichedPass, 0, len(favorites)*maxPerSatellite)

	for _, fav := range favorites {
		enriched, err := s.GetSatellitePasses(ctx, fav.NoradID, location.Latitude, location.Longitude, 0, days, minElevation, filter)
		if err != nil {
			log.Printf("Failed to get passes for satellite %d: %v", fav.NoradID, err)
			continue
		}

		ref := favoriteRef(fav)
		if len(enriched) > maxPerSatellite {
			enriched = enriched[:maxPerSatellite]
		}
		for i := range enriched {
			enriched[i].Satellite = &ref
		}
		result = append(result, enriched...)
	}

	// Сводка по нескольким спутникам сортируется только по времени начала
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartTime.Before(result[j].StartTime)
	})

	log.Printf("Collected %d passes for %d favorite satellites (user %d)", len(result), len(favorites), userID)
	return result, nil
}

// GetUpcomingPasses читает только из долговременного кэша, без обращений
// к внешнему API
func (s *passService) GetUpcomingPasses(ctx context.Context, userID uint, hours int, minElevation float64) ([]models.EnrichedPass, error) {
	if hours < 1 {
		hours = 24
	}
	if minElevation < 0 || minElevation > 90 {
		return nil, apperrors.NewValidation("min_elevation", "minimum elevation must be between 0 and 90 degrees")
	}

	location, favorites, err := s.favoritesWithLocation(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(favorites) == 0 {
		return []models.EnrichedPass{}, nil
	}

	noradIDs := make([]int, 0, len(favorites))
	refs := make(map[int]models.SatelliteRef, len(favorites))
	for _, fav := range favorites {
		noradIDs = append(noradIDs, fav.NoradID)
		refs[fav.NoradID] = favoriteRef(fav)
	}

	now := time.Now().UTC()
	passes, err := s.passRepo.GetUpcomingForSatellites(ctx, noradIDs, location.Latitude, location.Longitude, now, now.Add(time.Duration(hours)*time.Hour), minElevation)
	if err != nil {
		return nil, fmt.Errorf("failed to get upcoming passes: %w", err)
	}

	observer := models.Observer{Latitude: location.Latitude, Longitude: location.Longitude}
	result := make([]models.EnrichedPass, 0, len(passes))
	for _, pass := range passes {
		enriched := enrichPass(pass, observer, now)
		if ref, ok := refs[pass.NoradID]; ok {
			r := ref
			enriched.Satellite = &r
		}
		result = append(result, enriched)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].StartTime.Before(result[j].StartTime)
	})
	return result, nil
}

// GetPassAlerts возвращает пролеты, до начала которых осталось примерно
// столько минут, сколько задано в alertMinutes (окно плюс-минус минута
// вокруг каждой отметки). Пустой список означает отметки по умолчанию.
func (s *passService) GetPassAlerts(ctx context.Context, userID uint, alertMinutes []int) ([]models.PassAlert, error) {
	if len(alertMinutes) == 0 {
		alertMinutes = defaultAlertMinutes
	}
	for _, lead := range alertMinutes {
		if lead < 1 || lead > 1440 {
			return nil, apperrors.NewValidation("alert_minutes", "alert lead times must be between 1 and 1440 minutes")
		}
	}

	passes, err := s.GetUpcomingPasses(ctx, userID, 2, 0)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	alerts := make([]models.PassAlert, 0)
	for _, pass := range passes {
		for _, lead := range alertMinutes {
			window := time.Duration(lead) * time.Minute
			delta := pass.StartTime.Sub(now) - window
			if delta < -time.Minute || delta > time.Minute {
				continue
			}
			alerts = append(alerts, models.PassAlert{
				Pass:             pass,
				AlertType:        fmt.Sprintf("%dmin", lead),
				AlertTime:        now,
				PassStartTime:    pass.StartTime,
				MinutesUntilPass: int(pass.StartTime.Sub(now).Minutes()),
			})
			break
		}
	}
	return alerts, nil
}

// OptimizePassCache прогревает кэш пролетов для популярных локаций и
// самых добавляемых в избранное спутников
func (s *passService) OptimizePassCache(ctx context.Context, days int) (map[string]interface{}, error) {
	if days < 1 || days > 10 {
		days = 2
	}

	noradIDs, err := s.userRepo.DistinctFavoriteNoradIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get favorite satellites: %w", err)
	}
	if len(noradIDs) > 10 {
		noradIDs = noradIDs[:10]
	}

	locations, err := s.popularLocations(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	warmed, skipped, failed := 0, 0, 0
	for _, loc := range locations {
		for _, noradID := range noradIDs {
			fresh, err := s.passRepo.HasFreshCache(ctx, noradID, loc.Latitude, loc.Longitude, now)
			if err == nil && fresh {
				skipped++
				continue
			}
			if _, err := s.satellites.GetSatellitePasses(ctx, noradID, loc.Latitude, loc.Longitude, 0, days, 0, false); err != nil {
				log.Printf("Failed to warm pass cache for satellite %d: %v", noradID, err)
				failed++
				continue
			}
			warmed++
		}
	}

	log.Printf("Pass cache optimization: %d warmed, %d skipped, %d failed", warmed, skipped, failed)
	return map[string]interface{}{
		"locations":  len(locations),
		"satellites": len(noradIDs),
		"warmed":     warmed,
		"skipped":    skipped,
		"failed":     failed,
	}, nil
}

func (s *passService) favoritesWithLocation(ctx context.Context, userID uint) (*models.UserLocation, []models.UserFavoriteSatellite, error) {
	location, err := s.userRepo.LatestLocation(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get location for user %d: %w", userID, err)
	}
	if location == nil {
		return nil, nil, apperrors.NewValidation("location", "user must set location before getting pass predictions")
	}

	favorites, err := s.userRepo.Favorites(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get favorites for user %d: %w", userID, err)
	}
	return location, favorites, nil
}

// popularLocations - уникальные точки наблюдения с шагом около полградуса
func (s *passService) popularLocations(ctx context.Context) ([]models.UserLocation, error) {
	latest, err := s.userRepo.LatestLocationAnyUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get locations: %w", err)
	}
	if latest == nil {
		return []models.UserLocation{{Latitude: defaultObserverLat, Longitude: defaultObserverLon}}, nil
	}

	rounded := models.UserLocation{
		Latitude:  math.Round(latest.Latitude*2) / 2,
		Longitude: math.Round(latest.Longitude*2) / 2,
	}
	return []models.UserLocation{rounded}, nil
}

func favoriteRef(fav models.UserFavoriteSatellite) models.SatelliteRef {
	ref := models.SatelliteRef{
		NoradID:    fav.NoradID,
		Name:       fmt.Sprintf("Satellite %d", fav.NoradID),
		Category:   "Unknown",
		FavoriteID: fav.ID,
	}
	if fav.Satellite != nil {
		ref.Name = fav.Satellite.Name
		if fav.Satellite.Category != nil {
			ref.Category = *fav.Satellite.Category
		}
	}
	return ref
}

func validatePassFilter(filter string) error {
	switch filter {
	case "", "all", "visible", "bright":
		return nil
	}
	return apperrors.NewValidation("filter", "filter must be one of: all, visible, bright")
}

// enrichPass добавляет к прогнозу расчетные поля. Момент now передается
// снаружи, чтобы оценки были согласованы в пределах одной выдачи.
func enrichPass(pass models.SatellitePassCache, observer models.Observer, now time.Time) models.EnrichedPass {
	duration := pass.Duration()
	timeUntil := int(pass.StartTime.Sub(now).Seconds())
	if timeUntil < 0 {
		timeUntil = 0
	}

	return models.EnrichedPass{
		SatellitePassCache: pass,
		Observer:           observer,
		DurationSeconds:    duration,
		DurationFormatted:  satmath.FormatDuration(duration),
		TimeUntilSeconds:   timeUntil,
		TimeUntilFormatted: satmath.FormatDuration(timeUntil),
		VisibilityQuality:  scorePassQuality(pass),
		PriorityScore:      scorePassPriority(pass, now),
		ElevationCategory:  elevationCategory(pass.MaxElevation),
	}
}

// scorePassQuality - оценка качества наблюдения по элевации, яркости
// и длительности
func scorePassQuality(pass models.SatellitePassCache) models.VisibilityQuality {
	score := 0
	factors := make([]string, 0, 3)

	switch {
	case pass.MaxElevation > 60:
		score += 40
		factors = append(factors, "excellent elevation")
	case pass.MaxElevation > 30:
		score += 25
		factors = append(factors, "good elevation")
	case pass.MaxElevation > 10:
		score += 10
		factors = append(factors, "moderate elevation")
	}

	if pass.Magnitude != nil {
		switch {
		case *pass.Magnitude < -2:
			score += 30
			factors = append(factors, "very bright")
		case *pass.Magnitude < 0:
			score += 20
			factors = append(factors, "bright")
		case *pass.Magnitude < 2:
			score += 10
			factors = append(factors, "visible brightness")
		}
	}

	duration := pass.Duration()
	switch {
	case duration > 600:
		score += 15
		factors = append(factors, "long pass")
	case duration > 300:
		score += 10
		factors = append(factors, "medium pass")
	}

	rating := "poor"
	switch {
	case score >= 50:
		rating = "excellent"
	case score >= 30:
		rating = "good"
	case score >= 15:
		rating = "fair"
	}

	return models.VisibilityQuality{Rating: rating, Score: score, Factors: factors}
}

// scorePassPriority - приоритет для сортировки, выше у высоких, ярких,
// долгих и близких по времени пролетов
func scorePassPriority(pass models.SatellitePassCache, now time.Time) int {
	score := math.Min(40, pass.MaxElevation*0.67)

	if pass.Magnitude != nil {
		score += math.Min(30, math.Max(0, 30-*pass.Magnitude*5))
	}

	score += math.Min(20, float64(pass.Duration())/30)

	timeUntil := pass.StartTime.Sub(now).Seconds()
	if timeUntil >= 0 && timeUntil < 86400 {
		score += 10 - timeUntil/8640
	}

	return int(score)
}

func elevationCategory(maxElevation float64) string {
	switch {
	case maxElevation > 80:
		return "overhead"
	case maxElevation > 50:
		return "high"
	case maxElevation > 25:
		return "medium"
	default:
		return "low"
	}
}

func filterPasses(passes []models.EnrichedPass, filter string) []models.EnrichedPass {
	if filter == "" || filter == "all" {
		return passes
	}

	filtered := make([]models.EnrichedPass, 0, len(passes))
	for _, pass := range passes {
		switch filter {
		case "visible":
			if pass.MaxElevation > 10 || (pass.Magnitude != nil && *pass.Magnitude < 4) {
				filtered = append(filtered, pass)
			}
		case "bright":
			if (pass.Magnitude != nil && *pass.Magnitude < 2) || pass.MaxElevation > 30 {
				filtered = append(filtered, pass)
			}
		}
	}
	return filtered
}

// sortPasses упорядочивает по времени начала, при равенстве выше
// приоритетные
func sortPasses(passes []models.EnrichedPass) {
	sort.Slice(passes, func(i, j int) bool {
		if passes[i].StartTime.Equal(passes[j].StartTime) {
			return passes[i].PriorityScore > passes[j].PriorityScore
		}
		return passes[i].StartTime.Before(passes[j].StartTime)
	})
}
