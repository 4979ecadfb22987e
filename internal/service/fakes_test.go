package service

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"perseus/internal/models"
)

// Фейковые репозитории в памяти для тестов сервисного слоя

type fakeSatelliteRepo struct {
	mu         sync.Mutex
	satellites map[int]*models.Satellite
}

func newFakeSatelliteRepo() *fakeSatelliteRepo {
	return &fakeSatelliteRepo{satellites: make(map[int]*models.Satellite)}
}

func (f *fakeSatelliteRepo) GetByNoradID(_ context.Context, noradID int) (*models.Satellite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if sat, ok := f.satellites[noradID]; ok {
		copied := *sat
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeSatelliteRepo) Exists(_ context.Context, noradID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.satellites[noradID]
	return ok, nil
}

func (f *fakeSatelliteRepo) Upsert(_ context.Context, info *models.SatelliteInfo) (*models.Satellite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sat, ok := f.satellites[info.NoradID]
	if !ok {
		sat = &models.Satellite{NoradID: info.NoradID, CreatedAt: time.Now().UTC()}
		f.satellites[info.NoradID] = sat
	}
	sat.Name = info.Name
	if info.LaunchDate != nil {
		sat.LaunchDate = info.LaunchDate
	}
	if info.Country != nil {
		sat.Country = info.Country
	}
	if info.Category != nil {
		sat.Category = info.Category
	}
	sat.UpdatedAt = time.Now().UTC()

	copied := *sat
	return &copied, nil
}

func (f *fakeSatelliteRepo) SearchByName(_ context.Context, query string, limit int) ([]models.Satellite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	result := make([]models.Satellite, 0)
	for _, sat := range f.satellites {
		if strings.Contains(strings.ToLower(sat.Name), strings.ToLower(query)) {
			result = append(result, *sat)
			if len(result) >= limit {
				break
			}
		}
	}
	return result, nil
}

func (f *fakeSatelliteRepo) Count(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.satellites)), nil
}

type fakePositionRepo struct {
	mu        sync.Mutex
	positions []models.SatellitePositionCache
	nextID    uint
}

func newFakePositionRepo() *fakePositionRepo {
	return &fakePositionRepo{}
}

func (f *fakePositionRepo) Create(_ context.Context, pos *models.SatellitePositionCache) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	pos.ID = f.nextID
	f.positions = append(f.positions, *pos)
	return nil
}

func (f *fakePositionRepo) GetLatest(_ context.Context, noradID int) (*models.SatellitePositionCache, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var latest *models.SatellitePositionCache
	for i := range f.positions {
		p := &f.positions[i]
		if p.NoradID != noradID {
			continue
		}
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
			latest = p
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

func (f *fakePositionRepo) GetHistory(_ context.Context, noradID int, since time.Time, limit int) ([]models.SatellitePositionCache, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	result := make([]models.SatellitePositionCache, 0)
	for _, p := range f.positions {
		if p.NoradID == noradID && p.CreatedAt.After(since) {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (f *fakePositionRepo) StaleNoradIDs(_ context.Context, olderThan time.Time, limit int) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	latestBySat := make(map[int]time.Time)
	for _, p := range f.positions {
		if p.CreatedAt.After(latestBySat[p.NoradID]) {
			latestBySat[p.NoradID] = p.CreatedAt
		}
	}

	ids := make([]int, 0)
	for noradID, latest := range latestBySat {
		if latest.Before(olderThan) {
			ids = append(ids, noradID)
		}
	}
	sort.Ints(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (f *fakePositionRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	kept := f.positions[:0]
	var deleted int64
	for _, p := range f.positions {
		if p.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, p)
	}
	f.positions = kept
	return deleted, nil
}

func (f *fakePositionRepo) DeleteBySatellite(_ context.Context, noradID int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	kept := f.positions[:0]
	var deleted int64
	for _, p := range f.positions {
		if p.NoradID == noradID {
			deleted++
			continue
		}
		kept = append(kept, p)
	}
	f.positions = kept
	return deleted, nil
}

func (f *fakePositionRepo) Count(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.positions)), nil
}

type fakePassRepo struct {
	mu     sync.Mutex
	passes []models.SatellitePassCache
	nextID uint
}

func newFakePassRepo() *fakePassRepo {
	return &fakePassRepo{}
}

func sameLocation(a, b float64) bool {
	diff := a - b
	return diff < 1e-9 && diff > -1e-9
}

func (f *fakePassRepo) ReplaceForLocation(_ context.Context, noradID int, lat, lon float64, passes []models.SatellitePassCache) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	kept := f.passes[:0]
	for _, p := range f.passes {
		if p.NoradID == noradID && sameLocation(p.Latitude, lat) && sameLocation(p.Longitude, lon) {
			continue
		}
		kept = append(kept, p)
	}
	f.passes = kept

	for _, p := range passes {
		f.nextID++
		p.ID = f.nextID
		f.passes = append(f.passes, p)
	}
	return nil
}

func (f *fakePassRepo) GetUpcoming(_ context.Context, noradID int, lat, lon float64, now time.Time) ([]models.SatellitePassCache, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	result := make([]models.SatellitePassCache, 0)
	for _, p := range f.passes {
		if p.NoradID == noradID && sameLocation(p.Latitude, lat) && sameLocation(p.Longitude, lon) &&
			p.ExpiresAt.After(now) && p.StartTime.After(now) {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime.Before(result[j].StartTime) })
	return result, nil
}

func (f *fakePassRepo) GetAnyFuture(_ context.Context, noradID int, lat, lon float64, now time.Time) ([]models.SatellitePassCache, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	result := make([]models.SatellitePassCache, 0)
	for _, p := range f.passes {
		if p.NoradID == noradID && sameLocation(p.Latitude, lat) && sameLocation(p.Longitude, lon) &&
			p.StartTime.After(now) {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime.Before(result[j].StartTime) })
	if len(result) == 0 {
		return nil, nil
	}
	return result, nil
}

func (f *fakePassRepo) GetUpcomingForSatellites(_ context.Context, noradIDs []int, lat, lon float64, from, to time.Time, minElevation float64) ([]models.SatellitePassCache, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	wanted := make(map[int]bool, len(noradIDs))
	for _, id := range noradIDs {
		wanted[id] = true
	}

	result := make([]models.SatellitePassCache, 0)
	for _, p := range f.passes {
		if wanted[p.NoradID] && sameLocation(p.Latitude, lat) && sameLocation(p.Longitude, lon) &&
			p.StartTime.After(from) && p.StartTime.Before(to) &&
			p.ExpiresAt.After(from) && p.MaxElevation >= minElevation {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime.Before(result[j].StartTime) })
	return result, nil
}

func (f *fakePassRepo) HasFreshCache(_ context.Context, noradID int, lat, lon float64, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, p := range f.passes {
		if p.NoradID == noradID && sameLocation(p.Latitude, lat) && sameLocation(p.Longitude, lon) && p.ExpiresAt.After(now) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePassRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	kept := f.passes[:0]
	var deleted int64
	for _, p := range f.passes {
		if p.ExpiresAt.Before(now) || p.EndTime.Before(now) {
			deleted++
			continue
		}
		kept = append(kept, p)
	}
	f.passes = kept
	return deleted, nil
}

func (f *fakePassRepo) DeleteBySatellite(_ context.Context, noradID int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	kept := f.passes[:0]
	var deleted int64
	for _, p := range f.passes {
		if p.NoradID == noradID {
			deleted++
			continue
		}
		kept = append(kept, p)
	}
	f.passes = kept
	return deleted, nil
}

func (f *fakePassRepo) Count(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.passes)), nil
}

// fakeCacheRepo имитирует Redis с учетом TTL
type fakeCacheRepo struct {
	mu      sync.Mutex
	entries map[string]fakeCacheEntry
}

type fakeCacheEntry struct {
	data      []byte
	expiresAt time.Time
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{entries: make(map[string]fakeCacheEntry)}
}

func (f *fakeCacheRepo) get(key string) ([]byte, bool) {
	entry, ok := f.entries[key]
	if !ok {
		return nil, false
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		delete(f.entries, key)
		return nil, false
	}
	return entry.data, true
}

func (f *fakeCacheRepo) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.get(key)
	if !ok {
		return "", nil
	}
	return string(data), nil
}

func (f *fakeCacheRepo) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.set(key, data, expiration)
	return nil
}

func (f *fakeCacheRepo) set(key string, data []byte, expiration time.Duration) {
	entry := fakeCacheEntry{data: data}
	if expiration > 0 {
		entry.expiresAt = time.Now().Add(expiration)
	}
	f.entries[key] = entry
}

func (f *fakeCacheRepo) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.entries, key)
	}
	return nil
}

func (f *fakeCacheRepo) Exists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.get(key)
	return ok, nil
}

func (f *fakeCacheRepo) GetJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.get(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (f *fakeCacheRepo) SetJSON(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.set(key, data, expiration)
	return nil
}

func (f *fakeCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range f.entries {
		if strings.HasPrefix(key, prefix) {
			delete(f.entries, key)
		}
	}
	return nil
}

func (f *fakeCacheRepo) hasKey(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.get(key)
	return ok
}

// fakeN2YOClient подставляет произвольное поведение через функции
type fakeN2YOClient struct {
	infoFn     func(ctx context.Context, noradID int) (*models.SatelliteInfo, error)
	positionFn func(ctx context.Context, noradID int, lat, lon, altM float64) (*models.PositionData, error)
	passesFn   func(ctx context.Context, noradID int, lat, lon, altM float64, days int) ([]models.PassData, error)
}

func (f *fakeN2YOClient) GetSatelliteInfo(ctx context.Context, noradID int) (*models.SatelliteInfo, error) {
	return f.infoFn(ctx, noradID)
}

func (f *fakeN2YOClient) GetPosition(ctx context.Context, noradID int, lat, lon, altM float64) (*models.PositionData, error) {
	return f.positionFn(ctx, noradID, lat, lon, altM)
}

func (f *fakeN2YOClient) GetPasses(ctx context.Context, noradID int, lat, lon, altM float64, days int) ([]models.PassData, error) {
	return f.passesFn(ctx, noradID, lat, lon, altM, days)
}

func (f *fakeN2YOClient) RateLimitStatus() map[string]interface{} {
	return map[string]interface{}{"requests_remaining": nil}
}

type fakeUserRepo struct {
	mu        sync.Mutex
	users     map[uint]*models.User
	locations []models.UserLocation
	favorites []models.UserFavoriteSatellite
	nextID    uint
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint]*models.User)}
}

func (f *fakeUserRepo) addUser(id uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[id] = &models.User{ID: id, Username: "user", IsActive: true}
}

func (f *fakeUserRepo) GetActive(_ context.Context, userID uint) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok || !user.IsActive {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) LatestLocation(_ context.Context, userID uint) (*models.UserLocation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var latest *models.UserLocation
	for i := range f.locations {
		loc := &f.locations[i]
		if loc.UserID != userID {
			continue
		}
		if latest == nil || loc.CreatedAt.After(latest.CreatedAt) {
			latest = loc
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

func (f *fakeUserRepo) LatestLocationAnyUser(_ context.Context) (*models.UserLocation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var latest *models.UserLocation
	for i := range f.locations {
		loc := &f.locations[i]
		if latest == nil || loc.CreatedAt.After(latest.CreatedAt) {
			latest = loc
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

func (f *fakeUserRepo) CreateLocation(_ context.Context, loc *models.UserLocation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	loc.ID = f.nextID
	if loc.CreatedAt.IsZero() {
		loc.CreatedAt = time.Now().UTC()
	}
	f.locations = append(f.locations, *loc)
	return nil
}

func (f *fakeUserRepo) Favorites(_ context.Context, userID uint) ([]models.UserFavoriteSatellite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	result := make([]models.UserFavoriteSatellite, 0)
	for _, fav := range f.favorites {
		if fav.UserID == userID {
			result = append(result, fav)
		}
	}
	return result, nil
}

func (f *fakeUserRepo) FavoriteNoradIDs(_ context.Context, userID uint) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]int, 0)
	for _, fav := range f.favorites {
		if fav.UserID == userID {
			ids = append(ids, fav.NoradID)
		}
	}
	return ids, nil
}

func (f *fakeUserRepo) DistinctFavoriteNoradIDs(_ context.Context) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	seen := make(map[int]bool)
	ids := make([]int, 0)
	for _, fav := range f.favorites {
		if !seen[fav.NoradID] {
			seen[fav.NoradID] = true
			ids = append(ids, fav.NoradID)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func (f *fakeUserRepo) FavoriteExists(_ context.Context, userID uint, noradID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, fav := range f.favorites {
		if fav.UserID == userID && fav.NoradID == noradID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) CreateFavorite(_ context.Context, fav *models.UserFavoriteSatellite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	fav.ID = f.nextID
	if fav.CreatedAt.IsZero() {
		fav.CreatedAt = time.Now().UTC()
	}
	f.favorites = append(f.favorites, *fav)
	return nil
}

func (f *fakeUserRepo) DeleteFavorite(_ context.Context, userID uint, noradID int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	kept := f.favorites[:0]
	var deleted int64
	for _, fav := range f.favorites {
		if fav.UserID == userID && fav.NoradID == noradID {
			deleted++
			continue
		}
		kept = append(kept, fav)
	}
	f.favorites = kept
	return deleted, nil
}
