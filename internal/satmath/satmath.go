package satmath

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// Радиус Земли в километрах
const EarthRadiusKm = 6371.0

// ValidateNoradID проверяет диапазон каталожного номера NORAD
func ValidateNoradID(noradID int) bool {
	return noradID >= 1 && noradID <= 999999
}

// ValidateCoordinates проверяет географические координаты наблюдателя
func ValidateCoordinates(latitude, longitude float64) error {
	if latitude < -90 || latitude > 90 {
		return fmt.Errorf("latitude must be between -90 and 90 degrees")
	}
	if longitude < -180 || longitude > 180 {
		return fmt.Errorf("longitude must be between -180 and 180 degrees")
	}
	return nil
}

// Haversine - расстояние по дуге большого круга между двумя точками, км
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return EarthRadiusKm * 2 * math.Asin(math.Sqrt(a))
}

// Distance3D - расстояние наблюдатель-спутник через ECEF-координаты.
// Высота наблюдателя в метрах, высота спутника в километрах.
func Distance3D(obsLat, obsLon, obsAltM, satLat, satLon, satAltKm float64) float64 {
	x1, y1, z1 := toCartesian(obsLat, obsLon, obsAltM/1000.0)
	x2, y2, z2 := toCartesian(satLat, satLon, satAltKm)

	dx := x2 - x1
	dy := y2 - y1
	dz := z2 - z1

	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// ElevationAngle - угол места спутника над горизонтом наблюдателя, градусы.
// Высоты обеих точек в километрах.
func ElevationAngle(satLat, satLon, satAltKm, obsLat, obsLon, obsAltKm float64) float64 {
	sx, sy, sz := toCartesian(satLat, satLon, satAltKm)
	ox, oy, oz := toCartesian(obsLat, obsLon, obsAltKm)

	dx := sx - ox
	dy := sy - oy
	dz := sz - oz
	dist := math.Sqrt(dx*dx + dy*dy + dz*dz)
	if dist == 0 {
		return 90
	}

	// Локальная вертикаль в точке наблюдателя
	obsLatRad := obsLat * math.Pi / 180
	obsLonRad := obsLon * math.Pi / 180
	ux := math.Cos(obsLatRad) * math.Cos(obsLonRad)
	uy := math.Cos(obsLatRad) * math.Sin(obsLonRad)
	uz := math.Sin(obsLatRad)

	dot := (dx*ux + dy*uy + dz*uz) / dist

	return math.Asin(dot) * 180 / math.Pi
}

func toCartesian(lat, lon, altKm float64) (x, y, z float64) {
	latRad := lat * math.Pi / 180
	lonRad := lon * math.Pi / 180
	r := EarthRadiusKm + altKm

	x = r * math.Cos(latRad) * math.Cos(lonRad)
	y = r * math.Cos(latRad) * math.Sin(lonRad)
	z = r * math.Sin(latRad)
	return
}

// IsVisible - видим ли спутник невооруженным глазом.
// Величина 6.5 примерно соответствует пределу видимости.
func IsVisible(elevation float64, magnitude *float64) bool {
	if elevation <= 0 {
		return false
	}
	if magnitude != nil {
		return *magnitude <= 6.5
	}
	return elevation >= 10
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// FormatSatelliteName приводит имя спутника к единому виду
func FormatSatelliteName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Unknown Satellite"
	}

	name = strings.ReplaceAll(name, "(", " (")
	name = strings.ReplaceAll(name, ")", ") ")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(name, " "))
}

var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"Space Stations", []string{"ISS", "SPACE STATION", "TIANGONG"}},
	{"Weather", []string{"NOAA", "GOES", "METOP", "WEATHER"}},
	{"Communications", []string{"INTELSAT", "EUTELSAT", "ASTRA", "HOTBIRD", "STARLINK"}},
	{"Navigation", []string{"GPS", "GLONASS", "GALILEO", "BEIDOU", "NAVSTAR"}},
	{"Earth Observation", []string{"LANDSAT", "SENTINEL", "TERRA", "AQUA", "MODIS"}},
	{"Scientific", []string{"HUBBLE", "CHANDRA", "SPITZER", "KEPLER", "TESS"}},
	{"Military", []string{"MILSTAR", "DSCS", "AEHF", "WGS"}},
	{"Amateur Radio", []string{"AMSAT", "AO-", "FO-", "SO-", "OSCAR"}},
}

// CategorizeSatellite определяет категорию спутника по ключевым словам в имени
func CategorizeSatellite(name string) string {
	nameUpper := strings.ToUpper(name)

	for _, entry := range categoryKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(nameUpper, keyword) {
				return entry.category
			}
		}
	}

	return "Other"
}

// FormatDuration переводит секунды в читаемую строку вида "5m 30s"
func FormatDuration(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	if seconds < 3600 {
		return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
	}
	return fmt.Sprintf("%dh %dm", seconds/3600, (seconds%3600)/60)
}
