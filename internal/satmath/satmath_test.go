package satmath

import (
	"math"
	"testing"
)

func TestValidateNoradID(t *testing.T) {
	tests := []struct {
		noradID int
		want    bool
	}{
		{1, true},
		{25544, true},
		{999999, true},
		{0, false},
		{-1, false},
		{1000000, false},
	}
	for _, tt := range tests {
		if got := ValidateNoradID(tt.noradID); got != tt.want {
			t.Errorf("ValidateNoradID(%d) = %v, want %v", tt.noradID, got, tt.want)
		}
	}
}

func TestValidateCoordinates(t *testing.T) {
	valid := [][2]float64{{0, 0}, {90, 180}, {-90, -180}, {55.7558, 37.6176}}
	for _, c := range valid {
		if err := ValidateCoordinates(c[0], c[1]); err != nil {
			t.Errorf("ValidateCoordinates(%v, %v) unexpected error: %v", c[0], c[1], err)
		}
	}

	invalid := [][2]float64{{90.1, 0}, {-90.1, 0}, {0, 180.1}, {0, -180.1}}
	for _, c := range invalid {
		if err := ValidateCoordinates(c[0], c[1]); err == nil {
			t.Errorf("ValidateCoordinates(%v, %v) expected error", c[0], c[1])
		}
	}
}

func TestHaversine(t *testing.T) {
	// Москва - Санкт-Петербург, около 635 км
	dist := Haversine(55.7558, 37.6176, 59.9311, 30.3609)
	if dist < 600 || dist > 670 {
		t.Fatalf("expected about 635 km, got %v", dist)
	}

	if d := Haversine(10, 20, 10, 20); d != 0 {
		t.Fatalf("expected zero distance for same point, got %v", d)
	}
}

func TestDistance3DOverhead(t *testing.T) {
	// Спутник на 400 км прямо над наблюдателем
	dist := Distance3D(55.75, 37.61, 0, 55.75, 37.61, 400)
	if math.Abs(dist-400) > 0.001 {
		t.Fatalf("expected 400 km, got %v", dist)
	}

	// Высота наблюдателя в метрах уменьшает дистанцию
	dist = Distance3D(55.75, 37.61, 1000, 55.75, 37.61, 400)
	if math.Abs(dist-399) > 0.001 {
		t.Fatalf("expected 399 km for observer at 1000 m, got %v", dist)
	}
}

func TestElevationAngle(t *testing.T) {
	// Прямо над головой
	elev := ElevationAngle(55.75, 37.61, 400, 55.75, 37.61, 0)
	if math.Abs(elev-90) > 0.01 {
		t.Fatalf("expected 90 degrees overhead, got %v", elev)
	}

	// Спутник на другой стороне Земли ниже горизонта
	elev = ElevationAngle(-55.75, -142.39, 400, 55.75, 37.61, 0)
	if elev >= 0 {
		t.Fatalf("expected negative elevation for antipodal satellite, got %v", elev)
	}
}

func TestIsVisible(t *testing.T) {
	bright := -2.0
	dim := 7.0

	tests := []struct {
		name      string
		elevation float64
		magnitude *float64
		want      bool
	}{
		{"below horizon", -5, &bright, false},
		{"at horizon", 0, &bright, false},
		{"bright above horizon", 5, &bright, true},
		{"too dim", 45, &dim, false},
		{"no magnitude high elevation", 15, nil, true},
		{"no magnitude low elevation", 5, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsVisible(tt.elevation, tt.magnitude); got != tt.want {
				t.Fatalf("IsVisible(%v, %v) = %v, want %v", tt.elevation, tt.magnitude, got, tt.want)
			}
		})
	}
}

func TestFormatSatelliteName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  ISS   (ZARYA)  ", "ISS (ZARYA)"},
		{"NOAA-19", "NOAA-19"},
		{"", "Unknown Satellite"},
		{"   ", "Unknown Satellite"},
		{"HUBBLE(HST)", "HUBBLE (HST)"},
	}
	for _, tt := range tests {
		if got := FormatSatelliteName(tt.in); got != tt.want {
			t.Errorf("FormatSatelliteName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCategorizeSatellite(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"ISS (ZARYA)", "Space Stations"},
		{"NOAA 19", "Weather"},
		{"STARLINK-3000", "Communications"},
		{"GPS BIIR-2", "Navigation"},
		{"SENTINEL-2A", "Earth Observation"},
		{"HUBBLE SPACE TELESCOPE", "Scientific"},
		{"MILSTAR DFS-3", "Military"},
		{"OSCAR 7", "Amateur Radio"},
		{"COSMOS 2542", "Other"},
	}
	for _, tt := range tests {
		if got := CategorizeSatellite(tt.name); got != tt.want {
			t.Errorf("CategorizeSatellite(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{45, "45s"},
		{90, "1m 30s"},
		{600, "10m 0s"},
		{3700, "1h 1m"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.seconds); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
