package models

import (
	"time"

	"gorm.io/datatypes"
)

// SatellitePositionCache - долговременный ряд позиций спутника.
// CreatedAt считается временем записи в кэш, Timestamp - временем измерения.
type SatellitePositionCache struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	NoradID   int            `gorm:"not null;index" json:"norad_id"`
	Latitude  float64        `gorm:"not null" json:"latitude"`
	Longitude float64        `gorm:"not null" json:"longitude"`
	Altitude  float64        `gorm:"not null" json:"altitude"`
	Velocity  float64        `gorm:"not null" json:"velocity"`
	Timestamp time.Time      `gorm:"not null" json:"timestamp"`
	Raw       datatypes.JSON `gorm:"type:jsonb" json:"-"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
}

// IsExpired - устарела ли запись для чтения
func (p *SatellitePositionCache) IsExpired(ttl time.Duration) bool {
	return time.Now().UTC().After(p.CreatedAt.Add(ttl))
}

// SatellitePassCache - прогноз одного пролета для пары (спутник, точка наблюдения)
type SatellitePassCache struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	NoradID      int       `gorm:"not null;index" json:"norad_id"`
	Latitude     float64   `gorm:"not null" json:"latitude"`
	Longitude    float64   `gorm:"not null" json:"longitude"`
	StartTime    time.Time `gorm:"not null;index" json:"start_time"`
	EndTime      time.Time `gorm:"not null" json:"end_time"`
	MaxElevation float64   `gorm:"not null" json:"max_elevation"`
	StartAzimuth *float64  `json:"start_azimuth,omitempty"`
	EndAzimuth   *float64  `json:"end_azimuth,omitempty"`
	Magnitude    *float64  `json:"magnitude,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	ExpiresAt    time.Time `gorm:"not null;index" json:"expires_at"`
}

// Duration - длительность пролета в секундах
func (p *SatellitePassCache) Duration() int {
	return int(p.EndTime.Sub(p.StartTime).Seconds())
}

// PositionData - позиция спутника от внешнего API
type PositionData struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Altitude  float64   `json:"altitude"`
	Velocity  float64   `json:"velocity"`
	Timestamp time.Time `json:"timestamp"`
	Raw       []byte    `json:"-"`
}

// PassData - прогноз пролета от внешнего API
type PassData struct {
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	MaxElevation float64   `json:"max_elevation"`
	StartAzimuth *float64  `json:"start_azimuth,omitempty"`
	EndAzimuth   *float64  `json:"end_azimuth,omitempty"`
	Magnitude    *float64  `json:"magnitude,omitempty"`
}

// CachedPosition - позиция, отдаваемая из кэша наружу
type CachedPosition struct {
	NoradID   int       `json:"norad_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Altitude  float64   `json:"altitude"`
	Velocity  float64   `json:"velocity"`
	Timestamp time.Time `json:"timestamp"`
	CachedAt  time.Time `json:"cached_at"`
}
