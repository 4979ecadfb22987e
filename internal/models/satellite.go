package models

import (
	"time"
)

// Satellite - справочная запись о спутнике, первичный ключ = NORAD ID
type Satellite struct {
	NoradID    int        `gorm:"primaryKey" json:"norad_id"`
	Name       string     `gorm:"size:255;not null;index" json:"name"`
	LaunchDate *time.Time `json:"launch_date,omitempty"`
	Country    *string    `gorm:"size:100" json:"country,omitempty"`
	Category   *string    `gorm:"size:100;index" json:"category,omitempty"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// SatelliteInfo - данные о спутнике от внешнего API
type SatelliteInfo struct {
	NoradID    int        `json:"norad_id"`
	Name       string     `json:"name"`
	LaunchDate *time.Time `json:"launch_date,omitempty"`
	Country    *string    `json:"country,omitempty"`
	Category   *string    `json:"category,omitempty"`
}
