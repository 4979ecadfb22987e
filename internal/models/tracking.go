package models

import (
	"time"
)

// Observer - точка наблюдения, эхо входных параметров запроса
type Observer struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude,omitempty"`
}

// VisibilityInfo - грубая оценка видимости по текущей позиции
type VisibilityInfo struct {
	IsVisible bool   `json:"is_visible"`
	Status    string `json:"status"`
	Reason    string `json:"reason"`
}

// FormattedCoordinates - координаты для отображения
type FormattedCoordinates struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
	Altitude  string `json:"altitude"`
}

// EnrichedPosition - позиция с расчетными полями для выдачи наружу
type EnrichedPosition struct {
	CachedPosition
	Observer             Observer             `json:"observer"`
	DistanceKm           float64              `json:"distance_km"`
	Visibility           VisibilityInfo       `json:"visibility"`
	FormattedCoordinates FormattedCoordinates `json:"formatted_coordinates"`
	RetrievedAt          time.Time            `json:"retrieved_at"`
}

// SatelliteRef - краткая ссылка на спутник в составных ответах
type SatelliteRef struct {
	NoradID    int    `json:"norad_id"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	FavoriteID uint   `json:"favorite_id,omitempty"`
}

// FavoritePosition - избранный спутник с текущей позицией (может отсутствовать)
type FavoritePosition struct {
	FavoriteID      uint              `json:"favorite_id"`
	NoradID         int               `json:"norad_id"`
	Name            string            `json:"name"`
	Category        string            `json:"category"`
	AddedAt         time.Time         `json:"added_at"`
	CurrentPosition *EnrichedPosition `json:"current_position"`
}

// PositionHistoryEntry - историческая позиция с возрастом записи
type PositionHistoryEntry struct {
	SatellitePositionCache
	AgeSeconds int `json:"age_seconds"`
}

// RefreshStats - итоги пакетного обновления позиций
type RefreshStats struct {
	Refreshed int `json:"refreshed"`
	Failed    int `json:"failed"`
	Total     int `json:"total"`
}

// CleanupStats - итоги чистки кэша
type CleanupStats struct {
	Positions int64 `json:"positions"`
	Passes    int64 `json:"passes"`
	Total     int64 `json:"total"`
}

// VisibilityQuality - оценка качества пролета (каноническая версия)
type VisibilityQuality struct {
	Rating  string   `json:"rating"`
	Score   int      `json:"score"`
	Factors []string `json:"factors"`
}

// EnrichedPass - прогноз пролета с расчетными полями
type EnrichedPass struct {
	SatellitePassCache
	Observer           Observer          `json:"observer"`
	DurationSeconds    int               `json:"duration_seconds"`
	DurationFormatted  string            `json:"duration_formatted"`
	TimeUntilSeconds   int               `json:"time_until_seconds"`
	TimeUntilFormatted string            `json:"time_until_formatted"`
	VisibilityQuality  VisibilityQuality `json:"visibility_quality"`
	PriorityScore      int               `json:"priority_score"`
	ElevationCategory  string            `json:"elevation_category"`
	Satellite          *SatelliteRef     `json:"satellite,omitempty"`
}

// PassAlert - пролет, попавший в окно уведомления
type PassAlert struct {
	Pass             EnrichedPass `json:"pass"`
	AlertType        string       `json:"alert_type"`
	AlertTime        time.Time    `json:"alert_time"`
	PassStartTime    time.Time    `json:"pass_start_time"`
	MinutesUntilPass int          `json:"minutes_until_pass"`
}

// TaskRunResult - итог ручного запуска фоновой задачи
type TaskRunResult struct {
	StartedAt       time.Time   `json:"started_at"`
	CompletedAt     time.Time   `json:"completed_at"`
	DurationSeconds float64     `json:"duration_seconds"`
	Statistics      interface{} `json:"statistics"`
}
