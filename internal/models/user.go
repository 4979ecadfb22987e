package models

import (
	"time"
)

// User хранится только как владелец локаций и избранного.
// Аутентификация и пароли живут во внешнем сервисе.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:100;not null;uniqueIndex" json:"username"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// UserLocation - координаты наблюдателя; актуальной считается последняя по created_at
type UserLocation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Latitude  float64   `gorm:"not null" json:"latitude"`
	Longitude float64   `gorm:"not null" json:"longitude"`
	Address   *string   `gorm:"size:255" json:"address,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	User *User `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// UserFavoriteSatellite - избранный спутник пользователя, пара (user_id, norad_id) уникальна
type UserFavoriteSatellite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:uq_user_favorite" json:"user_id"`
	NoradID   int       `gorm:"not null;uniqueIndex:uq_user_favorite;index" json:"norad_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	User      *User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Satellite *Satellite `gorm:"foreignKey:NoradID;references:NoradID;constraint:OnDelete:CASCADE" json:"satellite,omitempty"`
}
