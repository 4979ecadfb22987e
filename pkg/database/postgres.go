package database

import (
	"fmt"
	"log"
	"time"

	"perseus/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func Connect(config Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// Настройка пула соединений
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("Database connected successfully")
	return db, nil
}

func Migrate(db *gorm.DB) error {
	// Автомиграция моделей
	err := db.AutoMigrate(
		&models.User{},
		&models.UserLocation{},
		&models.Satellite{},
		&models.UserFavoriteSatellite{},
		&models.SatellitePositionCache{},
		&models.SatellitePassCache{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}

	// Создаем индексы
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("Database migration completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	// Выборка последней позиции спутника и чистка по возрасту
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_positions_cache_norad_created ON satellite_position_caches(norad_id, created_at DESC)").Error; err != nil {
		return err
	}

	// Выборка пролетов по точке наблюдения и окну времени
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_passes_cache_location_time ON satellite_pass_caches(latitude, longitude, start_time)").Error; err != nil {
		return err
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_passes_cache_norad_time ON satellite_pass_caches(norad_id, start_time)").Error; err != nil {
		return err
	}

	// Актуальная локация пользователя = последняя по created_at
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_user_locations_user_created ON user_locations(user_id, created_at DESC)").Error; err != nil {
		return err
	}

	return nil
}
