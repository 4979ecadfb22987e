package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"perseus/internal/clients"
	"perseus/internal/config"
	"perseus/internal/handlers"
	"perseus/internal/middleware"
	"perseus/internal/repository"
	"perseus/internal/service"
	"perseus/internal/worker"
	"perseus/pkg/database"
	"perseus/pkg/redis"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
)

func main() {
	// Загрузка .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	log.Println("=== Perseus Satellite Tracking Backend Starting ===")

	// Загрузка конфигурации
	cfg := config.Load()

	// Подключение к PostgreSQL
	db, err := database.Connect(database.Config{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		DBName:   cfg.DB.DBName,
		SSLMode:  cfg.DB.SSLMode,
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	// Подключение к Redis
	redisClient, err := redis.Connect(redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer redisClient.Close()

	// Автомиграция моделей
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Инициализация репозиториев
	satelliteRepo := repository.NewSatelliteRepository(db)
	positionRepo := repository.NewPositionCacheRepository(db)
	passRepo := repository.NewPassCacheRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)

	n2yoClient := clients.NewN2YOClient(clients.N2YOConfig{
		APIKey:  cfg.N2YO.APIKey,
		BaseURL: cfg.N2YO.BaseURL,
	})

	// Инициализация сервисов
	cacheService := service.NewCacheService(satelliteRepo, positionRepo, passRepo, cacheRepo, service.CacheConfig{
		PositionTTL: cfg.Cache.PositionTTL,
		PassesTTL:   cfg.Cache.PassesTTL,
	})
	satelliteService := service.NewSatelliteService(satelliteRepo, cacheService, n2yoClient)
	trackingService := service.NewTrackingService(satelliteService, positionRepo, userRepo, cfg.Tracking.MaxConcurrentFetches)
	passService := service.NewPassService(satelliteService, satelliteRepo, passRepo, userRepo)
	favoriteService := service.NewFavoriteService(satelliteService, userRepo)
	locationService := service.NewLocationService(userRepo)

	// Фоновые задачи
	taskManager := worker.NewTaskManager(trackingService, satelliteService, passService, userRepo, cfg.Workers, cfg.Tracking.StaleMaxAge)
	taskCtx, taskCancel := context.WithCancel(context.Background())
	taskManager.StartAll(taskCtx)
	defer func() {
		taskCancel()
		taskManager.StopAll()
	}()

	// Инициализация Gin
	if cfg.App.Debug {
		gin.SetMode(gin.DebugMode)
		log.Println("Running in DEBUG mode")
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	// CORS для фронтенда
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", cfg.App.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(middleware.RequestIDMiddleware())

	// Rate limiting (только для продакшена)
	if !cfg.App.Debug {
		ipLimiter := middleware.NewIPRateLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)
		r.Use(middleware.RateLimitMiddleware(ipLimiter))
		log.Printf("Rate limiting enabled: %d req/sec, burst: %d",
			cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}

	// Инициализация хендлеров
	satelliteHandler := handlers.NewSatelliteHandler(satelliteService)
	trackingHandler := handlers.NewTrackingHandler(trackingService)
	passHandler := handlers.NewPassHandler(passService)
	userHandler := handlers.NewUserHandler(favoriteService, locationService)
	systemHandler := handlers.NewSystemHandler(taskManager, satelliteService, satelliteRepo, positionRepo, passRepo, redisClient)

	r.GET("/health", systemHandler.Health)

	api := r.Group("/api")

	// Спутники
	api.GET("/satellites/search", satelliteHandler.SearchSatellites)
	api.GET("/satellites/:norad_id", satelliteHandler.GetSatelliteInfo)
	api.GET("/satellites/:norad_id/position", trackingHandler.GetPosition)
	api.GET("/satellites/:norad_id/position/history", trackingHandler.GetPositionHistory)
	api.GET("/satellites/:norad_id/passes", passHandler.GetSatellitePasses)
	api.DELETE("/satellites/:norad_id/cache", satelliteHandler.InvalidateCache)

	// Пакетная выборка позиций
	api.POST("/positions/batch", trackingHandler.GetMultiplePositions)

	// Пользовательские данные
	api.POST("/users/:user_id/location", userHandler.SetLocation)
	api.GET("/users/:user_id/location", userHandler.GetLocation)
	api.GET("/users/:user_id/favorites", userHandler.ListFavorites)
	api.POST("/users/:user_id/favorites/:norad_id", userHandler.AddFavorite)
	api.DELETE("/users/:user_id/favorites/:norad_id", userHandler.RemoveFavorite)
	api.GET("/users/:user_id/favorites/positions", trackingHandler.GetFavoritePositions)
	api.GET("/users/:user_id/passes", passHandler.GetFavoritePasses)
	api.GET("/users/:user_id/passes/upcoming", passHandler.GetUpcomingPasses)
	api.GET("/users/:user_id/passes/alerts", passHandler.GetPassAlerts)

	// Системные эндпоинты
	api.GET("/system/stats", systemHandler.Stats)
	api.GET("/system/rate-limit", satelliteHandler.RateLimitStatus)
	api.GET("/system/tasks", systemHandler.TaskStatus)
	api.POST("/system/tasks/refresh-positions", systemHandler.TriggerPositionRefresh)
	api.POST("/system/tasks/cleanup-cache", systemHandler.TriggerCacheCleanup)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost:%s", cfg.App.Port)
		log.Printf("API available at http://localhost:%s/api", cfg.App.Port)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start:", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited properly")
}
