package main

import (
	"fmt"
	"log"

	"github.com/go-playground/validator/v10"

	_ "github.com/Kirusnabavani/UCMS/api/openapi"
	"github.com/Kirusnabavani/UCMS/internal/handler"
	"github.com/Kirusnabavani/UCMS/internal/repository"
	"github.com/Kirusnabavani/UCMS/internal/router"
	"github.com/Kirusnabavani/UCMS/internal/service"
	"github.com/Kirusnabavani/UCMS/pkg/cache"
	"github.com/Kirusnabavani/UCMS/pkg/config"
	"github.com/Kirusnabavani/UCMS/pkg/database"
	"github.com/Kirusnabavani/UCMS/pkg/logger"
)

// @title UCMS API
// @version 1.0.0
// @description University course management backend
// @BasePath /api
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	var cacheRepo *repository.CacheRepository
	if cfg.Catalog.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		defer redisClient.Close()
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	resultRepo := repository.NewResultRepository(db)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	var courseSvc *service.CourseService
	if cacheRepo != nil {
		courseSvc = service.NewCourseService(courseRepo, cacheRepo, cfg.Catalog.CacheTTL, logr)
	} else {
		courseSvc = service.NewCourseService(courseRepo, nil, cfg.Catalog.CacheTTL, logr)
	}
	registrationSvc := service.NewRegistrationService(registrationRepo, metricsSvc, logr)
	resultSvc := service.NewResultService(resultRepo, registrationRepo, validate, logr)

	r := router.New(cfg, logr, authSvc, metricsSvc, router.Handlers{
		Auth:          handler.NewAuthHandler(authSvc),
		Courses:       handler.NewCourseHandler(courseSvc),
		Registrations: handler.NewRegistrationHandler(registrationSvc),
		Results:       handler.NewResultHandler(resultSvc),
		Metrics:       handler.NewMetricsHandler(metricsSvc),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
