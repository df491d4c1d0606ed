package main

import (
	"context"
	"log"

	"codecollab-backend/internal/cache"
	"codecollab-backend/internal/config"
	"codecollab-backend/internal/database"
	"codecollab-backend/internal/logger"
	"codecollab-backend/internal/server"
	"codecollab-backend/internal/translate"
)

func main() {
	cfg := config.Load()

	zapLogger, err := logger.New(cfg.App.Production)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer zapLogger.Sync()
	sugar := zapLogger.Sugar()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		sugar.Fatalf("[Main] Database connection failed: %v", err)
	}
	defer database.Close(db)

	if err := database.Ping(db); err != nil {
		sugar.Fatalf("[Main] Database ping failed: %v", err)
	}
	sugar.Info("[Main] Database connected")

	// Redis is the hot cache tier; without it translations fall through to
	// Postgres, so startup continues.
	redisClient, err := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		sugar.Warnf("[Main] Redis unavailable, running without hot cache tier: %v", err)
		redisClient = nil
	} else {
		sugar.Infof("[Main] Redis connected (%s)", cfg.Redis.Addr)
	}
	translationCache := cache.NewTranslationCache(redisClient, db, cfg.Pipeline.CacheTTL, sugar)

	var provider translate.Provider = translate.Disabled{}
	if cfg.Translate.Enabled {
		awsProvider, err := translate.NewAWSProvider(context.Background(), cfg.Translate, sugar)
		if err != nil {
			sugar.Warnf("[Main] AWS Translate init failed, serving original text only: %v", err)
		} else {
			provider = awsProvider
			sugar.Infof("[Main] AWS Translate ready (region %s)", cfg.Translate.Region)
		}
	} else {
		sugar.Info("[Main] Translation disabled by config")
	}

	srv := server.New(cfg, db, translationCache, provider, sugar)
	srv.SetupMiddleware()
	srv.SetupRoutes()

	if err := srv.Start(); err != nil {
		sugar.Fatalf("[Main] Server failed: %v", err)
	}
}
