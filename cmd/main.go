package main

import (
	"context"

	"github.com/rryowa/nexus/internal/api"
	"github.com/rryowa/nexus/internal/controller"
	"github.com/rryowa/nexus/internal/migrations"
	"github.com/rryowa/nexus/internal/service"
	"github.com/rryowa/nexus/internal/storage/postgres"
	"github.com/rryowa/nexus/internal/storage/redis"
	"github.com/rryowa/nexus/internal/util"
)

func main() {
	ctx := context.Background()
	logger := util.NewZapLogger()
	defer func() { _ = logger.Sync() }()

	tokenConfig, err := util.LoadTokenConfig()
	if err != nil {
		logger.Fatalf("load token config: %v", err)
	}
	serverConfig := util.NewServerConfig()

	db, dbCleanup, err := util.NewDBConnection(ctx, logger, util.NewDBConfig())
	if err != nil {
		logger.Fatalf("connect to database: %v", err)
	}
	if err := migrations.RunMigrations(ctx, db, logger); err != nil {
		logger.Fatalf("run migrations: %v", err)
	}

	redisClient, redisCleanup, err := util.NewRedisClient(ctx, logger, util.NewRedisConfig())
	if err != nil {
		logger.Fatalf("connect to redis: %v", err)
	}

	storage := postgres.NewStorage(db)
	rateLimiter := redis.NewRateLimitStorage(redisClient, util.NewRateLimiterConfig())

	presigner, err := service.NewS3Presigner(ctx, util.NewS3Config())
	if err != nil {
		logger.Fatalf("create avatar presigner: %v", err)
	}

	tokenService := service.NewTokenService(tokenConfig, storage)
	webhookService := service.NewWebhookService(logger, util.GetWebhookURL())
	authService := service.NewAuthService(storage, tokenService, service.NewBcryptHasher(0), webhookService, logger)
	profileService := service.NewProfileService(storage, presigner)
	linkService := service.NewLinkService(storage)
	consentService := service.NewConsentService(storage)

	ctrl := controller.NewController(logger, authService, profileService, linkService, consentService, serverConfig.Production)

	apiServer, err := api.NewAPI(ctrl, authService, rateLimiter, serverConfig, logger, []func(){redisCleanup, dbCleanup})
	if err != nil {
		logger.Fatalf("build api: %v", err)
	}
	apiServer.Run(ctx)
}
