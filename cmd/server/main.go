// @title        Ops Platform Authorization API
// @version      1.0
// @description  Authorization, identity resolution and project lifecycle API
// @description  for the operations platform.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/opsdeck/platform/docs"
	"github.com/opsdeck/platform/internal/api"
	"github.com/opsdeck/platform/internal/core/service"
	"github.com/opsdeck/platform/internal/infrastructure/activity"
	"github.com/opsdeck/platform/internal/infrastructure/config"
	mongodb "github.com/opsdeck/platform/internal/infrastructure/db/mongo"
	redisdb "github.com/opsdeck/platform/internal/infrastructure/db/redis"
	"github.com/opsdeck/platform/internal/infrastructure/queue"
	"github.com/opsdeck/platform/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	bootstrapLog := logger.Init(logger.Options{Level: os.Getenv("LOG_LEVEL"), Pretty: os.Getenv("ENV") == "development"})
	cfg := config.Load(bootstrapLog)
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	if err := ensureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("index creation failed")
	}

	activityLog := activity.NewRing(cfg.ActivityCap, log)

	crmSync := service.NewCRMSyncService(cfg.CRMSyncEndpoint, cfg.WebhookSecret, logger.Component("crm-sync"))
	dispatcher := queue.NewDispatcher(0, crmSync, logger.Component("crm-dispatch"))
	dispatcher.Start(ctx)

	e := api.NewRouter(api.Deps{
		DB:       db,
		Redis:    rdb,
		Config:   cfg,
		Sync:     dispatcher,
		Activity: activityLog,
		Logger:   log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	if err := mongodb.NewUserRepository(db).EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := mongodb.NewClientRepository(db).EnsureIndexes(ctx); err != nil {
		return err
	}
	return mongodb.NewProjectRepository(db).EnsureIndexes(ctx)
}
