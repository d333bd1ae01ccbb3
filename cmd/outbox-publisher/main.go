package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/harnoorlabs/aromas-backend/pkg/config"
	"github.com/harnoorlabs/aromas-backend/pkg/db"
	"github.com/harnoorlabs/aromas-backend/pkg/logger"
	"github.com/harnoorlabs/aromas-backend/pkg/migrate"
	"github.com/harnoorlabs/aromas-backend/pkg/outbox"
	"github.com/harnoorlabs/aromas-backend/pkg/outbox/registry"
	"github.com/harnoorlabs/aromas-backend/pkg/pubsub"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "outbox-publisher"})
	boot := context.Background()

	if err := godotenv.Load(); err != nil {
		logg.Warn(boot, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		exit(boot, logg, "failed to load config", err)
	}
	cfg.Service.Kind = "outbox-publisher"

	logg = logger.New(logger.Options{
		ServiceName: "outbox-publisher",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(boot, cfg.DB, logg)
	if err != nil {
		exit(boot, logg, "failed to bootstrap database", err)
	}
	defer closeQuietly(boot, logg, "database", dbClient.Close)

	if err := migrate.MaybeRunDev(boot, cfg, logg, dbClient); err != nil {
		exit(boot, logg, "failed to run dev migrations", err)
	}

	pubsubClient, err := pubsub.NewClient(boot, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		exit(boot, logg, "failed to bootstrap pubsub", err)
	}
	defer closeQuietly(boot, logg, "pubsub client", pubsubClient.Close)

	eventRegistry, err := registry.NewEventRegistry(cfg.PubSub)
	if err != nil {
		exit(boot, logg, "failed to build event registry", err)
	}

	service, err := NewService(ServiceParams{
		Config:        cfg,
		Logger:        logg,
		DB:            dbClient,
		PubSub:        pubsubClient,
		Repository:    outbox.NewRepository(dbClient.DB()),
		Registry:      eventRegistry,
		DLQRepository: outbox.NewDLQRepository(dbClient.DB()),
	})
	if err != nil {
		exit(boot, logg, "failed to create outbox publisher", err)
	}

	ctx, stop := signal.NotifyContext(boot, os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": "outbox-publisher",
	})
	logg.Info(ctx, "starting outbox publisher")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		exit(ctx, logg, "outbox publisher stopped unexpectedly", err)
	}
	logg.Info(ctx, "outbox publisher shutting down gracefully")
}

func exit(ctx context.Context, logg *logger.Logger, msg string, err error) {
	logg.Error(ctx, msg, err)
	os.Exit(1)
}

func closeQuietly(ctx context.Context, logg *logger.Logger, name string, close func() error) {
	if err := close(); err != nil {
		logg.Error(ctx, "error closing "+name, err)
	}
}
