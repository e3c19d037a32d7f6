package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vetlink/backend/internal/accounts"
	"github.com/vetlink/backend/internal/cron"
	"github.com/vetlink/backend/internal/discovery"
	"github.com/vetlink/backend/internal/professionals"
	"github.com/vetlink/backend/internal/shops"
	"github.com/vetlink/backend/internal/subscriptions"
	"github.com/vetlink/backend/pkg/cache"
	"github.com/vetlink/backend/pkg/config"
	"github.com/vetlink/backend/pkg/db"
	"github.com/vetlink/backend/pkg/logger"
	"github.com/vetlink/backend/pkg/metrics"
	"github.com/vetlink/backend/pkg/migrate"
	"github.com/vetlink/backend/pkg/redis"
)

const lockKeyFormat = "cron-worker:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	var lock cron.Lock
	if cfg.Redis.Configured() {
		redisClient, err = redis.New(context.Background(), cfg.Redis)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()

		redisLock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockKey(cfg.App.Env)), cfg.Cron.LockTTL)
		if err != nil {
			logg.Error(context.Background(), "failed to create cron lock", err)
			os.Exit(1)
		}
		lock = redisLock
	} else {
		logg.Warn(context.Background(), "redis not configured, using in-process cron lock")
		lock = &cron.LocalLock{}
	}

	sweepMetrics := metrics.NewSweepMetrics(prometheus.DefaultRegisterer)

	accountRepo := accounts.NewRepository(dbClient.DB())
	subscriptionRepo := subscriptions.NewRepository(dbClient.DB())
	professionalRepo := professionals.NewRepository(dbClient.DB())
	shopRepo := shops.NewRepository(dbClient.DB())

	cacheStore := cache.New(cache.Options{
		Redis:      redisClient,
		DefaultTTL: cfg.Cache.DefaultTTL,
		Logger:     logg,
	})
	discoveryService, err := discovery.NewService(discovery.ServiceParams{
		ProfessionalRepo: professionalRepo,
		ShopRepo:         shopRepo,
		Cache:            cacheStore,
		CacheTTL:         cfg.Cache.DiscoveryTTL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create discovery service", err)
		os.Exit(1)
	}

	subscriptionJob, err := cron.NewSubscriptionExpiryJob(cron.SubscriptionExpiryJobParams{
		Logger:       logg,
		AccountStore: accountRepo,
		RecordStore:  subscriptionRepo,
		Metrics:      sweepMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create subscription expiry job", err)
		os.Exit(1)
	}

	licenseJob, err := cron.NewLicenseExpiryJob(cron.LicenseExpiryJobParams{
		Logger:   logg,
		Store:    professionalRepo,
		Listings: discoveryService,
		Metrics:  sweepMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create license expiry job", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(subscriptionJob, licenseJob),
		Lock:     lock,
		Metrics:  sweepMetrics,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
