package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/vetlink/backend/api"
	"github.com/vetlink/backend/api/controllers"
	"github.com/vetlink/backend/api/routes"
	"github.com/vetlink/backend/internal/accounts"
	"github.com/vetlink/backend/internal/discovery"
	"github.com/vetlink/backend/internal/professionals"
	"github.com/vetlink/backend/internal/shops"
	"github.com/vetlink/backend/internal/subscriptions"
	"github.com/vetlink/backend/internal/verification"
	"github.com/vetlink/backend/pkg/cache"
	"github.com/vetlink/backend/pkg/config"
	"github.com/vetlink/backend/pkg/db"
	"github.com/vetlink/backend/pkg/geocode"
	"github.com/vetlink/backend/pkg/logger"
	"github.com/vetlink/backend/pkg/migrate"
	"github.com/vetlink/backend/pkg/paystack"
	"github.com/vetlink/backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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
	var cachePinger controllers.Pinger
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
		cachePinger = redisClient
	} else {
		logg.Warn(context.Background(), "redis not configured, using in-process cache")
	}

	cacheStore := cache.New(cache.Options{
		Redis:      redisClient,
		DefaultTTL: cfg.Cache.DefaultTTL,
		Logger:     logg,
	})

	paystackClient, err := paystack.NewClient(cfg.Paystack)
	if err != nil {
		logg.Error(context.Background(), "failed to create paystack client", err)
		os.Exit(1)
	}

	accountRepo := accounts.NewRepository(dbClient.DB())
	subscriptionRepo := subscriptions.NewRepository(dbClient.DB())
	professionalRepo := professionals.NewRepository(dbClient.DB())
	shopRepo := shops.NewRepository(dbClient.DB())

	subscriptionService, err := subscriptions.NewService(subscriptions.ServiceParams{
		AccountRepo:      accountRepo,
		SubscriptionRepo: subscriptionRepo,
		Gateway:          paystackClient,
		BusinessEntities: subscriptions.EntityChecker{
			Profiles: professionalRepo,
			Shops:    shopRepo,
		},
		TransactionRunner: dbClient,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create subscription service", err)
		os.Exit(1)
	}

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

	verificationService, err := verification.NewService(verification.ServiceParams{
		ProfessionalRepo:  professionalRepo,
		Listings:          discoveryService,
		TransactionRunner: dbClient,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create verification service", err)
		os.Exit(1)
	}

	professionalParams := professionals.ServiceParams{
		ProfileRepo:       professionalRepo,
		Listings:          discoveryService,
		TransactionRunner: dbClient,
	}
	shopParams := shops.ServiceParams{
		ShopRepo:          shopRepo,
		Listings:          discoveryService,
		TransactionRunner: dbClient,
	}
	if cfg.Geocoder.APIKey != "" {
		geocoderClient, err := geocode.NewClient(cfg.Geocoder)
		if err != nil {
			logg.Error(context.Background(), "failed to create geocoder client", err)
			os.Exit(1)
		}
		professionalParams.Geocoder = geocoderClient
		shopParams.Geocoder = geocoderClient
	} else {
		logg.Warn(context.Background(), "geocoder not configured, profiles will have no coordinates")
	}

	professionalService, err := professionals.NewService(professionalParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create professional service", err)
		os.Exit(1)
	}

	shopService, err := shops.NewService(shopParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create shop service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.Deps{
		Config:             cfg,
		Logger:             logg,
		DBPinger:           dbClient,
		CachePinger:        cachePinger,
		SignatureValidator: paystackClient,
		Subscriptions:      subscriptionService,
		Discovery:          discoveryService,
		Verification:       verificationService,
		Professionals:      professionalService,
		Shops:              shopService,
	})

	server := api.NewServer(cfg, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": server.Addr,
	})
	logg.Info(ctx, "starting api server")

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "error during shutdown", err)
		}
		logg.Info(ctx, "api server shut down gracefully")
	}
}
