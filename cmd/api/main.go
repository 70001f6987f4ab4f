package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/freshoils/freshoils-backend/api/routes"
	"github.com/freshoils/freshoils-backend/internal/accounts"
	"github.com/freshoils/freshoils-backend/internal/auth"
	"github.com/freshoils/freshoils-backend/internal/catalog"
	"github.com/freshoils/freshoils-backend/internal/orders"
	"github.com/freshoils/freshoils-backend/internal/otp"
	"github.com/freshoils/freshoils-backend/pkg/auth/session"
	"github.com/freshoils/freshoils-backend/pkg/config"
	"github.com/freshoils/freshoils-backend/pkg/db"
	"github.com/freshoils/freshoils-backend/pkg/identity"
	"github.com/freshoils/freshoils-backend/pkg/logger"
	"github.com/freshoils/freshoils-backend/pkg/metrics"
	"github.com/freshoils/freshoils-backend/pkg/migrate"
	"github.com/freshoils/freshoils-backend/pkg/redis"
	"github.com/freshoils/freshoils-backend/pkg/sms"
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	tokenIssuer, err := auth.NewTokenIssuer(sessionManager, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create token issuer", err)
		os.Exit(1)
	}

	var smsSender *sms.Client
	if cfg.SMS.Configured() {
		smsSender, err = sms.NewClient(cfg.SMS)
		if err != nil {
			logg.Error(context.Background(), "failed to create sms client", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "sms gateway not configured, otp codes will be logged")
	}

	var identityVerifier identity.Verifier
	if cfg.Identity.Configured() {
		verifier, err := identity.NewClient(cfg.Identity)
		if err != nil {
			logg.Error(context.Background(), "failed to create identity client", err)
			os.Exit(1)
		}
		identityVerifier = verifier
	} else {
		logg.Warn(context.Background(), "identity verification not configured, register and reset-password are disabled")
	}

	userRepo := accounts.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:           userRepo,
		SessionManager:     sessionManager,
		TokenIssuer:        tokenIssuer,
		IdentityVerifier:   identityVerifier,
		PasswordConfig:     cfg.Password,
		DefaultCountryCode: cfg.App.DefaultCountryCode,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	otpParams := otp.ServiceParams{
		Store:              redisClient,
		UserRepo:           userRepo,
		TokenIssuer:        tokenIssuer,
		Logger:             logg,
		OTPConfig:          cfg.OTP,
		DefaultCountryCode: cfg.App.DefaultCountryCode,
	}
	if smsSender != nil {
		otpParams.SMS = smsSender
	}
	otpService, err := otp.NewService(otpParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create otp service", err)
		os.Exit(1)
	}

	accountsService, err := accounts.NewService(accounts.ServiceParams{
		Repo:           userRepo,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create accounts service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalog.ServiceParams{
		Repo: catalog.NewRepository(dbClient.DB()),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:     orders.NewRepository(dbClient.DB()),
		TxRunner: dbClient,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:          cfg,
			Logger:          logg,
			DB:              dbClient,
			Redis:           redisClient,
			HTTPMetrics:     httpMetrics,
			MetricsGatherer: registry,
			AuthService:     authService,
			OTPService:      otpService,
			AccountsService: accountsService,
			CatalogService:  catalogService,
			OrdersService:   ordersService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
