package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"payment-hub/config"
	"payment-hub/internal/adapter/gateway"
	httpHandler "payment-hub/internal/adapter/http/handler"
	"payment-hub/internal/adapter/rates"
	pgStorage "payment-hub/internal/adapter/storage/postgres"
	redisStorage "payment-hub/internal/adapter/storage/redis"
	"payment-hub/internal/core/ports"
	"payment-hub/internal/service"
	"payment-hub/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Bool("gateway_test_mode", cfg.Gateway.TestMode).
		Msg("Starting Payment Hub")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// Initialize repositories
	userRepo := pgStorage.NewUserRepo(pool)
	orderRepo := pgStorage.NewOrderRepo(pool)
	rateRepo := pgStorage.NewRateRepo(pool)
	eventLogRepo := pgStorage.NewEventLogRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	dedupStore := redisStorage.NewEventDedupStore(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize provider adapters
	registry, err := gateway.NewRegistry(cfg.Gateway, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize payment gateways")
	}
	log.Info().Strs("providers", registry.Names()).Msg("Payment gateways registered")

	// Initialize rate source
	rateSource, err := rates.NewHTTPSource(cfg.Rates)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize rate source")
	}

	// Initialize core services
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	notifier := service.NewLogNotifier(log)

	// Initialize business services
	authSvc := service.NewAuthService(userRepo, hashSvc, tokenSvc)
	rateSvc := service.NewRateService(rateSource, rateRepo, cfg.Rates.MaxAge, log)
	orderSvc := service.NewOrderService(orderRepo, userRepo, rateSvc, notifier, transactor, log)
	checkoutSvc := service.NewCheckoutService(registry, orderRepo, userRepo, orderSvc, log)
	webhookProc := service.NewWebhookProcessor(registry, orderSvc, dedupStore, eventLogRepo, log)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Load OpenAPI spec for Swagger UI
	if specBytes, err := os.ReadFile("docs/api/openapi.yaml"); err == nil {
		httpHandler.SetSwaggerSpec(specBytes)
		log.Info().Msg("OpenAPI spec loaded for Swagger UI at /swagger")
	} else {
		log.Warn().Err(err).Msg("OpenAPI spec not found, Swagger UI will be unavailable")
	}

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		CheckoutSvc:    checkoutSvc,
		RateSvc:        rateSvc,
		WebhookProc:    webhookProc,
		UserRepo:       userRepo,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
