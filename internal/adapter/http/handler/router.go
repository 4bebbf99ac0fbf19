package handler

import (
	"payment-hub/internal/adapter/http/middleware"
	redisStore "payment-hub/internal/adapter/storage/redis"
	"payment-hub/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	CheckoutSvc    ports.CheckoutService
	RateSvc        ports.RateService
	WebhookProc    ports.WebhookProcessor
	UserRepo       ports.UserRepository
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep, verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Swagger documentation
	swagger := r.Group("/swagger")
	{
		swagger.GET("", SwaggerUI)
		swagger.GET("/spec", SwaggerSpec)
	}

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// Provider webhooks (vendor-authenticated per adapter, no JWT)
	webhookHandler := NewWebhookHandler(deps.WebhookProc)
	r.POST("/webhooks/:provider", webhookHandler.Receive)

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl("auth_register"), authHandler.Register)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	ratesHandler := NewRatesHandler(deps.RateSvc)
	v1.GET("/rates", rl("rates"), ratesHandler.List)

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	paymentHandler := NewPaymentHandler(deps.CheckoutSvc)
	payments := v1.Group("/payments", jwtAuth)
	{
		payments.POST("/:provider", rl("payments"), paymentHandler.CreatePayment)
		payments.GET("/:provider/status", rl("status"), paymentHandler.CheckStatus)
	}

	userHandler := NewUserHandler(deps.UserRepo)
	users := v1.Group("/users/me", jwtAuth)
	{
		users.GET("/balance", rl("account"), userHandler.GetBalance)
	}

	return r
}
