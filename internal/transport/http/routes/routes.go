package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Dheelyte/studyflow/internal/infra/config"
	"github.com/Dheelyte/studyflow/internal/transport/http/handlers"
	"github.com/Dheelyte/studyflow/internal/transport/http/middleware"
	"github.com/Dheelyte/studyflow/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth          *usecase.AuthService
	Registration  *usecase.RegistrationService
	PasswordReset *usecase.PasswordResetService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Services    ServiceSet
	Database    DatabaseChecker
	Cache       CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))

	if len(deps.Config.CORS.AllowedOrigins) > 0 {
		r.Use(middleware.CORS(deps.Config.CORS.AllowedOrigins))
	}

	if deps.Config.Metrics.Enabled {
		if metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{}); err == nil {
			r.Use(metrics.Handler())
		} else if deps.Logger != nil {
			deps.Logger.Warn("metrics middleware disabled", zap.Error(err))
		}

		metricsPath := deps.Config.Metrics.Path
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		r.GET(metricsPath, gin.WrapH(promhttp.Handler()))
	}

	healthOptions := make([]handlers.HealthOption, 0, 2)

	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}

	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}

	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	api := r.Group("/api/v1")
	{
		isDev := deps.Config.App.IsDevelopment()

		authGroup := api.Group("/auth")

		authHandler := handlers.NewAuthHandler(deps.Services.Auth, deps.Config.Cookie)
		authHandler.RegisterRoutes(authGroup,
			rateLimitChain(deps, "auth_login_ip", deps.Config.RateLimit.LoginMaxAttempts)...)

		registrationHandler := handlers.NewRegistrationHandler(deps.Services.Registration)
		registerChain := rateLimitChain(deps, "auth_register_ip", deps.Config.RateLimit.RegisterMaxAttempts)
		authGroup.POST("/register", append(registerChain, registrationHandler.Register)...)

		passwordHandler := handlers.NewPasswordHandler(deps.Services.PasswordReset, isDev)

		resetChain := rateLimitChain(deps, "password_reset_ip", deps.Config.RateLimit.PasswordResetMaxAttempts)
		authGroup.POST("/forgot-password", append(resetChain, passwordHandler.RequestReset)...)
		authGroup.POST("/verify-reset-code", passwordHandler.VerifyResetCode)
		authGroup.POST("/reset-password", passwordHandler.ConfirmReset)

		authMiddleware := middleware.RequireAuth(deps.Services.Auth)

		userHandler := handlers.NewUserHandler()
		usersGroup := api.Group("/users")
		usersGroup.GET("/me", authMiddleware, userHandler.Me)
		usersGroup.POST("/me/password", authMiddleware, passwordHandler.ChangePassword)
	}

	return r
}

func rateLimitChain(deps Dependencies, name string, limit int) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil || limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	rule := middleware.RateLimitRule{
		Name:       name,
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}
