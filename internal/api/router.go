package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/quod-portal/account-service/internal/api/handler"
	"github.com/quod-portal/account-service/internal/api/middleware"
	"github.com/quod-portal/account-service/internal/core/domain"
	"github.com/quod-portal/account-service/internal/core/ports"
)

// Deps is everything the router needs to build its handlers.
type Deps struct {
	Accounts  ports.AccountService
	Auth      ports.AuthService
	JWTSecret string
	Health    map[string]handler.PingFunc
	Logger    zerolog.Logger

	// Registerer and Gatherer default to the global Prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	if d.Registerer == nil {
		d.Registerer = prometheus.DefaultRegisterer
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "accounts",
		Registerer: d.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	accountHandler := handler.NewAccountHandler(d.Accounts)
	authHandler := handler.NewAuthHandler(d.Auth)
	healthHandler := handler.NewHealthHandler(d.Health)

	auth := middleware.Auth(d.JWTSecret)
	admin := middleware.RBAC(domain.RoleAdmin)

	// --- Public ---
	e.POST("/accounts", accountHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/accounts/password/forgot", accountHandler.ForgotPassword)
	e.POST("/accounts/password/reset", accountHandler.ResetPassword)

	// --- Any authenticated account ---
	e.PUT("/accounts", accountHandler.Update, auth)

	// --- Admin only ---
	e.GET("/accounts", accountHandler.List, auth, admin)
	e.GET("/accounts/by-email/:email", accountHandler.FindByEmail, auth, admin)
	e.GET("/accounts/:id", accountHandler.FindByID, auth, admin)
	e.PATCH("/accounts/:id/status", accountHandler.SetStatus, auth, admin)
	e.PATCH("/accounts/:id/role", accountHandler.SetRole, auth, admin)
	e.DELETE("/accounts/:id", accountHandler.Delete, auth, admin)

	// --- Operational ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
