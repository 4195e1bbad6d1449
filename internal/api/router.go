package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cedarvest/dashboard-sync/internal/api/handler"
	"github.com/cedarvest/dashboard-sync/internal/api/middleware"
	"github.com/cedarvest/dashboard-sync/internal/core/ports"
	"github.com/cedarvest/dashboard-sync/internal/core/service"
)

// Deps are the collaborators the operator API serves.
type Deps struct {
	Tokens        ports.TokenSource
	Notifications ports.NotificationLog
	Admin         ports.AdminService
	Company       ports.CompanyService
	Investor      ports.InvestorService
	// Channels are reported on the readiness probe by name.
	Channels map[string]handler.Channel
	// Redis is optional.
	Redis redis.Cmdable
	// Registry overrides the default prometheus registry for HTTP metrics.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(log))

	promCfg := echoprometheus.MiddlewareConfig{Subsystem: "operator_api"}
	handlerCfg := echoprometheus.HandlerConfig{}
	if deps.Registry != nil {
		promCfg.Registerer = deps.Registry
		handlerCfg.Gatherer = deps.Registry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(promCfg))

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Channels, deps.Redis)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(handlerCfg))

	// --- Session-authenticated routes ---
	v1 := e.Group("/v1", middleware.Auth(deps.Tokens))

	adminOnly := middleware.RBAC(service.RoleAdmin)
	companyOnly := middleware.RBAC(service.RoleCompany)
	investorOnly := middleware.RBAC(service.RoleInvestor)

	sessionHandler := handler.NewSessionHandler()
	v1.GET("/session", sessionHandler.Me)

	notificationHandler := handler.NewNotificationHandler(deps.Notifications, deps.Admin)
	v1.GET("/notifications", notificationHandler.List, adminOnly)
	v1.GET("/notifications/:id", notificationHandler.Get, adminOnly)
	v1.PUT("/notifications/:id/read", notificationHandler.MarkRead, adminOnly)
	v1.POST("/notifications/:id/approve", notificationHandler.Approve, adminOnly)
	v1.POST("/notifications/:id/reject", notificationHandler.Reject, adminOnly)

	userHandler := handler.NewUserHandler(deps.Admin)
	v1.GET("/users", userHandler.List, adminOnly)
	v1.PUT("/users/:id/activate", userHandler.Activate, adminOnly)
	v1.PUT("/users/:id/deactivate", userHandler.Deactivate, adminOnly)

	investmentHandler := handler.NewInvestmentHandler(deps.Company, deps.Investor)
	v1.GET("/company/investment-requests", investmentHandler.CompanyRequests, companyOnly)
	v1.GET("/company/posting-eligibility", investmentHandler.PostingEligibility, companyOnly)
	v1.POST("/investment-requests/:id/accept", investmentHandler.Accept, companyOnly)
	v1.POST("/investment-requests/:id/reject", investmentHandler.Reject, companyOnly)
	v1.GET("/investor/investments", investmentHandler.Investments, investorOnly)
	v1.POST("/investment-requests/:id/pay", investmentHandler.Pay, investorOnly)
	v1.POST("/investments/:id/payout-request", investmentHandler.RequestPayout, investorOnly)

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
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}
