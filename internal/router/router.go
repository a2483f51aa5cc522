// Package router assembles the HTTP surface of the admin service
package router

import (
	"admin-service/internal/handler"
	"admin-service/internal/middleware"
	"admin-service/internal/revocation"
	"admin-service/internal/service"
	"admin-service/internal/store"
	"admin-service/pkg/config"
	"admin-service/pkg/database"
	"admin-service/pkg/jwtutil"
	"admin-service/pkg/logger"
	"admin-service/prometheus"

	"github.com/benbjohnson/clock"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Options carries the dependencies of the HTTP server
type Options struct {
	Config *config.Config
	Logger *zap.Logger
	Store  store.Store
	// DB is pinged by /health?check=db
	DB database.Pinger
	// Revoked enables logout revocation. Nil keeps logout stateless.
	Revoked revocation.Store
	Clock   clock.Clock
}

// New builds the echo instance with middleware and every route registered
func New(opts Options) *echo.Echo {
	cfg := opts.Config
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}

	tokens := jwtutil.NewJWTUtil(cfg.JWT, clk)
	authSvc := service.NewAuthService(opts.Store, tokens, opts.Revoked, clk, log)

	authHandler := handler.NewAuthHandler(authSvc)
	tenantHandler := handler.NewTenantHandler(service.NewTenantService(opts.Store, log))
	directory := handler.NewDirectoryHandler(
		service.NewUserService(opts.Store),
		service.NewRoleService(opts.Store),
		service.NewPlanService(opts.Store),
	)
	health := handler.NewHealthHandler(opts.DB, clk)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler

	// Apply global middleware - order matters
	e.Pre(echomiddleware.RemoveTrailingSlash())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.CORS.AllowOrigins,
	}))
	e.Use(middleware.RequestIDMiddleware)
	e.Use(prometheus.MetricsMiddleware())
	e.Use(logger.Middleware(log))
	e.Use(echomiddleware.BodyLimit(cfg.Upload.BodyLimit()))

	// Public routes
	e.GET("/", health.Index)
	e.GET("/health", health.Health)
	e.GET("/metrics", handler.Metrics)

	requireAccess := middleware.RequireToken(authSvc, jwtutil.AccessToken)
	requireRefresh := middleware.RequireToken(authSvc, jwtutil.RefreshToken)

	auth := e.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh, requireRefresh)
	auth.POST("/logout", authHandler.Logout, requireAccess)

	// Everything under /api except the plan catalogue requires an access token

	api := e.Group("/api")
	api.GET("/plans", directory.ListPlans)
	api.GET("/users", directory.ListUsers, requireAccess)
	api.GET("/roles", directory.ListRoles, requireAccess)

	// Auth stays per route so unknown paths under /api/tenants still 404
	tenants := api.Group("/tenants")
	tenants.GET("", tenantHandler.List, requireAccess)
	tenants.POST("", tenantHandler.Create, requireAccess)
	tenants.GET("/:id", tenantHandler.Get, requireAccess)
	tenants.PUT("/:id", tenantHandler.Update, requireAccess)
	tenants.DELETE("/:id", tenantHandler.Delete, requireAccess)
	tenants.POST("/:id/activate", tenantHandler.Activate, requireAccess)
	tenants.POST("/:id/deactivate", tenantHandler.Deactivate, requireAccess)

	return e
}
