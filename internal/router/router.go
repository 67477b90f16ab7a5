// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/lmeyer/smokefree/internal/auth"
	"github.com/lmeyer/smokefree/internal/config"
	"github.com/lmeyer/smokefree/internal/handler"
	"github.com/lmeyer/smokefree/internal/middleware"
)

// RegisterRoutes registers routes that require no authentication context at
// all. Currently that is only the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAPI registers the application routes. The identity gate runs on
// every request; it only binds (or declines to bind) an identity, so public
// routes are unaffected. Protected endpoints live under /v1 behind
// RequireAuth, credential endpoints under /v1/auth behind the rate limiter,
// and the derived-metrics GETs additionally go through the response cache.
func RegisterAPI(
	e *echo.Echo,
	a *handler.AuthHandler,
	p *handler.ProfileHandler,
	m *handler.ProgressHandler,
	provider *auth.Provider,
	log *logrus.Logger,
	rdb *redis.Client,
	cacheCfg config.CacheConfig,
	rlCfg config.RateLimitConfig,
) {
	e.Use(middleware.Identity(provider, log))

	creds := e.Group("/v1/auth")
	creds.Use(middleware.NewTokenBucket(rlCfg, rdb))
	creds.POST("/register", a.Register)
	creds.POST("/login", a.Login)

	protected := e.Group("/v1")
	protected.Use(middleware.RequireAuth())
	protected.GET("/profile", p.Get)
	protected.PUT("/profile", p.Update)

	cached := protected.Group("")
	cached.Use(middleware.NewRedisCache(cacheCfg, rdb))
	cached.GET("/dashboard/stats", m.Dashboard)
	cached.GET("/health/progress", m.HealthProgress)
	cached.GET("/statistics", m.Statistics)
}
