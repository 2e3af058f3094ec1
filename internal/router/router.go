// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/slogsolutions/Army-Exam-Portal/internal/config"
	"github.com/slogsolutions/Army-Exam-Portal/internal/handler"
	"github.com/slogsolutions/Army-Exam-Portal/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the credential endpoints and the self-service
// registration/reset surface. The redis-backed rate limiter guards the
// whole group so one client cannot brute-force logins; it fails open when
// rdb is nil.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, u *handler.UserHandler,
	rlCfg config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group("/v1/auth", middleware.NewTokenBucket(rlCfg, rdb))
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
	g.POST("/register", u.Register)
	g.POST("/password/reset", u.RequestPasswordReset)
	g.POST("/password/reset/confirm", u.ConfirmPasswordReset)
}

// RegisterAPI registers every endpoint behind JWT authentication. Object
// policies run inside the handlers; the admin-only monitoring routes
// additionally carry the RequireAdmin middleware.
func RegisterAPI(e *echo.Echo, jwtSecret string, u *handler.UserHandler,
	ctr *handler.CenterHandler, mon *handler.MonitorHandler) {
	api := e.Group("/v1")
	api.Use(middleware.JWTAuth(jwtSecret))
	api.Use(middleware.RequireActive())

	// User management
	api.GET("/users", u.List)
	api.GET("/users/:id", u.Get)
	api.PUT("/users/:id", u.Update)
	api.DELETE("/users/:id", u.Delete)
	api.GET("/profile", u.Profile)
	api.PUT("/profile", u.UpdateProfile)
	api.POST("/password/change", u.ChangePassword)

	// Center management
	api.GET("/centers", ctr.List)
	api.POST("/centers", ctr.Create)
	api.GET("/centers/:id", ctr.Get)
	api.PUT("/centers/:id", ctr.Update)
	api.DELETE("/centers/:id", ctr.Delete)

	// Security & monitoring
	api.GET("/sessions", mon.ListSessions, middleware.RequireAdmin())
	api.GET("/login-attempts", mon.ListAttempts, middleware.RequireAdmin())
	api.GET("/system-status", mon.SystemStatus)
	api.POST("/force-logout", mon.ForceLogout, middleware.RequireAdmin())
}
