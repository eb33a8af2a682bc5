// Package router maps the HTTP surface onto the handlers and decides
// which middleware guards which group.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/hostel-booking/internal/config"
	"github.com/iliyamo/hostel-booking/internal/handler"
	"github.com/iliyamo/hostel-booking/internal/middleware"
)

// RegisterRoutes registers the health check, which sits outside every
// middleware chain.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the guest-facing endpoints.  The whole group
// sits behind the Redis token-bucket limiter; the availability quote
// additionally goes through the short-lived response cache.  Both
// middlewares degrade to pass-through when Redis is unavailable.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, w *handler.WebhookHandler, rdb *redis.Client) {
	g := e.Group("/v1")
	g.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	quoteCache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	g.GET("/categories", p.GetCategories, quoteCache)
	g.GET("/availability", p.GetAvailability, quoteCache)

	g.POST("/bookings", p.CreateBooking)
	g.GET("/bookings/:id", p.GetBooking)
	g.POST("/bookings/:id/pay", p.PayBooking)
	g.POST("/bookings/:id/cancel", p.CancelBooking)

	// The gateway authenticates itself through payment metadata, not a
	// token; the handler always acknowledges so it never gets throttled
	// into a retry storm.  Registered outside the rate-limited group.
	e.POST("/v1/payments/webhook", w.Receive)
}

// RegisterAdmin registers the staff endpoints behind the admin JWT.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group("/v1/admin")
	g.Use(middleware.AdminAuth(jwtSecret))

	g.GET("/blocked-dates", a.ListBlockedDates)
	g.POST("/blocked-dates", a.CreateBlockedDate)
	g.DELETE("/blocked-dates/:id", a.DeleteBlockedDate)

	g.POST("/sweep", a.TriggerSweep)
	g.GET("/bookings", a.ListBookings)
	g.POST("/audit", a.RunAudit)
}
