package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/workspace-booking/internal/config"
	"github.com/iliyamo/workspace-booking/internal/handler"
	"github.com/iliyamo/workspace-booking/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo) {
	// Health probe for load balancers and monitoring.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints.  Register,
// login, refresh and logout live under /v1/auth and need no access
// token; /v1/me sits behind the JWT middleware applied by RegisterAPI.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
}

// RegisterAPI wires the protected booking, room and analytics routes.
// Every route requires a valid access token; room management is
// restricted to admins.  The analytics reads additionally go through
// the Redis response cache.
func RegisterAPI(e *echo.Echo, jwtSecret string, rdb *redis.Client,
	a *handler.AuthHandler, rooms *handler.RoomHandler,
	bookings *handler.BookingHandler, reports *handler.AnalyticsHandler) {

	api := e.Group("/v1")
	api.Use(middleware.JWTAuth(jwtSecret))
	api.Use(middleware.RequireRole("ADMIN", "MEMBER"))

	api.GET("/me", a.Me)

	// Rooms: reads for everyone, management for admins only.
	api.GET("/rooms", rooms.List)
	api.GET("/rooms/:id", rooms.Get)
	admin := middleware.RequireRole("ADMIN")
	api.POST("/rooms", rooms.Create, admin)
	api.PATCH("/rooms/:id", rooms.Update, admin)
	api.DELETE("/rooms/:id", rooms.Delete, admin)

	// Booking lifecycle.
	api.POST("/bookings", bookings.Create)
	api.GET("/bookings/:id", bookings.Get)
	api.GET("/my-bookings", bookings.ListMine)
	api.POST("/bookings/:id/confirm", bookings.Confirm)
	api.POST("/bookings/:id/cancel", bookings.Cancel)
	api.PATCH("/bookings/:id/schedule", bookings.Reschedule)

	// Read-only analytics behind the response cache.
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	api.GET("/rooms/:id/free-slots", reports.FreeSlots, cache)
	api.GET("/analytics/utilization", reports.Utilization, cache)
}
