package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/teetime-booking/internal/handler"    // admin handlers
	"github.com/iliyamo/teetime-booking/internal/middleware" // JWT + role middlewares
	"github.com/iliyamo/teetime-booking/internal/utils"
)

// RegisterAdmin registers the back-office endpoints under /v1/admin.
// Login is open behind its own limiter; everything else requires an
// admin token.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string, loginLimiter echo.MiddlewareFunc) {
	e.POST("/v1/admin/login", a.Login, loginLimiter)

	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(utils.RoleAdmin),
	)
	g.GET("/bookings/:id", a.GetBooking)
	g.POST("/bookings/:id/resync", a.Resync)
	g.GET("/holds", a.HoldStats)
}
