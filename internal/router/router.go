package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/teetime-booking/internal/handler" // handlers implementing each endpoint
)

// RegisterRoutes registers the unauthenticated operational routes.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	// Load balancers and monitoring poll this endpoint.
	e.GET("/healthz", h.Health)
}

// RegisterPublic registers the catalog and availability routes.  cache
// wraps the course list only: availability must always reach the provider
// adapters so every displayed price is recorded.
func RegisterPublic(e *echo.Echo, h *handler.CourseHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/courses", h.ListCourses, cache)
	e.GET("/v1/courses/:id/availability", h.SearchAvailability)
}
