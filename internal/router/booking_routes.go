package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/teetime-booking/internal/handler"
)

// RegisterBooking registers the order, confirm, checkout and voucher
// endpoints under /v1.  They are public; limiter throttles the ones that
// write.
func RegisterBooking(e *echo.Echo, o *handler.OrderHandler, co *handler.CheckoutHandler, v *handler.VoucherHandler, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1")

	g.POST("/orders/items", o.UpsertItem, limiter)
	g.GET("/orders/:id", o.GetOrder)
	g.POST("/bookings/confirm", o.Confirm, limiter)

	g.POST("/checkout/sessions", co.CreateSession, limiter)
	// Pay button of the in-process checkout page.
	g.POST("/checkout/local/:id", co.CompleteLocal, limiter)
	// Called by the payment processor, never throttled.
	g.POST("/payments/webhook", co.Webhook)

	g.GET("/vouchers/:token", v.Show)
}
