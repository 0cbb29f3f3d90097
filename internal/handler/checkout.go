package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/teetime-booking/internal/holdstore"
	"github.com/iliyamo/teetime-booking/internal/logging"
	"github.com/iliyamo/teetime-booking/internal/payment"
	"github.com/iliyamo/teetime-booking/internal/service"
)

// CheckoutHandler creates payment sessions behind the price guard and
// receives payment notifications.  Payments is the in-process checkout
// page; it is nil once a hosted processor is configured.
type CheckoutHandler struct {
	Checkout *service.CheckoutService
	Payments *payment.Local
}

type checkoutReq struct {
	OrderID  string             `json:"orderId"`
	AddOns   []addOnReq         `json:"addOns"`
	Customer holdstore.Customer `json:"customer"`
	GreenFee *float64           `json:"greenFee"`
}

type addOnReq struct {
	ID       int64 `json:"id"`
	Quantity int   `json:"quantity"`
}

// CreateSession handles POST /v1/checkout/sessions for a held order.  Any
// greenFee in the body is ignored: the charged price always comes from
// the price cache.
func (h *CheckoutHandler) CreateSession(c echo.Context) error {
	var req checkoutReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if strings.TrimSpace(req.OrderID) == "" {
		return badRequest(c, "orderId is required")
	}

	in := service.CheckoutRequest{
		OrderID:  strings.TrimSpace(req.OrderID),
		Customer: req.Customer,
	}
	for _, a := range req.AddOns {
		in.AddOns = append(in.AddOns, service.AddOnSelection{ID: a.ID, Quantity: a.Quantity})
	}

	sess, err := h.Checkout.CreateSession(c.Request().Context(), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"sessionId": sess.ID,
		"url":       sess.URL,
		"total":     float64(sess.AmountTotalCents) / 100,
		"currency":  sess.Currency,
	})
}

// CompleteLocal handles POST /v1/checkout/local/:id, the pay button of the
// in-process checkout page.  It delivers the completion event the same
// way a webhook would.
func (h *CheckoutHandler) CompleteLocal(c echo.Context) error {
	if h.Payments == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "local checkout disabled", "code": CodeSessionNotFound})
	}
	ev, err := h.Payments.Complete(c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return h.deliver(c, ev)
}

// Webhook handles POST /v1/payments/webhook.  Redelivery of an event that
// was already processed answers with the existing booking.
func (h *CheckoutHandler) Webhook(c echo.Context) error {
	var ev payment.Event
	if err := c.Bind(&ev); err != nil || ev.Type == "" {
		return badRequest(c, "invalid event")
	}
	return h.deliver(c, ev)
}

func (h *CheckoutHandler) deliver(c echo.Context, ev payment.Event) error {
	log := logging.FromContext(c.Request().Context()).WithField("event_id", ev.ID).WithField("event_type", ev.Type)

	conf, err := h.Checkout.HandlePaymentEvent(c.Request().Context(), ev)
	if err != nil {
		log.WithError(err).Warn("payment event not processed")
		return fail(c, err)
	}
	if conf == nil {
		return c.JSON(http.StatusOK, echo.Map{"received": true})
	}
	log.WithField("booking_id", conf.Booking.ID).Info("payment event processed")
	return c.JSON(http.StatusOK, echo.Map{"received": true, "booking": confirmationView(*conf)})
}
