package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/teetime-booking/internal/holdstore"
	"github.com/iliyamo/teetime-booking/internal/model"
	"github.com/iliyamo/teetime-booking/internal/service"
)

// OrderHandler exposes the hold lifecycle: add or change an order item,
// read it back and confirm it into a booking.
type OrderHandler struct {
	Orders *service.OrderService
}

type itemReq struct {
	OrderID  string      `json:"orderId"`
	SlotID   string      `json:"slotId"`
	Players  int         `json:"players"`
	Holes    int         `json:"holes"`
	GreenFee *float64    `json:"greenFee"`
	Extras   []extraView `json:"extras"`
}

type confirmReq struct {
	OrderID  string             `json:"orderId"`
	Customer holdstore.Customer `json:"customer"`
	Payment  *holdstore.Payment `json:"payment"`
}

// UpsertItem handles POST /v1/orders/items.  Without orderId a new hold is
// created; with one, the existing HELD order is re-priced in place.
func (h *OrderHandler) UpsertItem(c echo.Context) error {
	var req itemReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if strings.TrimSpace(req.SlotID) == "" {
		return badRequest(c, "slotId is required")
	}

	in := service.ItemRequest{
		OrderID: strings.TrimSpace(req.OrderID),
		SlotID:  req.SlotID,
		Players: req.Players,
		Holes:   req.Holes,
	}
	if req.GreenFee != nil {
		fee := model.FromDecimal(*req.GreenFee)
		in.GreenFeeCents = &fee
	}
	for _, e := range req.Extras {
		in.Extras = append(in.Extras, holdstore.LineItem{
			Description: e.Description,
			AmountCents: model.FromDecimal(e.Amount),
			Currency:    e.Currency,
		})
	}

	hold, err := h.Orders.UpsertItem(c.Request().Context(), in)
	if err != nil {
		return fail(c, err)
	}
	status := http.StatusOK
	if in.OrderID == "" {
		status = http.StatusCreated
	}
	return c.JSON(status, newOrderView(hold))
}

// GetOrder handles GET /v1/orders/:id.
func (h *OrderHandler) GetOrder(c echo.Context) error {
	hold, err := h.Orders.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, newOrderView(hold))
}

// Confirm handles POST /v1/bookings/confirm.  The response never waits for
// the provider: providerBookingId is null until the sync resolves.
func (h *OrderHandler) Confirm(c echo.Context) error {
	var req confirmReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if strings.TrimSpace(req.OrderID) == "" {
		return badRequest(c, "orderId is required")
	}

	conf, err := h.Orders.Confirm(c.Request().Context(), service.ConfirmRequest{
		OrderID:  req.OrderID,
		Customer: req.Customer,
		Payment:  req.Payment,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, confirmationView(conf))
}

func confirmationView(conf service.Confirmation) bookingView {
	v := newBookingView(conf.Booking)
	v.VoucherURL = conf.VoucherURL
	v.Reused = conf.Reused
	return v
}
