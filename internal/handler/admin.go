package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/teetime-booking/internal/holdstore"
	"github.com/iliyamo/teetime-booking/internal/logging"
	"github.com/iliyamo/teetime-booking/internal/service"
	"github.com/iliyamo/teetime-booking/internal/utils"
)

// AdminHandler serves the back office.  There is a single admin account
// configured through ADMIN_EMAIL and ADMIN_PASSWORD_HASH.
type AdminHandler struct {
	Email    string
	PassHash string
	Secret   string
	TTLMin   int
	Orders   *service.OrderService
	Holds    *holdstore.Store
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// Login: verify the admin credentials and issue an access token.
func (h *AdminHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "email/password required")
	}

	if req.Email != strings.ToLower(h.Email) || !utils.VerifyPassword(h.PassHash, req.Password) {
		logging.FromContext(c.Request().Context()).WithField("email", req.Email).Warn("admin login rejected")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials", "code": CodeUnauthorized})
	}

	access, err := utils.NewAdminToken(h.Secret, req.Email, h.TTLMin)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// GetBooking handles GET /v1/admin/bookings/:id, including the provider
// sync columns.
func (h *AdminHandler) GetBooking(c echo.Context) error {
	b, err := h.Orders.Booking(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, newBookingView(b))
}

// Resync handles POST /v1/admin/bookings/:id/resync.  The sync runs in the
// background; poll GetBooking for the outcome.
func (h *AdminHandler) Resync(c echo.Context) error {
	b, err := h.Orders.Resync(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	logging.FromContext(c.Request().Context()).WithField("booking_id", b.ID).WithField("admin", c.Get("user_id")).Info("provider resync requested")
	return c.JSON(http.StatusAccepted, echo.Map{"bookingId": b.ID, "previousSyncStatus": b.ProviderSyncStatus})
}

// HoldStats handles GET /v1/admin/holds: hold counts per status.
func (h *AdminHandler) HoldStats(c echo.Context) error {
	stats := h.Holds.Stats()
	total := 0
	for _, n := range stats {
		total += n
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total, "byStatus": stats})
}
