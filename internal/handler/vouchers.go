package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/teetime-booking/internal/model"
	"github.com/iliyamo/teetime-booking/internal/repository"
	"github.com/iliyamo/teetime-booking/internal/service"
)

// VoucherHandler renders the booking a signed voucher link points to.
type VoucherHandler struct {
	Vouchers service.Vouchers
	Orders   *service.OrderService
	Courses  service.CourseStore
}

type voucherView struct {
	BookingID  string  `json:"bookingId"`
	CourseID   int64   `json:"courseId"`
	CourseName string  `json:"courseName,omitempty"`
	Date       string  `json:"date"`
	Time       string  `json:"time"`
	Players    int     `json:"players"`
	Holes      int     `json:"holes"`
	Name       string  `json:"name"`
	Status     string  `json:"status"`
	Payment    string  `json:"paymentStatus"`
	Total      float64 `json:"total"`
	Currency   string  `json:"currency"`
}

// Show handles GET /v1/vouchers/:token.
func (h *VoucherHandler) Show(c echo.Context) error {
	id, err := h.Vouchers.BookingID(c.Param("token"))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid voucher", "code": CodeUnauthorized})
	}
	ctx := c.Request().Context()
	b, err := h.Orders.Booking(ctx, id)
	if err != nil {
		return fail(c, err)
	}

	v := voucherView{
		BookingID: b.ID,
		CourseID:  b.CourseID,
		Players:   b.Players,
		Holes:     b.Holes,
		Name:      b.FirstName + " " + b.LastName,
		Status:    b.Status,
		Payment:   b.PaymentStatus,
		Total:     model.ToDecimal(b.TotalCents),
		Currency:  b.Currency,
	}
	local := b.TeeTime
	course, err := h.Courses.GetCourseByID(ctx, b.CourseID)
	switch {
	case err == nil:
		v.CourseName = course.Name
		local = b.TeeTime.In(service.CourseLocation(course))
	case !errors.Is(err, repository.ErrNotFound):
		return fail(c, err)
	}
	v.Date, v.Time = local.Format("2006-01-02"), local.Format("15:04")
	return c.JSON(http.StatusOK, v)
}
