package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/teetime-booking/internal/holdstore"
	"github.com/iliyamo/teetime-booking/internal/logging"
	"github.com/iliyamo/teetime-booking/internal/payment"
	"github.com/iliyamo/teetime-booking/internal/service"
)

// Error codes returned in the "code" field of every error body.
const (
	CodeOrderNotFound     = "ORDER_NOT_FOUND"
	CodeHoldExpired       = "HOLD_EXPIRED"
	CodeAlreadyConfirmed  = "ALREADY_CONFIRMED"
	CodeConfirmInProgress = "CONFIRM_IN_PROGRESS"
	CodeOrderNotHeld      = "ORDER_NOT_HELD"
	CodeCustomerRequired  = "CUSTOMER_REQUIRED"
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodePriceNotCached    = "PRICE_NOT_CACHED"
	CodePriceExpired      = "PRICE_EXPIRED"
	CodeUnknownAddOn      = "UNKNOWN_ADDON"
	CodeCourseNotFound    = "COURSE_NOT_FOUND"
	CodeBookingNotFound   = "BOOKING_NOT_FOUND"
	CodeSessionNotFound   = "SESSION_NOT_FOUND"
	CodePaymentRefInUse   = "PAYMENT_REFERENCE_IN_USE"
	CodeProviderDown      = "PROVIDER_UNAVAILABLE"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeInternal          = "INTERNAL"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{holdstore.ErrNotFound, http.StatusNotFound, CodeOrderNotFound},
	{holdstore.ErrExpired, http.StatusGone, CodeHoldExpired},
	{holdstore.ErrAlreadyConfirmed, http.StatusBadRequest, CodeAlreadyConfirmed},
	{holdstore.ErrConfirmInProgress, http.StatusConflict, CodeConfirmInProgress},
	{holdstore.ErrNotHeld, http.StatusConflict, CodeOrderNotHeld},
	{holdstore.ErrInvalidSelection, http.StatusBadRequest, CodeInvalidRequest},
	{service.ErrCustomerRequired, http.StatusBadRequest, CodeCustomerRequired},
	{service.ErrInvalidRequest, http.StatusBadRequest, CodeInvalidRequest},
	{service.ErrPriceNotCached, http.StatusBadRequest, CodePriceNotCached},
	{service.ErrPriceExpired, http.StatusBadRequest, CodePriceExpired},
	{service.ErrUnknownAddOn, http.StatusBadRequest, CodeUnknownAddOn},
	{service.ErrCourseNotFound, http.StatusNotFound, CodeCourseNotFound},
	{service.ErrBookingNotFound, http.StatusNotFound, CodeBookingNotFound},
	{service.ErrPaymentReferenceUse, http.StatusConflict, CodePaymentRefInUse},
	{service.ErrProviderUnavailable, http.StatusBadGateway, CodeProviderDown},
	{payment.ErrSessionNotFound, http.StatusNotFound, CodeSessionNotFound},
}

// classify maps a service error to its HTTP status and code.
func classify(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, CodeInternal
}

// fail writes the JSON error body for err.  Unknown errors are logged and
// reported without their message.
func fail(c echo.Context, err error) error {
	status, code := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logging.FromContext(c.Request().Context()).WithError(err).Error("request failed")
		msg = "internal error"
	}
	return c.JSON(status, echo.Map{"error": msg, "code": code})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg, "code": CodeInvalidRequest})
}
