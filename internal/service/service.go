// Package service implements the booking flow on top of the stores and
// provider adapters: availability search (which feeds the price cache),
// holds, confirmation, and the checkout price guard.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/teetime-booking/internal/model"
	"github.com/iliyamo/teetime-booking/internal/provider"
	"github.com/iliyamo/teetime-booking/internal/queue"
)

var (
	ErrCourseNotFound      = errors.New("course not found")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrCustomerRequired    = errors.New("customer first name, last name and email are required")
	ErrPriceNotCached      = errors.New("price not cached, please reselect the tee time")
	ErrPriceExpired        = errors.New("price expired, please reselect the tee time")
	ErrUnknownAddOn        = errors.New("unknown add-on")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrPaymentReferenceUse = errors.New("payment reference belongs to another order")
)

type CourseStore interface {
	GetCourseByID(ctx context.Context, id int64) (model.Course, error)
	GetAddOnsByCourseID(ctx context.Context, courseID int64) ([]model.AddOn, error)
	GetRatePeriodsByCourseID(ctx context.Context, courseID int64) ([]model.RatePeriod, error)
}

type LinkStore interface {
	GetLinksByCourseID(ctx context.Context, courseID int64) ([]provider.Link, error)
}

type BookingStore interface {
	CreateBooking(ctx context.Context, b model.Booking) (model.Booking, error)
	GetBookingByID(ctx context.Context, id string) (model.Booking, error)
	GetBookingByPaymentReference(ctx context.Context, ref string) (model.Booking, error)
}

// SyncRequester schedules a provider sync without waiting for it.
type SyncRequester interface {
	RequestSync(ctx context.Context, bookingID string, force bool) error
}

// Notifier queues the confirmation email.
type Notifier interface {
	PublishBookingConfirmed(ctx context.Context, event queue.BookingConfirmedEvent) error
}

// CourseLocation returns the course's zone, or the marketplace default.
func CourseLocation(c model.Course) *time.Location {
	return provider.LocationFor(c.Timezone)
}
