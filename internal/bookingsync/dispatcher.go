// Package bookingsync mirrors confirmed bookings to the provider that owns
// the course tee sheet.  Sync runs after the confirmation response has
// been sent; its outcome is stored on the booking, never returned to the
// customer.
package bookingsync

import (
	"context"
	"fmt"

	"github.com/iliyamo/teetime-booking/internal/model"
	"github.com/iliyamo/teetime-booking/internal/provider"
)

// ProviderNone marks a result for a course without a provider link.
const ProviderNone = "none"

type LinkStore interface {
	GetLinksByCourseID(ctx context.Context, courseID int64) ([]provider.Link, error)
}

// Dispatcher routes a booking to the sync function of its course's
// provider.
type Dispatcher struct {
	links    LinkStore
	adapters provider.Registry
}

func NewDispatcher(links LinkStore, adapters provider.Registry) *Dispatcher {
	return &Dispatcher{links: links, adapters: adapters}
}

// Sync never returns an error: every failure ends up in the result.
func (d *Dispatcher) Sync(ctx context.Context, b model.Booking, c model.Course) provider.SyncResult {
	links, err := d.links.GetLinksByCourseID(ctx, c.ID)
	if err != nil {
		return provider.SyncResult{Error: fmt.Sprintf("loading provider links: %v", err)}
	}
	if len(links) == 0 {
		return provider.SyncResult{Success: true, Provider: ProviderNone}
	}

	link := links[0]
	adapter, err := d.adapters.For(link)
	if err != nil {
		return provider.SyncResult{Provider: string(link.Kind), Error: err.Error()}
	}
	return adapter.SyncBooking(ctx, link, BookingRequest(b, c))
}

// BookingRequest converts a durable booking to what providers receive.
// Tee times are sent local to the course.
func BookingRequest(b model.Booking, c model.Course) provider.BookingRequest {
	req := provider.BookingRequest{
		BookingID:  b.ID,
		TeeTime:    b.TeeTime,
		Players:    b.Players,
		Holes:      b.Holes,
		FirstName:  b.FirstName,
		LastName:   b.LastName,
		Email:      b.Email,
		TotalCents: b.TotalCents,
		Currency:   b.Currency,
		Location:   provider.LocationFor(c.Timezone),
	}
	if b.Phone != nil {
		req.Phone = *b.Phone
	}
	return req
}

// Status maps a result to the sync status stored on the booking.
func Status(res provider.SyncResult) string {
	switch {
	case res.Success && res.Provider == ProviderNone:
		return model.SyncStatusNotRequired
	case res.Success:
		return model.SyncStatusSynced
	default:
		return model.SyncStatusFailed
	}
}
