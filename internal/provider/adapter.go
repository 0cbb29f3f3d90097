package provider

import (
	"context"
	"fmt"
)

// Adapter is implemented by every provider client.
type Adapter interface {
	// Search returns the availability of one course for one day.
	Search(ctx context.Context, link Link, req SearchRequest) ([]Slot, error)
	// SyncBooking mirrors a confirmed booking upstream.  It reports
	// failures in the result and never returns an error.
	SyncBooking(ctx context.Context, link Link, req BookingRequest) SyncResult
}

// Registry routes a decoded link to the adapter of its kind.
type Registry map[Kind]Adapter

// For returns the adapter serving link.
func (r Registry) For(link Link) (Adapter, error) {
	a, ok := r[link.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: no adapter for %q", ErrInvalidLink, link.Kind)
	}
	return a, nil
}
