// Package holdstore keeps in-progress orders ("holds") in memory while a
// customer goes from picking a tee time to paying for it.
package holdstore

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/teetime-booking/internal/clock"
)

// Defaults for hold lifetime and housekeeping.
const (
	DefaultHoldTTL       = 15 * time.Minute
	DefaultSweepInterval = 5 * time.Minute
	DefaultRetention     = 24 * time.Hour
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrExpired           = errors.New("hold expired")
	ErrAlreadyConfirmed  = errors.New("order already confirmed")
	ErrConfirmInProgress = errors.New("order confirmation in progress")
	ErrNotHeld           = errors.New("order is no longer held")
	ErrInvalidSelection  = errors.New("invalid selection")
)

// Store is safe for concurrent use.  Every operation runs its check and
// transition under one lock.
type Store struct {
	clock clock.Clock
	ttl   time.Duration

	mu    sync.Mutex
	holds map[string]*Hold
}

func New(clk clock.Clock, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultHoldTTL
	}
	return &Store{clock: clk, ttl: ttl, holds: map[string]*Hold{}}
}

func validate(sel Selection) error {
	if sel.Players < 1 || sel.CourseID <= 0 || sel.SlotID == "" || sel.GreenFeeCents < 0 {
		return ErrInvalidSelection
	}
	for _, e := range sel.Extras {
		if e.AmountCents < 0 {
			return ErrInvalidSelection
		}
	}
	return nil
}

// Upsert creates a hold for orderID, generating an id when it is empty,
// or re-prices an existing hold that is still held.  The expiry of an
// existing hold is not extended.
func (s *Store) Upsert(orderID string, sel Selection) (Hold, error) {
	if err := validate(sel); err != nil {
		return Hold{}, err
	}
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if orderID != "" {
		if h, ok := s.holds[orderID]; ok {
			if h.Status == StatusHeld && !now.Before(h.HoldExpiresAt) {
				h.Status = StatusExpired
				h.UpdatedAt = now
			}
			switch h.Status {
			case StatusHeld:
			case StatusExpired:
				return Hold{}, ErrExpired
			default:
				return Hold{}, ErrNotHeld
			}
			h.apply(sel)
			h.UpdatedAt = now
			return h.clone(), nil
		}
	} else {
		orderID = uuid.NewString()
	}

	h := &Hold{
		OrderID:       orderID,
		Status:        StatusHeld,
		HoldExpiresAt: now.Add(s.ttl),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	h.apply(sel)
	s.holds[orderID] = h
	return h.clone(), nil
}

// Get returns a copy of the hold.
func (s *Store) Get(orderID string) (Hold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.holds[orderID]
	if !ok {
		return Hold{}, ErrNotFound
	}
	return h.clone(), nil
}

// BeginConfirm checks that the hold can be confirmed and moves it to
// CONFIRMING in the same step, attaching the customer and payment.
func (s *Store) BeginConfirm(orderID string, customer Customer, payment *Payment) (Hold, error) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.holds[orderID]
	if !ok {
		return Hold{}, ErrNotFound
	}
	if h.Status == StatusHeld && !now.Before(h.HoldExpiresAt) {
		h.Status = StatusExpired
		h.UpdatedAt = now
	}
	switch h.Status {
	case StatusExpired:
		return Hold{}, ErrExpired
	case StatusConfirmed:
		return Hold{}, ErrAlreadyConfirmed
	case StatusConfirming:
		return Hold{}, ErrConfirmInProgress
	}

	h.Status = StatusConfirming
	h.Customer = &customer
	if payment != nil {
		p := *payment
		h.Payment = &p
	}
	h.UpdatedAt = now
	return h.clone(), nil
}

// CompleteConfirm records the durable booking and finishes confirmation.
func (s *Store) CompleteConfirm(orderID, bookingID string) (Hold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.holds[orderID]
	if !ok {
		return Hold{}, ErrNotFound
	}
	if h.Status != StatusConfirming {
		return Hold{}, ErrNotHeld
	}
	h.Status = StatusConfirmed
	h.BookingID = bookingID
	h.UpdatedAt = s.clock.Now()
	return h.clone(), nil
}

// AbortConfirm returns a hold to HELD after a failed booking write, or
// to EXPIRED when its time ran out meanwhile.
func (s *Store) AbortConfirm(orderID string) error {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.holds[orderID]
	if !ok {
		return ErrNotFound
	}
	if h.Status != StatusConfirming {
		return ErrNotHeld
	}
	h.Status = StatusHeld
	if !now.Before(h.HoldExpiresAt) {
		h.Status = StatusExpired
	}
	h.UpdatedAt = now
	return nil
}

// ExpireDue flips every held hold past its expiry to EXPIRED.
func (s *Store) ExpireDue(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, h := range s.holds {
		if h.Status == StatusHeld && !now.Before(h.HoldExpiresAt) {
			h.Status = StatusExpired
			h.UpdatedAt = now
			n++
		}
	}
	return n
}

// PurgeTerminal drops confirmed and expired holds last touched before
// cutoff.  Their bookings are already durable.
func (s *Store) PurgeTerminal(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, h := range s.holds {
		if h.Status.Terminal() && h.UpdatedAt.Before(cutoff) {
			delete(s.holds, id)
			n++
		}
	}
	return n
}

// Stats counts holds per status.
func (s *Store) Stats() map[Status]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[Status]int{}
	for _, h := range s.holds {
		out[h.Status]++
	}
	return out
}

// Run expires due holds every interval and purges terminal holds older
// than retention, until ctx is done.
func (s *Store) Run(ctx context.Context, interval, retention time.Duration) error {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			now := s.clock.Now()
			expired := s.ExpireDue(now)
			purged := s.PurgeTerminal(now.Add(-retention))
			if expired > 0 || purged > 0 {
				logrus.WithFields(logrus.Fields{"expired": expired, "purged": purged}).Info("hold store swept")
			}
		}
	}
}
