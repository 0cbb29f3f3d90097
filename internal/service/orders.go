package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/teetime-booking/internal/clock"
	"github.com/iliyamo/teetime-booking/internal/holdstore"
	"github.com/iliyamo/teetime-booking/internal/logging"
	"github.com/iliyamo/teetime-booking/internal/model"
	"github.com/iliyamo/teetime-booking/internal/pricecache"
	"github.com/iliyamo/teetime-booking/internal/provider"
	"github.com/iliyamo/teetime-booking/internal/queue"
	"github.com/iliyamo/teetime-booking/internal/repository"
)

// ItemRequest adds a slot to an order or changes it.  GreenFeeCents is
// used only when no price has been cached for the slot.
type ItemRequest struct {
	OrderID       string
	SlotID        string
	Players       int
	Holes         int
	GreenFeeCents *int64
	Extras        []holdstore.LineItem
}

type ConfirmRequest struct {
	OrderID  string
	Customer holdstore.Customer
	Payment  *holdstore.Payment
	Charge   *Charge // set when confirming a paid checkout session
}

// Charge is what a payment session billed.  When present it overrides the
// hold's figures on the booking, so the booking matches the money taken
// even if the hold was re-priced after checkout started.  Zero fields
// fall back to the hold.
type Charge struct {
	CourseID   int64
	TeeTime    time.Time
	Players    int
	TotalCents int64
	Currency   string
}

// Confirmation is the result of a successful confirm.  Reused is set when
// the payment reference already had a booking.
type Confirmation struct {
	Booking    model.Booking
	Hold       holdstore.Hold
	VoucherURL string
	Reused     bool
}

type OrderDeps struct {
	Holds    *holdstore.Store
	Prices   pricecache.Cache
	Courses  CourseStore
	Links    LinkStore
	Bookings BookingStore
	Sync     SyncRequester
	Notifier Notifier
	Vouchers Vouchers
	Clock    clock.Clock
}

type OrderService struct {
	deps OrderDeps
	wg   sync.WaitGroup
}

func NewOrderService(deps OrderDeps) *OrderService {
	if deps.Clock == nil {
		deps.Clock = clock.NewSystem()
	}
	return &OrderService{deps: deps}
}

// UpsertItem creates or re-prices the hold for a slot.
func (s *OrderService) UpsertItem(ctx context.Context, req ItemRequest) (holdstore.Hold, error) {
	ref, err := provider.ParseSlotID(req.SlotID)
	if err != nil {
		return holdstore.Hold{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if req.Players < 1 || req.Players > 4 {
		return holdstore.Hold{}, fmt.Errorf("%w: players must be between 1 and 4", ErrInvalidRequest)
	}

	course, err := s.deps.Courses.GetCourseByID(ctx, ref.CourseID)
	if errors.Is(err, repository.ErrNotFound) {
		return holdstore.Hold{}, ErrCourseNotFound
	}
	if err != nil {
		return holdstore.Hold{}, err
	}

	sel := holdstore.Selection{
		CourseID: course.ID,
		SlotID:   req.SlotID,
		TeeTime:  ref.TeeTime,
		Players:  req.Players,
		Holes:    req.Holes,
		Currency: course.Currency,
		Extras:   req.Extras,
	}
	if sel.Holes == 0 {
		sel.Holes = 18
	}
	local := ref.TeeTime.In(CourseLocation(course))
	sel.Date = local.Format("2006-01-02")
	sel.Time = local.Format("15:04")

	entry, err := s.deps.Prices.Get(ctx, course.ID, ref.TeeTime)
	switch {
	case err == nil:
		sel.GreenFeeCents = entry.PriceCents
		sel.Source = entry.Source
		if entry.Currency != "" {
			sel.Currency = entry.Currency
		}
	case errors.Is(err, pricecache.ErrMiss) && req.GreenFeeCents != nil:
		sel.GreenFeeCents = *req.GreenFeeCents
	case errors.Is(err, pricecache.ErrMiss):
		return holdstore.Hold{}, ErrPriceNotCached
	default:
		return holdstore.Hold{}, err
	}
	for i := range sel.Extras {
		if sel.Extras[i].Currency == "" {
			sel.Extras[i].Currency = sel.Currency
		}
	}

	if links, err := s.deps.Links.GetLinksByCourseID(ctx, course.ID); err == nil && len(links) > 0 {
		sel.Tenant = links[0].Ref()
	}

	h, err := s.deps.Holds.Upsert(req.OrderID, sel)
	if errors.Is(err, holdstore.ErrInvalidSelection) {
		return holdstore.Hold{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if err != nil {
		return holdstore.Hold{}, err
	}
	logging.FromContext(ctx).WithField("order_id", h.OrderID).WithField("total_cents", h.TotalCents).Info("order item held")
	return h, nil
}

func (s *OrderService) Get(_ context.Context, orderID string) (holdstore.Hold, error) {
	return s.deps.Holds.Get(orderID)
}

func validCustomer(c holdstore.Customer) bool {
	if strings.TrimSpace(c.FirstName) == "" || strings.TrimSpace(c.LastName) == "" {
		return false
	}
	_, err := mail.ParseAddress(c.Email)
	return err == nil
}

// Confirm turns a held order into a durable booking.  Provider sync and
// the confirmation email are scheduled afterwards and never affect the
// result.
func (s *OrderService) Confirm(ctx context.Context, req ConfirmRequest) (Confirmation, error) {
	if !validCustomer(req.Customer) {
		return Confirmation{}, ErrCustomerRequired
	}
	log := logging.FromContext(ctx).WithField("order_id", req.OrderID)

	var ref string
	if req.Payment != nil {
		ref = req.Payment.Reference
	}
	if ref != "" {
		existing, err := s.deps.Bookings.GetBookingByPaymentReference(ctx, ref)
		if err == nil {
			return s.reuse(req.OrderID, existing)
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return Confirmation{}, err
		}
	}

	hold, err := s.deps.Holds.BeginConfirm(req.OrderID, req.Customer, req.Payment)
	if err != nil {
		return Confirmation{}, err
	}

	b := newBooking(hold, req)
	course, err := s.deps.Courses.GetCourseByID(ctx, b.CourseID)
	if err != nil {
		_ = s.deps.Holds.AbortConfirm(hold.OrderID)
		return Confirmation{}, fmt.Errorf("loading course: %w", err)
	}

	created, err := s.deps.Bookings.CreateBooking(ctx, b)
	if errors.Is(err, repository.ErrDuplicate) && ref != "" {
		created, err = s.deps.Bookings.GetBookingByPaymentReference(ctx, ref)
	}
	if err != nil {
		_ = s.deps.Holds.AbortConfirm(hold.OrderID)
		return Confirmation{}, fmt.Errorf("creating booking: %w", err)
	}

	hold, err = s.deps.Holds.CompleteConfirm(hold.OrderID, created.ID)
	if err != nil {
		return Confirmation{}, err
	}

	voucherURL, err := s.deps.Vouchers.URL(created.ID, created.TeeTime)
	if err != nil {
		log.WithError(err).Error("signing voucher")
	}

	log.WithField("booking_id", created.ID).Info("booking confirmed")
	s.afterConfirm(ctx, created, course, voucherURL)

	return Confirmation{Booking: created, Hold: hold, VoucherURL: voucherURL}, nil
}

func (s *OrderService) reuse(orderID string, existing model.Booking) (Confirmation, error) {
	if existing.OrderID != orderID {
		return Confirmation{}, ErrPaymentReferenceUse
	}
	c := Confirmation{Booking: existing, Reused: true}
	if h, err := s.deps.Holds.Get(orderID); err == nil {
		c.Hold = h
	}
	c.VoucherURL, _ = s.deps.Vouchers.URL(existing.ID, existing.TeeTime)
	return c, nil
}

func newBooking(h holdstore.Hold, req ConfirmRequest) model.Booking {
	b := model.Booking{
		OrderID:            h.OrderID,
		CourseID:           h.CourseID,
		TeeTime:            h.TeeTime,
		Players:            h.Players,
		Holes:              h.Holes,
		FirstName:          strings.TrimSpace(req.Customer.FirstName),
		LastName:           strings.TrimSpace(req.Customer.LastName),
		Email:              strings.TrimSpace(req.Customer.Email),
		Status:             model.BookingStatusConfirmed,
		PaymentStatus:      model.PaymentStatusPending,
		TotalCents:         h.TotalCents,
		Currency:           h.Currency,
		ProviderSyncStatus: model.SyncStatusPending,
	}
	if p := strings.TrimSpace(req.Customer.Phone); p != "" {
		b.Phone = &p
	}
	if ch := req.Charge; ch != nil {
		b.TotalCents = ch.TotalCents
		if ch.Currency != "" {
			b.Currency = strings.ToUpper(ch.Currency)
		}
		if ch.CourseID > 0 {
			b.CourseID = ch.CourseID
		}
		if !ch.TeeTime.IsZero() {
			b.TeeTime = ch.TeeTime
		}
		if ch.Players > 0 {
			b.Players = ch.Players
		}
	}
	if req.Payment != nil {
		if req.Payment.Reference != "" {
			ref := req.Payment.Reference
			b.PaymentReference = &ref
		}
		if strings.EqualFold(req.Payment.Status, "paid") {
			b.PaymentStatus = model.PaymentStatusPaid
		}
	}
	return b
}

// afterConfirm requests the provider sync and the confirmation email in
// the background.
func (s *OrderService) afterConfirm(ctx context.Context, b model.Booking, c model.Course, voucherURL string) {
	ctx = context.WithoutCancel(ctx)
	log := logging.FromContext(ctx).WithField("booking_id", b.ID)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		if err := s.deps.Sync.RequestSync(ctx, b.ID, false); err != nil {
			log.WithError(err).Error("requesting provider sync")
		}

		ev := queue.BookingConfirmedEvent{
			BookingID:   b.ID,
			OrderID:     b.OrderID,
			CourseID:    c.ID,
			CourseName:  c.Name,
			TeeTime:     b.TeeTime.In(CourseLocation(c)).Format("2006-01-02 15:04"),
			Players:     b.Players,
			Holes:       b.Holes,
			FirstName:   b.FirstName,
			LastName:    b.LastName,
			Email:       b.Email,
			TotalCents:  b.TotalCents,
			Currency:    b.Currency,
			VoucherURL:  voucherURL,
			ConfirmedAt: b.CreatedAt.Format(time.RFC3339),
		}
		if err := s.deps.Notifier.PublishBookingConfirmed(ctx, ev); err != nil {
			log.WithError(err).Warn("queueing confirmation email")
		}
	}()
}

// Resync asks for the provider sync of a booking to run again.
func (s *OrderService) Resync(ctx context.Context, bookingID string) (model.Booking, error) {
	b, err := s.deps.Bookings.GetBookingByID(ctx, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Booking{}, ErrBookingNotFound
	}
	if err != nil {
		return model.Booking{}, err
	}
	if err := s.deps.Sync.RequestSync(ctx, b.ID, true); err != nil {
		return model.Booking{}, err
	}
	return b, nil
}

// Booking loads a durable booking.
func (s *OrderService) Booking(ctx context.Context, id string) (model.Booking, error) {
	b, err := s.deps.Bookings.GetBookingByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Booking{}, ErrBookingNotFound
	}
	return b, err
}

// Wait blocks until background work started by Confirm has finished.
func (s *OrderService) Wait() {
	s.wg.Wait()
}
