package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/teetime-booking/internal/bookingsync"
	"github.com/iliyamo/teetime-booking/internal/clock"
	"github.com/iliyamo/teetime-booking/internal/holdstore"
	"github.com/iliyamo/teetime-booking/internal/model"
	"github.com/iliyamo/teetime-booking/internal/payment"
	"github.com/iliyamo/teetime-booking/internal/pricecache"
	"github.com/iliyamo/teetime-booking/internal/provider"
	"github.com/iliyamo/teetime-booking/internal/provider/golfmanager"
	"github.com/iliyamo/teetime-booking/internal/provider/teeone"
	"github.com/iliyamo/teetime-booking/internal/provider/zest"
	"github.com/iliyamo/teetime-booking/internal/queue"
	"github.com/iliyamo/teetime-booking/internal/repository"
)

const (
	zestCourse     int64 = 1
	unlinkedCourse int64 = 2
	brokenCourse   int64 = 3
)

type fakeCourses struct {
	courses map[int64]model.Course
	addOns  map[int64][]model.AddOn
}

func (f *fakeCourses) GetCourseByID(_ context.Context, id int64) (model.Course, error) {
	c, ok := f.courses[id]
	if !ok {
		return model.Course{}, repository.ErrNotFound
	}
	return c, nil
}

func (f *fakeCourses) GetAddOnsByCourseID(_ context.Context, id int64) ([]model.AddOn, error) {
	return f.addOns[id], nil
}

func (f *fakeCourses) GetRatePeriodsByCourseID(context.Context, int64) ([]model.RatePeriod, error) {
	return nil, nil
}

type fakeLinks map[int64][]provider.Link

func (f fakeLinks) GetLinksByCourseID(_ context.Context, id int64) ([]provider.Link, error) {
	return f[id], nil
}

type fakeBookings struct {
	mu       sync.Mutex
	bookings map[string]model.Booking
}

func (f *fakeBookings) CreateBooking(_ context.Context, b model.Booking) (model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b.PaymentReference != nil {
		for _, existing := range f.bookings {
			if existing.PaymentReference != nil && *existing.PaymentReference == *b.PaymentReference {
				return model.Booking{}, repository.ErrDuplicate
			}
		}
	}
	b.ID = uuid.NewString()
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
	f.bookings[b.ID] = b
	return b, nil
}

func (f *fakeBookings) GetBookingByID(_ context.Context, id string) (model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return model.Booking{}, repository.ErrNotFound
	}
	return b, nil
}

func (f *fakeBookings) GetBookingByPaymentReference(_ context.Context, ref string) (model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.PaymentReference != nil && *b.PaymentReference == ref {
			return b, nil
		}
	}
	return model.Booking{}, repository.ErrNotFound
}

func (f *fakeBookings) UpdateBookingSyncStatus(_ context.Context, id, status string, syncErr, providerBookingID *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	b.ProviderSyncStatus = status
	b.ProviderSyncError = syncErr
	b.ProviderBookingID = providerBookingID
	f.bookings[id] = b
	return nil
}

func (f *fakeBookings) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.bookings)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []queue.BookingConfirmedEvent
}

func (n *recordingNotifier) PublishBookingConfirmed(_ context.Context, ev queue.BookingConfirmedEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return nil
}

func (n *recordingNotifier) all() []queue.BookingConfirmedEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]queue.BookingConfirmedEvent(nil), n.events...)
}

type failingAdapter struct{}

func (failingAdapter) Search(context.Context, provider.Link, provider.SearchRequest) ([]provider.Slot, error) {
	return nil, &provider.StatusError{StatusCode: 503}
}

func (failingAdapter) SyncBooking(context.Context, provider.Link, provider.BookingRequest) provider.SyncResult {
	return provider.SyncResult{Error: "unavailable"}
}

type harness struct {
	clock        *clock.Fake
	holds        *holdstore.Store
	prices       *pricecache.Memory
	bookings     *fakeBookings
	notifier     *recordingNotifier
	payments     *payment.Local
	availability *AvailabilityService
	orders       *OrderService
	checkout     *CheckoutService
}

var tee = time.Date(2026, 10, 20, 8, 10, 0, 0, time.UTC)

func newHarness(t *testing.T) *harness {
	t.Helper()
	clk := clock.NewFake(time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC))

	courses := &fakeCourses{
		courses: map[int64]model.Course{
			zestCourse:     {ID: zestCourse, Name: "La Reserva", Currency: "EUR", Timezone: "Europe/Madrid"},
			unlinkedCourse: {ID: unlinkedCourse, Name: "Club Local", Currency: "EUR"},
			brokenCourse:   {ID: brokenCourse, Name: "Broken", Currency: "EUR"},
		},
		addOns: map[int64][]model.AddOn{
			zestCourse: {
				{ID: 10, CourseID: zestCourse, Name: "Buggy", PriceCents: 3500, Active: true},
				{ID: 11, CourseID: zestCourse, Name: "Range balls", PriceCents: 400, PerPlayer: true, Active: true},
				{ID: 12, CourseID: zestCourse, Name: "Retired", PriceCents: 100, Active: false},
			},
		},
	}
	links := fakeLinks{
		zestCourse:   {{CourseID: zestCourse, Kind: provider.KindZest, FacilityID: "1234"}},
		brokenCourse: {{CourseID: brokenCourse, Kind: provider.KindGolfmanager, Tenant: "broken"}},
	}
	bookings := &fakeBookings{bookings: map[string]model.Booking{}}
	notifier := &recordingNotifier{}

	adapters := provider.Registry{
		provider.KindZest:   zest.New(zest.Config{}),
		provider.KindTeeOne: teeone.New(teeone.Config{}),
	}
	syncAdapters := provider.Registry{
		provider.KindZest:        zest.New(zest.Config{}),
		provider.KindTeeOne:      teeone.New(teeone.Config{}),
		provider.KindGolfmanager: golfmanager.New(golfmanager.Config{}),
	}
	adapters[provider.KindGolfmanager] = failingAdapter{}

	logger := watermill.NopLogger{}
	pub, sub, err := bookingsync.NewPubSub(nil, logger)
	require.NoError(t, err)
	router, err := bookingsync.NewRouter(logger, sub,
		bookingsync.NewProcessor(bookings, courses, bookingsync.NewDispatcher(links, syncAdapters)))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = router.Run(ctx) }()
	<-router.Running()

	holds := holdstore.New(clk, holdstore.DefaultHoldTTL)
	prices := pricecache.NewMemory(clk, pricecache.DefaultTTL)
	payments := payment.NewLocal("http://localhost:8080", clk)

	orders := NewOrderService(OrderDeps{
		Holds:    holds,
		Prices:   prices,
		Courses:  courses,
		Links:    links,
		Bookings: bookings,
		Sync:     bookingsync.NewRequester(pub),
		Notifier: notifier,
		Vouchers: Vouchers{Secret: "test-secret", BaseURL: "http://localhost:8080"},
		Clock:    clk,
	})
	t.Cleanup(orders.Wait)

	return &harness{
		clock:        clk,
		holds:        holds,
		prices:       prices,
		bookings:     bookings,
		notifier:     notifier,
		payments:     payments,
		availability: NewAvailabilityService(courses, links, adapters, prices),
		orders:       orders,
		checkout:     NewCheckoutService(prices, courses, holds, orders, payments, "http://localhost:8080", clk),
	}
}

var customer = holdstore.Customer{FirstName: "Ana", LastName: "Ruiz", Email: "ana@example.com"}

func cents(v int64) *int64 { return &v }
