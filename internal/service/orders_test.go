package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/teetime-booking/internal/holdstore"
	"github.com/iliyamo/teetime-booking/internal/model"
	"github.com/iliyamo/teetime-booking/internal/provider"
)

func TestOrder_HoldConfirmAndSync(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	slotID := provider.FormatSlotID(zestCourse, tee, "standard")

	hold, err := h.orders.UpsertItem(ctx, ItemRequest{SlotID: slotID, Players: 2, GreenFeeCents: cents(8000)})
	require.NoError(t, err)
	assert.Equal(t, int64(16000), hold.TotalCents)
	assert.Equal(t, holdstore.StatusHeld, hold.Status)
	assert.Equal(t, "2026-10-20", hold.Date)
	assert.Equal(t, "10:10", hold.Time)
	assert.Equal(t, "1234", hold.Tenant)

	conf, err := h.orders.Confirm(ctx, ConfirmRequest{OrderID: hold.OrderID, Customer: customer})
	require.NoError(t, err)
	assert.NotEmpty(t, conf.Booking.ID)
	assert.NotEqual(t, hold.OrderID, conf.Booking.ID)
	assert.Equal(t, int64(16000), conf.Booking.TotalCents)
	assert.Equal(t, model.SyncStatusPending, conf.Booking.ProviderSyncStatus)
	assert.Nil(t, conf.Booking.ProviderBookingID)
	assert.Equal(t, holdstore.StatusConfirmed, conf.Hold.Status)
	assert.Equal(t, conf.Booking.ID, conf.Hold.BookingID)
	assert.True(t, strings.HasPrefix(conf.VoucherURL, "http://localhost:8080/v1/vouchers/"))

	assert.EventuallyWithT(t, func(c *assert.CollectT) {
		b, err := h.bookings.GetBookingByID(ctx, conf.Booking.ID)
		assert.NoError(c, err)
		assert.Equal(c, model.SyncStatusSynced, b.ProviderSyncStatus)
		if assert.NotNil(c, b.ProviderBookingID) {
			assert.True(c, strings.HasPrefix(*b.ProviderBookingID, "ZEST-MOCK-"))
		}
	}, 5*time.Second, 20*time.Millisecond)

	assert.EventuallyWithT(t, func(c *assert.CollectT) {
		events := h.notifier.all()
		if assert.Len(c, events, 1) {
			assert.Equal(c, "ana@example.com", events[0].Email)
			assert.Equal(c, "La Reserva", events[0].CourseName)
			assert.Equal(c, conf.VoucherURL, events[0].VoucherURL)
		}
	}, 5*time.Second, 20*time.Millisecond)

	_, err = h.orders.Confirm(ctx, ConfirmRequest{OrderID: hold.OrderID, Customer: customer})
	assert.ErrorIs(t, err, holdstore.ErrAlreadyConfirmed)

	_, err = h.orders.UpsertItem(ctx, ItemRequest{OrderID: hold.OrderID, SlotID: slotID, Players: 3, GreenFeeCents: cents(8000)})
	assert.ErrorIs(t, err, holdstore.ErrNotHeld)
}

func TestOrder_ExpiredHoldCannotBeConfirmed(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	hold, err := h.orders.UpsertItem(ctx, ItemRequest{
		SlotID:        provider.FormatSlotID(zestCourse, tee, "standard"),
		Players:       2,
		GreenFeeCents: cents(8000),
	})
	require.NoError(t, err)

	h.clock.Advance(15*time.Minute + time.Second)
	assert.Equal(t, 1, h.holds.ExpireDue(h.clock.Now()))

	got, err := h.orders.Get(ctx, hold.OrderID)
	require.NoError(t, err)
	assert.Equal(t, holdstore.StatusExpired, got.Status)

	_, err = h.orders.Confirm(ctx, ConfirmRequest{OrderID: hold.OrderID, Customer: customer})
	assert.ErrorIs(t, err, holdstore.ErrExpired)
	assert.Equal(t, 0, h.bookings.count())
}

func TestOrder_UsesCachedPriceOverClientPrice(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.prices.Put(ctx, zestCourse, tee, 9500, "EUR", "Zest"))

	hold, err := h.orders.UpsertItem(ctx, ItemRequest{
		SlotID:        provider.FormatSlotID(zestCourse, tee, "standard"),
		Players:       2,
		GreenFeeCents: cents(100),
		Extras:        []holdstore.LineItem{{Description: "Buggy", AmountCents: 3500}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9500), hold.GreenFeeCents)
	assert.Equal(t, int64(9500*2+3500), hold.TotalCents)
	assert.Equal(t, "Zest", hold.Source)
	assert.Equal(t, "EUR", hold.Extras[0].Currency)
}

func TestOrder_UpsertValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.orders.UpsertItem(ctx, ItemRequest{SlotID: "garbage", Players: 2})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = h.orders.UpsertItem(ctx, ItemRequest{SlotID: provider.FormatSlotID(zestCourse, tee, "x"), Players: 5})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = h.orders.UpsertItem(ctx, ItemRequest{SlotID: provider.FormatSlotID(42, tee, "x"), Players: 2})
	assert.ErrorIs(t, err, ErrCourseNotFound)

	_, err = h.orders.UpsertItem(ctx, ItemRequest{SlotID: provider.FormatSlotID(zestCourse, tee, "x"), Players: 2})
	assert.ErrorIs(t, err, ErrPriceNotCached)
}

func TestOrder_ConfirmValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	hold, err := h.orders.UpsertItem(ctx, ItemRequest{
		SlotID:        provider.FormatSlotID(unlinkedCourse, tee, "standard"),
		Players:       1,
		GreenFeeCents: cents(5000),
	})
	require.NoError(t, err)

	_, err = h.orders.Confirm(ctx, ConfirmRequest{OrderID: hold.OrderID, Customer: holdstore.Customer{FirstName: "Ana", LastName: "Ruiz"}})
	assert.ErrorIs(t, err, ErrCustomerRequired)

	_, err = h.orders.Confirm(ctx, ConfirmRequest{OrderID: "missing", Customer: customer})
	assert.ErrorIs(t, err, holdstore.ErrNotFound)

	got, err := h.orders.Get(ctx, hold.OrderID)
	require.NoError(t, err)
	assert.Equal(t, holdstore.StatusHeld, got.Status)
}

func TestOrder_UnlinkedCourseNeedsNoSync(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	hold, err := h.orders.UpsertItem(ctx, ItemRequest{
		SlotID:        provider.FormatSlotID(unlinkedCourse, tee, "standard"),
		Players:       1,
		GreenFeeCents: cents(5000),
	})
	require.NoError(t, err)
	conf, err := h.orders.Confirm(ctx, ConfirmRequest{OrderID: hold.OrderID, Customer: customer})
	require.NoError(t, err)

	assert.EventuallyWithT(t, func(c *assert.CollectT) {
		b, err := h.bookings.GetBookingByID(ctx, conf.Booking.ID)
		assert.NoError(c, err)
		assert.Equal(c, model.SyncStatusNotRequired, b.ProviderSyncStatus)
	}, 5*time.Second, 20*time.Millisecond)
}

func TestOrder_Resync(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.orders.Resync(ctx, "missing")
	assert.ErrorIs(t, err, ErrBookingNotFound)

	hold, err := h.orders.UpsertItem(ctx, ItemRequest{
		SlotID:        provider.FormatSlotID(zestCourse, tee, "standard"),
		Players:       2,
		GreenFeeCents: cents(8000),
	})
	require.NoError(t, err)
	conf, err := h.orders.Confirm(ctx, ConfirmRequest{OrderID: hold.OrderID, Customer: customer})
	require.NoError(t, err)

	b, err := h.orders.Resync(ctx, conf.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, conf.Booking.ID, b.ID)

	assert.EventuallyWithT(t, func(c *assert.CollectT) {
		b, _ := h.orders.Booking(ctx, conf.Booking.ID)
		assert.Equal(c, model.SyncStatusSynced, b.ProviderSyncStatus)
	}, 5*time.Second, 20*time.Millisecond)
}
