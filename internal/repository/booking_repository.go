package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/teetime-booking/internal/model"
)

type BookingRepo struct{ DB *sqlx.DB }

func NewBookingRepo(db *sqlx.DB) *BookingRepo { return &BookingRepo{DB: db} }

const bookingColumns = `id, order_id, course_id, tee_time, players, holes, first_name, last_name, email, phone,
	status, payment_status, payment_reference, total_cents, currency,
	provider_sync_status, provider_sync_error, provider_booking_id, created_at, updated_at`

// CreateBooking inserts b, assigning its id and timestamps.
func (r *BookingRepo) CreateBooking(ctx context.Context, b model.Booking) (model.Booking, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now
	b.TeeTime = b.TeeTime.UTC()

	_, err := r.DB.NamedExecContext(ctx, `INSERT INTO bookings (`+bookingColumns+`) VALUES (
		:id, :order_id, :course_id, :tee_time, :players, :holes, :first_name, :last_name, :email, :phone,
		:status, :payment_status, :payment_reference, :total_cents, :currency,
		:provider_sync_status, :provider_sync_error, :provider_booking_id, :created_at, :updated_at)`, b)
	if err != nil {
		if isDuplicateKey(err) {
			return model.Booking{}, ErrDuplicate
		}
		return model.Booking{}, fmt.Errorf("insert booking: %w", err)
	}
	return b, nil
}

func (r *BookingRepo) GetBookingByID(ctx context.Context, id string) (model.Booking, error) {
	var b model.Booking
	err := r.DB.GetContext(ctx, &b, `SELECT `+bookingColumns+` FROM bookings WHERE id=? LIMIT 1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, ErrNotFound
	}
	return b, err
}

// GetBookingByPaymentReference finds the booking already created for a
// payment, if any.
func (r *BookingRepo) GetBookingByPaymentReference(ctx context.Context, ref string) (model.Booking, error) {
	var b model.Booking
	err := r.DB.GetContext(ctx, &b, `SELECT `+bookingColumns+` FROM bookings WHERE payment_reference=? LIMIT 1`, ref)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, ErrNotFound
	}
	return b, err
}

// UpdateBookingSyncStatus records the outcome of a provider sync.
func (r *BookingRepo) UpdateBookingSyncStatus(ctx context.Context, id, status string, syncErr, providerBookingID *string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE bookings SET provider_sync_status=?, provider_sync_error=?, provider_booking_id=?, updated_at=? WHERE id=?`,
		status, syncErr, providerBookingID, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update booking sync status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
