package model

import "time"

// Booking statuses.
const (
	BookingStatusConfirmed = "CONFIRMED"
	BookingStatusCancelled = "CANCELLED"
)

// Payment statuses.
const (
	PaymentStatusPending = "PENDING"
	PaymentStatusPaid    = "PAID"
)

// Provider sync statuses recorded against a booking.
const (
	SyncStatusPending     = "PENDING"
	SyncStatusSynced      = "SYNCED"
	SyncStatusFailed      = "FAILED"
	SyncStatusNotRequired = "NOT_REQUIRED"
)

// Booking is the durable record created exactly once per confirmed hold.
// Its ID is independent from the hold's order ID.  Provider sync columns
// are filled in asynchronously after the confirmation response was sent.
type Booking struct {
	ID                 string    `db:"id" json:"id"`
	OrderID            string    `db:"order_id" json:"orderId"`
	CourseID           int64     `db:"course_id" json:"courseId"`
	TeeTime            time.Time `db:"tee_time" json:"teeTime"`
	Players            int       `db:"players" json:"players"`
	Holes              int       `db:"holes" json:"holes"`
	FirstName          string    `db:"first_name" json:"firstName"`
	LastName           string    `db:"last_name" json:"lastName"`
	Email              string    `db:"email" json:"email"`
	Phone              *string   `db:"phone" json:"phone,omitempty"`
	Status             string    `db:"status" json:"status"`
	PaymentStatus      string    `db:"payment_status" json:"paymentStatus"`
	PaymentReference   *string   `db:"payment_reference" json:"paymentReference,omitempty"`
	TotalCents         int64     `db:"total_cents" json:"totalCents"`
	Currency           string    `db:"currency" json:"currency"`
	ProviderSyncStatus string    `db:"provider_sync_status" json:"providerSyncStatus"`
	ProviderSyncError  *string   `db:"provider_sync_error" json:"providerSyncError,omitempty"`
	ProviderBookingID  *string   `db:"provider_booking_id" json:"providerBookingId,omitempty"`
	CreatedAt          time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time `db:"updated_at" json:"updatedAt"`
}
