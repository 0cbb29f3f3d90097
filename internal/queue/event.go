// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedEvent is published when a hold becomes a durable booking.
// It carries everything the confirmation email needs so the consumer never
// queries the primary database.
type BookingConfirmedEvent struct {
	BookingID   string `json:"booking_id"`
	OrderID     string `json:"order_id"`
	CourseID    int64  `json:"course_id"`
	CourseName  string `json:"course_name"`
	TeeTime     string `json:"tee_time"`
	Players     int    `json:"players"`
	Holes       int    `json:"holes"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	TotalCents  int64  `json:"total_cents"`
	Currency    string `json:"currency"`
	VoucherURL  string `json:"voucher_url"`
	ConfirmedAt string `json:"confirmed_at"`
}
