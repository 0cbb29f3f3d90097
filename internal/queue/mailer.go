package queue

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/teetime-booking/internal/model"
)

// Email is a rendered outbound message.
type Email struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers emails.  A failed send never affects the booking.
type Mailer interface {
	Send(ctx context.Context, e Email) error
}

// LogMailer writes emails to the log instead of sending them.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, e Email) error {
	log.WithFields(log.Fields{"to": e.To, "subject": e.Subject}).Info("email sent")
	return nil
}

// ConfirmationEmail renders the booking confirmation for ev.
func ConfirmationEmail(ev BookingConfirmedEvent) Email {
	return Email{
		To:      ev.Email,
		Subject: fmt.Sprintf("Your tee time at %s is confirmed", ev.CourseName),
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour booking %s for %d player(s), %d holes at %s on %s is confirmed.\nTotal paid: %s %s\nVoucher: %s\n",
			ev.FirstName, ev.BookingID, ev.Players, ev.Holes, ev.CourseName, ev.TeeTime,
			model.FormatMinor(ev.TotalCents), ev.Currency, ev.VoucherURL,
		),
	}
}
