package service

import (
	"strings"
	"time"

	"github.com/iliyamo/teetime-booking/internal/utils"
)

// Vouchers signs the links customers use to show their booking at the
// course.
type Vouchers struct {
	Secret  string
	BaseURL string
	TTL     time.Duration
}

// URL returns the voucher link for a booking whose tee time is teeTime.
// The link stays valid until TTL after the round.
func (v Vouchers) URL(bookingID string, teeTime time.Time) (string, error) {
	ttl := v.TTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	tok, err := utils.NewVoucherToken(v.Secret, bookingID, teeTime.Add(ttl))
	if err != nil {
		return "", err
	}
	return strings.TrimRight(v.BaseURL, "/") + "/v1/vouchers/" + tok, nil
}

// BookingID validates a voucher token.
func (v Vouchers) BookingID(token string) (string, error) {
	return utils.ParseVoucherToken(v.Secret, token)
}
