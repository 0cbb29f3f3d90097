package handler

import (
	"time"

	"github.com/iliyamo/teetime-booking/internal/holdstore"
	"github.com/iliyamo/teetime-booking/internal/model"
	"github.com/iliyamo/teetime-booking/internal/provider"
)

// Amounts cross the API as decimal euros and are kept in cents inside.

type extraView struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
}

type orderView struct {
	OrderID       string              `json:"orderId"`
	CourseID      int64               `json:"courseId"`
	Tenant        string              `json:"tenant"`
	SlotID        string              `json:"slotId"`
	TeeTime       time.Time           `json:"teeTime"`
	Date          string              `json:"date"`
	Time          string              `json:"time"`
	Players       int                 `json:"players"`
	Holes         int                 `json:"holes"`
	GreenFee      float64             `json:"greenFee"`
	Currency      string              `json:"currency"`
	Source        string              `json:"source,omitempty"`
	Extras        []extraView         `json:"extras"`
	Total         float64             `json:"total"`
	Status        holdstore.Status    `json:"status"`
	HoldExpiresAt time.Time           `json:"holdExpiresAt"`
	CreatedAt     time.Time           `json:"createdAt"`
	Customer      *holdstore.Customer `json:"customer,omitempty"`
	Payment       *holdstore.Payment  `json:"payment,omitempty"`
	BookingID     string              `json:"bookingId,omitempty"`
}

func newOrderView(h holdstore.Hold) orderView {
	v := orderView{
		OrderID:       h.OrderID,
		CourseID:      h.CourseID,
		Tenant:        h.Tenant,
		SlotID:        h.SlotID,
		TeeTime:       h.TeeTime,
		Date:          h.Date,
		Time:          h.Time,
		Players:       h.Players,
		Holes:         h.Holes,
		GreenFee:      model.ToDecimal(h.GreenFeeCents),
		Currency:      h.Currency,
		Source:        h.Source,
		Extras:        make([]extraView, 0, len(h.Extras)),
		Total:         model.ToDecimal(h.TotalCents),
		Status:        h.Status,
		HoldExpiresAt: h.HoldExpiresAt,
		CreatedAt:     h.CreatedAt,
		Customer:      h.Customer,
		Payment:       h.Payment,
		BookingID:     h.BookingID,
	}
	for _, e := range h.Extras {
		v.Extras = append(v.Extras, extraView{Description: e.Description, Amount: model.ToDecimal(e.AmountCents), Currency: e.Currency})
	}
	return v
}

type bookingView struct {
	BookingID          string    `json:"bookingId"`
	OrderID            string    `json:"orderId"`
	CourseID           int64     `json:"courseId"`
	TeeTime            time.Time `json:"teeTime"`
	Players            int       `json:"players"`
	Holes              int       `json:"holes"`
	FirstName          string    `json:"firstName"`
	LastName           string    `json:"lastName"`
	Email              string    `json:"email,omitempty"`
	Status             string    `json:"status"`
	PaymentStatus      string    `json:"paymentStatus"`
	PaymentReference   *string   `json:"paymentReference,omitempty"`
	Total              float64   `json:"total"`
	Currency           string    `json:"currency"`
	ProviderSyncStatus string    `json:"providerSyncStatus"`
	ProviderSyncError  *string   `json:"providerSyncError,omitempty"`
	ProviderBookingID  *string   `json:"providerBookingId"`
	VoucherURL         string    `json:"voucherUrl,omitempty"`
	Reused             bool      `json:"reused,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}

func newBookingView(b model.Booking) bookingView {
	return bookingView{
		BookingID:          b.ID,
		OrderID:            b.OrderID,
		CourseID:           b.CourseID,
		TeeTime:            b.TeeTime,
		Players:            b.Players,
		Holes:              b.Holes,
		FirstName:          b.FirstName,
		LastName:           b.LastName,
		Email:              b.Email,
		Status:             b.Status,
		PaymentStatus:      b.PaymentStatus,
		PaymentReference:   b.PaymentReference,
		Total:              model.ToDecimal(b.TotalCents),
		Currency:           b.Currency,
		ProviderSyncStatus: b.ProviderSyncStatus,
		ProviderSyncError:  b.ProviderSyncError,
		ProviderBookingID:  b.ProviderBookingID,
		CreatedAt:          b.CreatedAt,
	}
}

type packageView struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Slug  string  `json:"slug"`
	Price float64 `json:"price"`
}

type slotView struct {
	ID               string        `json:"id"`
	TeeTime          time.Time     `json:"teeTime"`
	Date             string        `json:"date"`
	Time             string        `json:"time"`
	Holes            int           `json:"holes"`
	AvailablePlayers int           `json:"availablePlayers"`
	GreenFee         float64       `json:"greenFee"`
	Currency         string        `json:"currency"`
	Source           string        `json:"source"`
	Tenant           string        `json:"tenant"`
	Packages         []packageView `json:"packages,omitempty"`
}

func newSlotView(s provider.Slot) slotView {
	v := slotView{
		ID:               s.ID,
		TeeTime:          s.TeeTime,
		Date:             s.Date,
		Time:             s.Time,
		Holes:            s.Holes,
		AvailablePlayers: s.AvailablePlayers,
		GreenFee:         model.ToDecimal(s.GreenFeeCents),
		Currency:         s.Currency,
		Source:           s.Source,
		Tenant:           s.Tenant,
	}
	for _, p := range s.Packages {
		v.Packages = append(v.Packages, packageView{ID: p.ID, Name: p.Name, Slug: p.Slug, Price: model.ToDecimal(p.PriceCents)})
	}
	return v
}
