package holdstore

import "time"

// Status of a hold.  HELD moves to CONFIRMED or EXPIRED and never back.
// CONFIRMING is the short window between the confirm check and the
// durable booking write during which the sweep leaves the hold alone.
type Status string

const (
	StatusHeld       Status = "HELD"
	StatusConfirming Status = "CONFIRMING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusExpired    Status = "EXPIRED"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusConfirmed || s == StatusExpired
}

// LineItem is an extra charged on top of the green fee.
type LineItem struct {
	Description string `json:"description"`
	AmountCents int64  `json:"amountCents"`
	Currency    string `json:"currency"`
}

type Customer struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
}

// Payment is what the caller knows about the payment when confirming.
type Payment struct {
	Reference string `json:"reference,omitempty"`
	Method    string `json:"method,omitempty"`
	Status    string `json:"status,omitempty"`
}

// Selection is the part of a hold the customer can change while it is
// held: which slot, how many players and which extras.
type Selection struct {
	CourseID      int64
	Tenant        string
	SlotID        string
	TeeTime       time.Time
	Date          string
	Time          string
	Players       int
	Holes         int
	GreenFeeCents int64
	Currency      string
	Source        string
	Extras        []LineItem
}

// Hold is a time-boxed reservation of a slot before payment.
type Hold struct {
	OrderID       string     `json:"orderId"`
	CourseID      int64      `json:"courseId"`
	Tenant        string     `json:"tenant"`
	SlotID        string     `json:"slotId"`
	TeeTime       time.Time  `json:"teeTime"`
	Date          string     `json:"date"`
	Time          string     `json:"time"`
	Players       int        `json:"players"`
	Holes         int        `json:"holes"`
	GreenFeeCents int64      `json:"greenFeeCents"`
	Currency      string     `json:"currency"`
	Source        string     `json:"source,omitempty"`
	Extras        []LineItem `json:"extras"`
	TotalCents    int64      `json:"totalCents"`
	Status        Status     `json:"status"`
	HoldExpiresAt time.Time  `json:"holdExpiresAt"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	Customer      *Customer  `json:"customer,omitempty"`
	Payment       *Payment   `json:"payment,omitempty"`
	BookingID     string     `json:"bookingId,omitempty"`
}

// Total is green fee × players plus every extra.
func Total(greenFeeCents int64, players int, extras []LineItem) int64 {
	total := greenFeeCents * int64(players)
	for _, e := range extras {
		total += e.AmountCents
	}
	return total
}

func (h *Hold) apply(sel Selection) {
	h.CourseID = sel.CourseID
	h.Tenant = sel.Tenant
	h.SlotID = sel.SlotID
	h.TeeTime = sel.TeeTime.UTC()
	h.Date = sel.Date
	h.Time = sel.Time
	h.Players = sel.Players
	h.Holes = sel.Holes
	h.GreenFeeCents = sel.GreenFeeCents
	h.Currency = sel.Currency
	h.Source = sel.Source
	h.Extras = append([]LineItem(nil), sel.Extras...)
	h.TotalCents = Total(h.GreenFeeCents, h.Players, h.Extras)
}

func (h *Hold) clone() Hold {
	c := *h
	c.Extras = append([]LineItem(nil), h.Extras...)
	if h.Customer != nil {
		cu := *h.Customer
		c.Customer = &cu
	}
	if h.Payment != nil {
		p := *h.Payment
		c.Payment = &p
	}
	return c
}
