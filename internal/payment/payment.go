// Package payment abstracts the hosted checkout provider.  Only the Local
// processor exists today; it keeps sessions in memory and is completed
// through the dev checkout endpoint.
package payment

import (
	"context"
	"errors"
	"time"
)

// Session states, named after the hosted checkout API they mirror.
const (
	StatusOpen     = "open"
	StatusComplete = "complete"

	PaymentUnpaid = "unpaid"
	PaymentPaid   = "paid"

	EventCheckoutCompleted = "checkout.session.completed"
)

var ErrSessionNotFound = errors.New("checkout session not found")

// LineItem is one row of the checkout.  UnitAmountCents comes from the
// price cache or the add-on catalog, never from the client.
type LineItem struct {
	Name            string `json:"name"`
	UnitAmountCents int64  `json:"unitAmountCents"`
	Quantity        int    `json:"quantity"`
}

type SessionParams struct {
	Currency      string
	LineItems     []LineItem
	CustomerEmail string
	Metadata      map[string]string
	SuccessURL    string
	CancelURL     string
}

type Session struct {
	ID               string            `json:"id"`
	URL              string            `json:"url"`
	Status           string            `json:"status"`
	PaymentStatus    string            `json:"paymentStatus"`
	Currency         string            `json:"currency"`
	AmountTotalCents int64             `json:"amountTotalCents"`
	LineItems        []LineItem        `json:"lineItems"`
	CustomerEmail    string            `json:"customerEmail,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
}

// Event is a webhook notification from the processor.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID string `json:"id"`
		} `json:"object"`
	} `json:"data"`
}

type Processor interface {
	CreateCheckoutSession(ctx context.Context, params SessionParams) (Session, error)
	RetrieveSession(ctx context.Context, id string) (Session, error)
}

// Total sums the line items.
func Total(items []LineItem) int64 {
	var total int64
	for _, it := range items {
		total += it.UnitAmountCents * int64(it.Quantity)
	}
	return total
}
