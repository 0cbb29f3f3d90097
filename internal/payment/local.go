package payment

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/lithammer/shortuuid/v3"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/teetime-booking/internal/clock"
)

// Local is an in-memory Processor.  Its hosted page is the service's own
// /v1/checkout/local/:id endpoint.
type Local struct {
	baseURL string
	clock   clock.Clock

	mu       sync.Mutex
	sessions map[string]Session
}

func NewLocal(baseURL string, clk clock.Clock) *Local {
	return &Local{
		baseURL:  strings.TrimRight(baseURL, "/"),
		clock:    clk,
		sessions: map[string]Session{},
	}
}

func (l *Local) CreateCheckoutSession(_ context.Context, p SessionParams) (Session, error) {
	if len(p.LineItems) == 0 {
		return Session{}, errors.New("checkout session needs at least one line item")
	}
	id := "cs_" + shortuuid.New()
	s := Session{
		ID:               id,
		URL:              l.baseURL + "/v1/checkout/local/" + id,
		Status:           StatusOpen,
		PaymentStatus:    PaymentUnpaid,
		Currency:         p.Currency,
		AmountTotalCents: Total(p.LineItems),
		LineItems:        append([]LineItem(nil), p.LineItems...),
		CustomerEmail:    p.CustomerEmail,
		Metadata:         copyMap(p.Metadata),
		CreatedAt:        l.clock.Now(),
	}
	l.mu.Lock()
	l.sessions[id] = s
	l.mu.Unlock()

	logrus.WithFields(logrus.Fields{"session_id": id, "amount_cents": s.AmountTotalCents}).Info("checkout session created")
	return s, nil
}

func (l *Local) RetrieveSession(_ context.Context, id string) (Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	s.Metadata = copyMap(s.Metadata)
	return s, nil
}

// Complete marks the session paid, as the hosted page would after a
// successful card payment, and returns the webhook event to deliver.
func (l *Local) Complete(id string) (Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.sessions[id]
	if !ok {
		return Event{}, ErrSessionNotFound
	}
	s.Status = StatusComplete
	s.PaymentStatus = PaymentPaid
	l.sessions[id] = s

	var ev Event
	ev.ID = "evt_" + shortuuid.New()
	ev.Type = EventCheckoutCompleted
	ev.Data.Object.ID = id
	return ev, nil
}

func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
