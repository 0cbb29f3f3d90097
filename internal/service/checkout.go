package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/teetime-booking/internal/clock"
	"github.com/iliyamo/teetime-booking/internal/holdstore"
	"github.com/iliyamo/teetime-booking/internal/logging"
	"github.com/iliyamo/teetime-booking/internal/model"
	"github.com/iliyamo/teetime-booking/internal/payment"
	"github.com/iliyamo/teetime-booking/internal/pricecache"
	"github.com/iliyamo/teetime-booking/internal/repository"
)

type AddOnSelection struct {
	ID       int64
	Quantity int
}

// CheckoutRequest starts payment for a held order.  Course, tee time and
// players come from the hold.  GreenFeeCents is accepted from clients but
// never used for pricing.
type CheckoutRequest struct {
	OrderID       string
	AddOns        []AddOnSelection
	Customer      holdstore.Customer
	GreenFeeCents *int64
}

// Metadata keys stored on the payment session.
const (
	metaOrderID   = "orderId"
	metaCourseID  = "courseId"
	metaTeeTime   = "teeTime"
	metaPlayers   = "players"
	metaFirstName = "firstName"
	metaLastName  = "lastName"
	metaEmail     = "email"
	metaPhone     = "phone"
)

// CheckoutService guards payment creation with the price cache.
type CheckoutService struct {
	prices    pricecache.Cache
	courses   CourseStore
	holds     *holdstore.Store
	orders    *OrderService
	processor payment.Processor
	baseURL   string
	clock     clock.Clock
}

func NewCheckoutService(prices pricecache.Cache, courses CourseStore, holds *holdstore.Store, orders *OrderService, processor payment.Processor, baseURL string, clk clock.Clock) *CheckoutService {
	return &CheckoutService{
		prices:    prices,
		courses:   courses,
		holds:     holds,
		orders:    orders,
		processor: processor,
		baseURL:   strings.TrimRight(baseURL, "/"),
		clock:     clk,
	}
}

// CreateSession prices a held order from the price cache and the add-on
// catalog and opens a payment session for it.  A session is only created
// when the paid webhook can turn it into a booking: the order must be
// HELD and the customer complete.
func (s *CheckoutService) CreateSession(ctx context.Context, req CheckoutRequest) (payment.Session, error) {
	if req.OrderID == "" {
		return payment.Session{}, fmt.Errorf("%w: orderId is required", ErrInvalidRequest)
	}
	h, err := s.holds.Get(req.OrderID)
	if err != nil {
		return payment.Session{}, err
	}
	if h.Status != holdstore.StatusHeld {
		if h.Status == holdstore.StatusExpired {
			return payment.Session{}, holdstore.ErrExpired
		}
		return payment.Session{}, holdstore.ErrNotHeld
	}
	if !s.clock.Now().Before(h.HoldExpiresAt) {
		return payment.Session{}, holdstore.ErrExpired
	}
	if !validCustomer(req.Customer) {
		return payment.Session{}, ErrCustomerRequired
	}
	log := logging.FromContext(ctx).WithField("order_id", h.OrderID).WithField("course_id", h.CourseID).WithField("tee_time", h.TeeTime)

	entry, err := s.prices.Peek(ctx, h.CourseID, h.TeeTime)
	if errors.Is(err, pricecache.ErrMiss) {
		log.Warn("checkout rejected, price not cached")
		return payment.Session{}, ErrPriceNotCached
	}
	if err != nil {
		return payment.Session{}, err
	}
	if entry.Expired(s.clock.Now()) {
		if err := s.prices.Delete(ctx, h.CourseID, h.TeeTime); err != nil {
			log.WithError(err).Warn("evicting expired price")
		}
		log.Warn("checkout rejected, price expired")
		return payment.Session{}, ErrPriceExpired
	}

	course, err := s.courses.GetCourseByID(ctx, h.CourseID)
	if errors.Is(err, repository.ErrNotFound) {
		return payment.Session{}, ErrCourseNotFound
	}
	if err != nil {
		return payment.Session{}, err
	}

	items := []payment.LineItem{{
		Name:            fmt.Sprintf("Green fee %s %s", course.Name, h.TeeTime.In(CourseLocation(course)).Format("2006-01-02 15:04")),
		UnitAmountCents: entry.PriceCents,
		Quantity:        h.Players,
	}}
	addOnItems, err := s.addOnItems(ctx, course.ID, req.AddOns, h.Players)
	if err != nil {
		return payment.Session{}, err
	}
	items = append(items, addOnItems...)

	currency := entry.Currency
	if currency == "" {
		currency = course.Currency
	}
	meta := map[string]string{
		metaOrderID:   h.OrderID,
		metaCourseID:  strconv.FormatInt(course.ID, 10),
		metaTeeTime:   h.TeeTime.UTC().Format(time.RFC3339),
		metaPlayers:   strconv.Itoa(h.Players),
		metaFirstName: req.Customer.FirstName,
		metaLastName:  req.Customer.LastName,
		metaEmail:     req.Customer.Email,
		metaPhone:     req.Customer.Phone,
	}

	sess, err := s.processor.CreateCheckoutSession(ctx, payment.SessionParams{
		Currency:      currency,
		LineItems:     items,
		CustomerEmail: req.Customer.Email,
		Metadata:      meta,
		SuccessURL:    s.baseURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     s.baseURL + "/checkout/cancel",
	})
	if err != nil {
		return payment.Session{}, fmt.Errorf("creating checkout session: %w", err)
	}
	return sess, nil
}

// addOnItems prices the selected add-ons from the course catalog.
func (s *CheckoutService) addOnItems(ctx context.Context, courseID int64, sel []AddOnSelection, players int) ([]payment.LineItem, error) {
	if len(sel) == 0 {
		return nil, nil
	}
	catalog, err := s.courses.GetAddOnsByCourseID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]model.AddOn, len(catalog))
	for _, a := range catalog {
		if a.Active {
			byID[a.ID] = a
		}
	}

	items := make([]payment.LineItem, 0, len(sel))
	for _, it := range sel {
		a, ok := byID[it.ID]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownAddOn, it.ID)
		}
		qty := it.Quantity
		if qty <= 0 {
			qty = 1
			if a.PerPlayer {
				qty = players
			}
		}
		items = append(items, payment.LineItem{Name: a.Name, UnitAmountCents: a.PriceCents, Quantity: qty})
	}
	return items, nil
}

// HandlePaymentEvent confirms the order of a completed checkout session,
// using the session id as the payment reference.  Events of other types
// and unpaid sessions are ignored and return nil.
func (s *CheckoutService) HandlePaymentEvent(ctx context.Context, ev payment.Event) (*Confirmation, error) {
	if ev.Type != payment.EventCheckoutCompleted {
		return nil, nil
	}
	sess, err := s.processor.RetrieveSession(ctx, ev.Data.Object.ID)
	if err != nil {
		return nil, err
	}
	if sess.PaymentStatus != payment.PaymentPaid {
		logging.FromContext(ctx).WithField("session_id", sess.ID).Info("ignoring unpaid checkout session")
		return nil, nil
	}
	orderID := sess.Metadata[metaOrderID]
	if orderID == "" {
		return nil, fmt.Errorf("%w: session %s has no order", ErrInvalidRequest, sess.ID)
	}

	c, err := s.orders.Confirm(ctx, ConfirmRequest{
		OrderID: orderID,
		Charge:  chargeFromSession(sess),
		Customer: holdstore.Customer{
			FirstName: sess.Metadata[metaFirstName],
			LastName:  sess.Metadata[metaLastName],
			Email:     sess.Metadata[metaEmail],
			Phone:     sess.Metadata[metaPhone],
		},
		Payment: &holdstore.Payment{Reference: sess.ID, Method: "card", Status: payment.PaymentPaid},
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// chargeFromSession describes what the customer actually paid.  Metadata
// that cannot be parsed leaves the matching field to the hold.
func chargeFromSession(sess payment.Session) *Charge {
	ch := &Charge{TotalCents: sess.AmountTotalCents, Currency: sess.Currency}
	if id, err := strconv.ParseInt(sess.Metadata[metaCourseID], 10, 64); err == nil {
		ch.CourseID = id
	}
	if t, err := time.Parse(time.RFC3339, sess.Metadata[metaTeeTime]); err == nil {
		ch.TeeTime = t
	}
	if n, err := strconv.Atoi(sess.Metadata[metaPlayers]); err == nil {
		ch.Players = n
	}
	return ch
}
