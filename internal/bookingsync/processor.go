package bookingsync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/teetime-booking/internal/logging"
	"github.com/iliyamo/teetime-booking/internal/model"
)

// TopicSyncRequested carries SyncRequested messages.
const TopicSyncRequested = "booking.sync_requested"

// SyncRequested asks the processor to mirror a booking.  Force re-runs a
// sync that already completed, for admin reconciliation.
type SyncRequested struct {
	BookingID   string    `json:"booking_id"`
	Force       bool      `json:"force,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

type BookingStore interface {
	GetBookingByID(ctx context.Context, id string) (model.Booking, error)
	UpdateBookingSyncStatus(ctx context.Context, id, status string, syncErr, providerBookingID *string) error
}

type CourseStore interface {
	GetCourseByID(ctx context.Context, id int64) (model.Course, error)
}

// Requester publishes sync requests.
type Requester struct {
	pub message.Publisher
}

func NewRequester(pub message.Publisher) *Requester {
	return &Requester{pub: pub}
}

func (r *Requester) RequestSync(ctx context.Context, bookingID string, force bool) error {
	payload, err := json.Marshal(SyncRequested{BookingID: bookingID, Force: force, RequestedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		middleware.SetCorrelationID(id, msg)
	}
	if err := r.pub.Publish(TopicSyncRequested, msg); err != nil {
		return fmt.Errorf("publishing sync request: %w", err)
	}
	return nil
}

// Processor handles SyncRequested messages.
type Processor struct {
	bookings   BookingStore
	courses    CourseStore
	dispatcher *Dispatcher
}

func NewProcessor(bookings BookingStore, courses CourseStore, dispatcher *Dispatcher) *Processor {
	return &Processor{bookings: bookings, courses: courses, dispatcher: dispatcher}
}

// Handle syncs one booking and records the outcome.  Failures are logged
// and stored, the message is acked either way so nothing is retried.
func (p *Processor) Handle(msg *message.Message) error {
	ctx := msg.Context()
	log := logging.FromContext(ctx)

	var req SyncRequested
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		log.WithError(err).Error("dropping malformed sync request")
		return nil
	}
	log = log.WithField("booking_id", req.BookingID)

	b, err := p.bookings.GetBookingByID(ctx, req.BookingID)
	if err != nil {
		log.WithError(err).Error("loading booking for sync")
		return nil
	}
	if b.ProviderSyncStatus != model.SyncStatusPending && !req.Force {
		log.WithField("status", b.ProviderSyncStatus).Debug("booking already synced")
		return nil
	}
	c, err := p.courses.GetCourseByID(ctx, b.CourseID)
	if err != nil {
		log.WithError(err).Error("loading course for sync")
		return nil
	}

	res := p.dispatcher.Sync(ctx, b, c)
	status := Status(res)

	var syncErr, providerBookingID *string
	if res.Error != "" {
		syncErr = &res.Error
	}
	if res.ProviderBookingID != "" {
		providerBookingID = &res.ProviderBookingID
	}
	if err := p.bookings.UpdateBookingSyncStatus(ctx, b.ID, status, syncErr, providerBookingID); err != nil {
		log.WithError(err).Error("recording sync status")
		return nil
	}

	entry := log.WithFields(logrus.Fields{"provider": res.Provider, "status": status})
	if status == model.SyncStatusFailed {
		entry.WithField("error", res.Error).Warn("provider sync failed, left for manual reconciliation")
		return nil
	}
	entry.Info("provider sync recorded")
	return nil
}

// NewRouter wires the processor to sub.
func NewRouter(logger watermill.LoggerAdapter, sub message.Subscriber, p *Processor) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 15 * time.Second}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating router: %w", err)
	}
	router.AddMiddleware(middleware.Recoverer)
	router.AddMiddleware(correlationIDMiddleware)
	router.AddNoPublisherHandler("booking_sync", TopicSyncRequested, sub, p.Handle)
	return router, nil
}

func correlationIDMiddleware(next message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		correlationID := middleware.MessageCorrelationID(msg)
		if correlationID == "" {
			correlationID = logging.NewCorrelationID()
		}
		ctx := logging.ContextWithCorrelationID(msg.Context(), correlationID)
		ctx = logging.ToContext(ctx, logrus.WithFields(logrus.Fields{
			"message_uuid":   msg.UUID,
			"correlation_id": correlationID,
		}))
		msg.SetContext(ctx)
		return next(msg)
	}
}
