package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

const bookingQueueName = "booking.confirmed"

// Publisher sends domain events to RabbitMQ.  Errors are logged and
// returned so callers can ignore them without interrupting the request.
type Publisher struct {
	URL string
}

func NewPublisher(url string) *Publisher { return &Publisher{URL: url} }

// PublishBookingConfirmed publishes event to the durable booking.confirmed
// queue as a persistent message.
func (p *Publisher) PublishBookingConfirmed(ctx context.Context, event BookingConfirmedEvent) error {
	logger := log.WithFields(log.Fields{"booking_id": event.BookingID, "queue": bookingQueueName})

	conn, err := amqp.Dial(p.URL)
	if err != nil {
		logger.WithError(err).Error("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		logger.WithError(err).Error("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		bookingQueueName, // name
		true,             // durable
		false,            // autoDelete
		false,            // exclusive
		false,            // noWait
		nil,              // args
	); err != nil {
		logger.WithError(err).Error("rabbitmq: queue declare failed")
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		logger.WithError(err).Error("rabbitmq: marshal event failed")
		return err
	}

	if err := ch.PublishWithContext(ctx,
		"",               // default exchange
		bookingQueueName, // routing key = queue name
		false,            // mandatory
		false,            // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			MessageId:    event.BookingID,
			Body:         body,
		},
	); err != nil {
		logger.WithError(err).Error("rabbitmq: publish failed")
		return err
	}
	return nil
}

// LogPublisher replaces Publisher when no broker is configured.
type LogPublisher struct{}

func (LogPublisher) PublishBookingConfirmed(_ context.Context, event BookingConfirmedEvent) error {
	log.WithField("booking_id", event.BookingID).Info("no broker configured, confirmation email not queued")
	return nil
}
