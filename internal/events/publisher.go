package events

import (
	"context"
	"fmt"
	"time"

	"gearbase/pkg/kafka"
	"gearbase/pkg/logger"
	"gearbase/pkg/model"
)

const (
	SchemaVersion = "1"
	SourceService = "reservations"

	publishTimeout = 5 * time.Second
)

// BookingEvent is the payload published on every lifecycle transition.
// Downstream consumers (notifications, reporting) key on booking_id.
type BookingEvent struct {
	BookingID      string              `json:"booking_id"`
	OrganizationID string              `json:"organization_id"`
	ActorID        string              `json:"actor_id,omitempty"`
	FromStatus     model.BookingStatus `json:"from_status"`
	ToStatus       model.BookingStatus `json:"to_status"`
	StartTime      time.Time           `json:"start_time"`
	EndTime        time.Time           `json:"end_time"`
	AssetIDs       []string            `json:"asset_ids,omitempty"`
	OccurredAt     time.Time           `json:"occurred_at"`
}

// Publisher emits booking lifecycle events. Publishing is best-effort: a
// broker outage must never fail a transition that already committed.
type Publisher interface {
	BookingTransitioned(ctx context.Context, booking *model.Booking, from model.BookingStatus, actorID string)
	Close() error
}

type kafkaPublisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

func NewKafkaPublisher(producer *kafka.Producer, log *logger.Logger) Publisher {
	return &kafkaPublisher{
		producer: producer,
		log:      log.Component("events"),
	}
}

func (p *kafkaPublisher) BookingTransitioned(ctx context.Context, booking *model.Booking, from model.BookingStatus, actorID string) {
	event := BookingEvent{
		BookingID:      booking.ID,
		OrganizationID: booking.OrganizationID,
		ActorID:        actorID,
		FromStatus:     from,
		ToStatus:       booking.Status,
		StartTime:      booking.StartTime,
		EndTime:        booking.EndTime,
		AssetIDs:       booking.AssetIDs,
		OccurredAt:     time.Now().UTC(),
	}

	msg := kafka.NewMessage().
		WithKey(booking.ID).
		WithValue(event).
		WithEventType(eventType(booking.Status)).
		WithSchemaVersion(SchemaVersion).
		WithSource(SourceService).
		Build()

	// Detached from the request context: the transition already committed,
	// cancellation of the HTTP request must not drop the event.
	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := p.producer.Publish(publishCtx, msg); err != nil {
		p.log.Warn("Failed to publish booking event",
			"booking_id", booking.ID,
			"event_type", eventType(booking.Status),
			"error", err,
		)
	}
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}

func eventType(status model.BookingStatus) string {
	return fmt.Sprintf("booking.%s", status)
}

// NopPublisher is used when events are disabled and in tests.
type NopPublisher struct{}

func NewNopPublisher() Publisher {
	return NopPublisher{}
}

func (NopPublisher) BookingTransitioned(context.Context, *model.Booking, model.BookingStatus, string) {
}

func (NopPublisher) Close() error { return nil }
