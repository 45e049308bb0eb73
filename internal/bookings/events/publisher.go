package events

import (
	"context"

	"agenda/pkg/kafka"
	"agenda/pkg/middleware"
	"agenda/pkg/model"
)

const source = "bookings"

// Publisher announces committed booking writes.
type Publisher interface {
	Publish(ctx context.Context, event model.BookingEvent) error
}

type kafkaPublisher struct {
	publisher kafka.Publisher
}

// NewKafkaPublisher keys every message by business id, so the events of one
// business stay ordered within a partition.
func NewKafkaPublisher(publisher kafka.Publisher) Publisher {
	return &kafkaPublisher{publisher: publisher}
}

func (p *kafkaPublisher) Publish(ctx context.Context, event model.BookingEvent) error {
	msg, err := kafka.NewMessage().
		WithKey(event.BusinessID).
		WithValue(event).
		WithEventType(event.Type).
		WithSchemaVersion(model.EventSchemaVersion).
		WithSource(source).
		WithCorrelationID(middleware.RequestID(ctx)).
		Build()
	if err != nil {
		return err
	}
	return p.publisher.Publish(ctx, msg)
}

type noopPublisher struct{}

// NewNoopPublisher is used when Kafka is disabled.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, model.BookingEvent) error {
	return nil
}
