package events

import (
	"context"
	"fmt"

	"agenda/internal/availability/service"
	"agenda/pkg/kafka"
	"agenda/pkg/logger"
	"agenda/pkg/model"
)

// CacheInvalidator drops cached slot listings for every business day a
// booking event touched.
type CacheInvalidator struct {
	service service.AvailabilityService
	log     *logger.Logger
}

func NewCacheInvalidator(service service.AvailabilityService, log *logger.Logger) *CacheInvalidator {
	return &CacheInvalidator{
		service: service,
		log:     log.Component("cache-invalidator"),
	}
}

// Handle is a kafka.MessageHandler. Malformed events are permanent failures;
// cache errors are retried by the consumer.
func (c *CacheInvalidator) Handle(ctx context.Context, msg kafka.Message) error {
	var event model.BookingEvent
	if err := msg.DecodeValue(&event); err != nil {
		return err
	}
	if event.BusinessID == "" {
		return kafka.NewPermanentError("booking event without business_id", nil)
	}

	dates := event.AffectedDates()
	if len(dates) == 0 {
		return kafka.NewPermanentError(fmt.Sprintf("booking event %s carries no window", event.BookingID), nil)
	}

	if err := c.service.InvalidateDays(ctx, event.BusinessID, dates...); err != nil {
		return kafka.NewTransientError("slot cache invalidation failed", err)
	}

	c.log.Debug("Slot cache invalidated",
		"event_type", msg.GetEventType(),
		"booking_id", event.BookingID,
		"business_id", event.BusinessID,
		"dates", dates,
	)
	return nil
}
