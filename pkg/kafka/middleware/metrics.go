package kafka_middleware

import (
	"context"
	"time"

	"agenda/pkg/kafka"
	"agenda/pkg/metrics"
)

func MetricsProducerMiddleware() kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		err := next(ctx, msg)
		metrics.IncKafkaMessage(msg.Topic, "produced", outcome(err))
		return err
	}
}

func MetricsConsumerMiddleware() kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)
		metrics.ObserveKafkaHandle(msg.Topic, time.Since(start))
		metrics.IncKafkaMessage(msg.Topic, "consumed", outcome(err))
		return err
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
