package kafka

import (
	"context"
	"time"

	"tixgate/pkg/logger"
)

// LoggingMiddleware logs every publish with its outcome and latency.
func LoggingMiddleware(log *logger.Logger) ProducerMiddleware {
	return func(ctx context.Context, msg Message, next func(ctx context.Context, msg Message) error) error {
		start := time.Now()
		err := next(ctx, msg)
		if err != nil {
			log.Error("Kafka publish failed",
				"key", msg.Key,
				"event_type", msg.Headers[HeaderEventType],
				"duration_ms", time.Since(start).Milliseconds(),
				"error", err,
			)
			return err
		}
		log.Debug("Kafka message published",
			"key", msg.Key,
			"event_type", msg.Headers[HeaderEventType],
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil
	}
}
