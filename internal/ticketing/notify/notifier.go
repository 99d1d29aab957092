package notify

import (
	"context"
	"time"

	"tixgate/pkg/kafka"
	kafka_config "tixgate/pkg/kafka/config"
	"tixgate/pkg/logger"
	"tixgate/pkg/model"
)

const (
	eventTypePromoted = "waitlist.promoted"
	schemaVersion     = "1.0"
	source            = "ticketing-service"
)

// promotedPayload is the wire shape of a promotion notification.
type promotedPayload struct {
	EntryID          string    `json:"entry_id"`
	EventID          string    `json:"event_id"`
	EventName        string    `json:"event_name"`
	EventDate        time.Time `json:"event_date"`
	UserID           string    `json:"user_id"`
	RequestedTickets int       `json:"requested_tickets"`
	NotifiedAt       time.Time `json:"notified_at"`
}

// KafkaNotifier publishes promotion notifications to Kafka. Messages are
// keyed by event ID so all notifications for one event land on the same
// partition in promotion order.
type KafkaNotifier struct {
	producer *kafka.Producer
	log      *logger.Logger
}

func NewKafkaNotifier(cfg *kafka_config.Config, log *logger.Logger) (*KafkaNotifier, error) {
	producer, err := kafka.NewProducer(cfg, cfg.TopicWaitlist, cfg.TopicWaitlistDLQ)
	if err != nil {
		return nil, err
	}
	producer.Use(kafka.LoggingMiddleware(log))

	return &KafkaNotifier{
		producer: producer,
		log:      log,
	}, nil
}

func (n *KafkaNotifier) NotifyPromoted(ctx context.Context, event *model.Event, entry *model.WaitlistEntry) error {
	payload := promotedPayload{
		EntryID:          entry.ID,
		EventID:          event.ID,
		EventName:        event.Name,
		EventDate:        event.Date,
		UserID:           entry.UserID,
		RequestedTickets: entry.RequestedTickets,
		NotifiedAt:       time.Now().UTC(),
	}
	if entry.NotificationSentAt != nil {
		payload.NotifiedAt = *entry.NotificationSentAt
	}

	msg := kafka.NewMessage().
		WithKey(event.ID).
		WithValue(payload).
		WithEventType(eventTypePromoted).
		WithSchemaVersion(schemaVersion).
		WithSource(source).
		Build()

	return n.producer.Publish(ctx, msg)
}

func (n *KafkaNotifier) Close() error {
	return n.producer.Close()
}
