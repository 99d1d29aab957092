package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	ticketingerrors "tixgate/internal/ticketing/errors"
	"tixgate/pkg/config"
	"tixgate/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const WaitlistCollectionName = "waitlist"

type WaitlistRepository interface {
	Create(ctx context.Context, entry *model.WaitlistEntry) error
	FindByEventAndUser(ctx context.Context, eventID, userID string) (*model.WaitlistEntry, error)
	// FindByEvent lists entries in arrival order. An empty status selects all.
	FindByEvent(ctx context.Context, eventID, status string) ([]*model.WaitlistEntry, error)
	Delete(ctx context.Context, id string) error
	MarkNotified(ctx context.Context, id string, at time.Time) error
	MarkConverted(ctx context.Context, id string) error
	CountWaitingBefore(ctx context.Context, eventID string, requestDate time.Time) (int64, error)
	SumActiveHolds(ctx context.Context, eventID string, now time.Time, ttl time.Duration) (int, error)
	Stats(ctx context.Context, eventID string) (*model.WaitlistStats, error)
}

type mongoWaitlistRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoWaitlistRepository(cfg *config.Config) WaitlistRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoWaitlistRepository{
		cfg:        cfg,
		collection: db.Collection(WaitlistCollectionName),
	}
}

type waitlistDocument struct {
	ID                 primitive.ObjectID  `bson:"_id,omitempty"`
	EventID            string              `bson:"event_id"`
	UserID             string              `bson:"user_id"`
	RequestedTickets   int                 `bson:"requested_tickets"`
	Status             string              `bson:"status"`
	RequestDate        primitive.DateTime  `bson:"request_date"`
	NotificationSentAt *primitive.DateTime `bson:"notification_sent_at,omitempty"`
}

func toWaitlistDocument(e *model.WaitlistEntry) *waitlistDocument {
	doc := &waitlistDocument{
		EventID:          e.EventID,
		UserID:           e.UserID,
		RequestedTickets: e.RequestedTickets,
		Status:           e.Status,
		RequestDate:      primitive.NewDateTimeFromTime(e.RequestDate),
	}
	if e.NotificationSentAt != nil {
		sent := primitive.NewDateTimeFromTime(*e.NotificationSentAt)
		doc.NotificationSentAt = &sent
	}
	return doc
}

func (d *waitlistDocument) toModel() *model.WaitlistEntry {
	entry := &model.WaitlistEntry{
		ID:               d.ID.Hex(),
		EventID:          d.EventID,
		UserID:           d.UserID,
		RequestedTickets: d.RequestedTickets,
		Status:           d.Status,
		RequestDate:      d.RequestDate.Time(),
	}
	if d.NotificationSentAt != nil {
		sent := d.NotificationSentAt.Time()
		entry.NotificationSentAt = &sent
	}
	return entry
}

func (r *mongoWaitlistRepository) Create(ctx context.Context, entry *model.WaitlistEntry) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, toWaitlistDocument(entry))
	if err != nil {
		if isDuplicateKeyError(err) {
			return ticketingerrors.ErrAlreadyWaitlisted
		}
		return fmt.Errorf("failed to create waitlist entry: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		entry.ID = oid.Hex()
	}
	return nil
}

func (r *mongoWaitlistRepository) FindByEventAndUser(ctx context.Context, eventID, userID string) (*model.WaitlistEntry, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var doc waitlistDocument
	err := r.collection.FindOne(ctx, bson.M{"event_id": eventID, "user_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ticketingerrors.ErrNotWaitlisted
		}
		return nil, fmt.Errorf("failed to find waitlist entry: %w", err)
	}
	return doc.toModel(), nil
}

func (r *mongoWaitlistRepository) FindByEvent(ctx context.Context, eventID, status string) ([]*model.WaitlistEntry, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"event_id": eventID}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "request_date", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list waitlist entries: %w", err)
	}
	defer cursor.Close(ctx)

	entries := make([]*model.WaitlistEntry, 0)
	for cursor.Next(ctx) {
		var doc waitlistDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode waitlist entry: %w", err)
		}
		entries = append(entries, doc.toModel())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate waitlist entries: %w", err)
	}
	return entries, nil
}

func (r *mongoWaitlistRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", ticketingerrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete waitlist entry: %w", err)
	}
	if result.DeletedCount == 0 {
		return ticketingerrors.ErrNotWaitlisted
	}
	return nil
}

func (r *mongoWaitlistRepository) MarkNotified(ctx context.Context, id string, at time.Time) error {
	return r.updateEntry(ctx, id, bson.M{
		"status":               model.WaitlistNotified,
		"notification_sent_at": primitive.NewDateTimeFromTime(at),
	})
}

func (r *mongoWaitlistRepository) MarkConverted(ctx context.Context, id string) error {
	return r.updateEntry(ctx, id, bson.M{
		"status": model.WaitlistConverted,
	})
}

func (r *mongoWaitlistRepository) updateEntry(ctx context.Context, id string, fields bson.M) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", ticketingerrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": fields},
	)
	if err != nil {
		return fmt.Errorf("failed to update waitlist entry: %w", err)
	}
	if result.MatchedCount == 0 {
		return ticketingerrors.ErrNotWaitlisted
	}
	return nil
}

// CountWaitingBefore gives the number of waiting entries queued ahead of the
// given arrival time, which is the zero-based queue position of that arrival.
func (r *mongoWaitlistRepository) CountWaitingBefore(ctx context.Context, eventID string, requestDate time.Time) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{
		"event_id":     eventID,
		"status":       model.WaitlistWaiting,
		"request_date": bson.M{"$lt": primitive.NewDateTimeFromTime(requestDate)},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count waitlist position: %w", err)
	}
	return count, nil
}

// SumActiveHolds totals the tickets reserved by notified entries whose
// notification window has not lapsed yet.
func (r *mongoWaitlistRepository) SumActiveHolds(ctx context.Context, eventID string, now time.Time, ttl time.Duration) (int, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cutoff := primitive.NewDateTimeFromTime(now.Add(-ttl))
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"event_id":             eventID,
			"status":               model.WaitlistNotified,
			"notification_sent_at": bson.M{"$gt": cutoff},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$requested_tickets"},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to sum notified holds: %w", err)
	}
	defer cursor.Close(ctx)

	var result struct {
		Total int `bson:"total"`
	}
	if cursor.Next(ctx) {
		if err := cursor.Decode(&result); err != nil {
			return 0, fmt.Errorf("failed to decode hold sum: %w", err)
		}
	}
	if err := cursor.Err(); err != nil {
		return 0, fmt.Errorf("failed to iterate hold sum: %w", err)
	}
	return result.Total, nil
}

func (r *mongoWaitlistRepository) Stats(ctx context.Context, eventID string) (*model.WaitlistStats, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"event_id": eventID}}},
		{{Key: "$group", Value: bson.M{
			"_id":     "$status",
			"count":   bson.M{"$sum": 1},
			"tickets": bson.M{"$sum": "$requested_tickets"},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate waitlist stats: %w", err)
	}
	defer cursor.Close(ctx)

	stats := &model.WaitlistStats{}
	for cursor.Next(ctx) {
		var bucket struct {
			Status  string `bson:"_id"`
			Count   int    `bson:"count"`
			Tickets int    `bson:"tickets"`
		}
		if err := cursor.Decode(&bucket); err != nil {
			return nil, fmt.Errorf("failed to decode waitlist stats: %w", err)
		}
		stats.TotalEntries += bucket.Count
		stats.TotalRequestedTickets += bucket.Tickets
		switch bucket.Status {
		case model.WaitlistWaiting:
			stats.WaitingCount = bucket.Count
		case model.WaitlistNotified:
			stats.NotifiedCount = bucket.Count
		case model.WaitlistConverted:
			stats.ConvertedCount = bucket.Count
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate waitlist stats: %w", err)
	}
	return stats, nil
}
