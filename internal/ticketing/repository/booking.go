package repository

import (
	"context"
	"errors"
	"fmt"

	ticketingerrors "tixgate/internal/ticketing/errors"
	"tixgate/pkg/config"
	mongodb "tixgate/pkg/db/mongo"
	"tixgate/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const BookingCollectionName = "bookings"

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	// FindActiveByEventAndUser returns the user's booking that still counts
	// against capacity, any status but cancelled.
	FindActiveByEventAndUser(ctx context.Context, eventID, userID string) (*model.Booking, error)
	FindByEvent(ctx context.Context, eventID string) ([]*model.Booking, error)
	FindByUser(ctx context.Context, userID string) ([]*model.Booking, error)
	SumActiveTickets(ctx context.Context, eventID string) (int, error)
	// MarkCancelled cancels the booking only if it is not cancelled yet.
	MarkCancelled(ctx context.Context, id string) error
	UpdatePaymentStatus(ctx context.Context, id, paymentStatus string) error
	ExecuteTransaction(ctx context.Context, fn mongodb.TransactionFunc) error
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongodb.TransactionManager
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(BookingCollectionName),
		txManager:  mongodb.NewTransactionManager(cfg.Client.Mongo),
	}
}

type bookingDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	EventID       string             `bson:"event_id"`
	UserID        string             `bson:"user_id"`
	TicketCount   int                `bson:"ticket_count"`
	Status        string             `bson:"status"`
	PaymentStatus string             `bson:"payment_status"`
	CreatedAt     primitive.DateTime `bson:"created_at"`
}

func toBookingDocument(b *model.Booking) *bookingDocument {
	return &bookingDocument{
		EventID:       b.EventID,
		UserID:        b.UserID,
		TicketCount:   b.TicketCount,
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
		CreatedAt:     primitive.NewDateTimeFromTime(b.CreatedAt),
	}
}

func (d *bookingDocument) toModel() *model.Booking {
	return &model.Booking{
		ID:            d.ID.Hex(),
		EventID:       d.EventID,
		UserID:        d.UserID,
		TicketCount:   d.TicketCount,
		Status:        d.Status,
		PaymentStatus: d.PaymentStatus,
		CreatedAt:     d.CreatedAt.Time(),
	}
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, toBookingDocument(booking))
	if err != nil {
		if isDuplicateKeyError(err) {
			return ticketingerrors.ErrDuplicateBooking
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ticketingerrors.ErrInvalidID, id)
	}

	var doc bookingDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ticketingerrors.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return doc.toModel(), nil
}

func (r *mongoBookingRepository) FindActiveByEventAndUser(ctx context.Context, eventID, userID string) (*model.Booking, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"event_id": eventID,
		"user_id":  userID,
		"status":   bson.M{"$ne": model.BookingCancelled},
	}
	var doc bookingDocument
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ticketingerrors.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to find booking for user %s: %w", userID, err)
	}
	return doc.toModel(), nil
}

func (r *mongoBookingRepository) FindByEvent(ctx context.Context, eventID string) ([]*model.Booking, error) {
	return r.findAll(ctx, bson.M{"event_id": eventID})
}

func (r *mongoBookingRepository) FindByUser(ctx context.Context, userID string) ([]*model.Booking, error) {
	return r.findAll(ctx, bson.M{"user_id": userID})
}

func (r *mongoBookingRepository) findAll(ctx context.Context, filter bson.M) ([]*model.Booking, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := make([]*model.Booking, 0)
	for cursor.Next(ctx) {
		var doc bookingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode booking: %w", err)
		}
		bookings = append(bookings, doc.toModel())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return bookings, nil
}

// SumActiveTickets returns the number of tickets committed against an event.
// Cancelled bookings do not count; attended ones still hold their seats.
func (r *mongoBookingRepository) SumActiveTickets(ctx context.Context, eventID string) (int, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"event_id": eventID,
			"status":   bson.M{"$ne": model.BookingCancelled},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$ticket_count"},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to sum booked tickets: %w", err)
	}
	defer cursor.Close(ctx)

	var result struct {
		Total int `bson:"total"`
	}
	if cursor.Next(ctx) {
		if err := cursor.Decode(&result); err != nil {
			return 0, fmt.Errorf("failed to decode ticket sum: %w", err)
		}
	}
	if err := cursor.Err(); err != nil {
		return 0, fmt.Errorf("failed to iterate ticket sum: %w", err)
	}
	return result.Total, nil
}

// MarkCancelled is a compare-and-set: the filter only matches a booking
// that is not cancelled yet, so a concurrent cancel loses the race cleanly
// instead of rewriting the status it already has.
func (r *mongoBookingRepository) MarkCancelled(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", ticketingerrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID, "status": bson.M{"$ne": model.BookingCancelled}},
		bson.M{"$set": bson.M{"status": model.BookingCancelled}},
	)
	if err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}
	if result.MatchedCount == 0 {
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": objectID})
		if err != nil {
			return fmt.Errorf("failed to cancel booking: %w", err)
		}
		if count == 0 {
			return ticketingerrors.ErrBookingNotFound
		}
		return ticketingerrors.ErrAlreadyCancelled
	}
	return nil
}

func (r *mongoBookingRepository) UpdatePaymentStatus(ctx context.Context, id, paymentStatus string) error {
	return r.updateField(ctx, id, "payment_status", paymentStatus)
}

func (r *mongoBookingRepository) updateField(ctx context.Context, id, field, value string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", ticketingerrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{field: value}},
	)
	if err != nil {
		return fmt.Errorf("failed to update booking %s: %w", field, err)
	}
	if result.MatchedCount == 0 {
		return ticketingerrors.ErrBookingNotFound
	}
	return nil
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongodb.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
