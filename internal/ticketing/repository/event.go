package repository

import (
	"context"
	"errors"
	"fmt"

	ticketingerrors "tixgate/internal/ticketing/errors"
	"tixgate/pkg/config"
	"tixgate/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const EventCollectionName = "events"

// EventRepository is the read-only event directory. The engine never writes
// events; capacity, date and price are owned by an external catalog.
type EventRepository interface {
	FindByID(ctx context.Context, id string) (*model.Event, error)
}

type mongoEventRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoEventRepository(cfg *config.Config) EventRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoEventRepository{
		cfg:        cfg,
		collection: db.Collection(EventCollectionName),
	}
}

func (r *mongoEventRepository) FindByID(ctx context.Context, id string) (*model.Event, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ticketingerrors.ErrInvalidID, id)
	}

	var raw struct {
		ID       primitive.ObjectID `bson:"_id"`
		Name     string             `bson:"name"`
		Capacity int                `bson:"capacity"`
		Price    float64            `bson:"price"`
		Date     primitive.DateTime `bson:"date"`
	}
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ticketingerrors.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to find event: %w", err)
	}

	return &model.Event{
		ID:       raw.ID.Hex(),
		Name:     raw.Name,
		Capacity: raw.Capacity,
		Price:    raw.Price,
		Date:     raw.Date.Time(),
	}, nil
}
