package repository

import (
	"context"
	"fmt"
	"time"

	ticketingerrors "tixgate/internal/ticketing/errors"
	"tixgate/pkg/config"
	"tixgate/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const EventLockCollectionName = "event_locks"

// EventLockRepository implements a per-event advisory lock on top of the
// unique _id index. A held lock is a document; acquisition is an insert,
// release is a delete. A TTL index on expires_at reaps locks orphaned by
// a crashed holder.
type EventLockRepository interface {
	Acquire(ctx context.Context, eventID string, ttl time.Duration) error
	Release(ctx context.Context, eventID string) error
}

type mongoEventLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoEventLockRepository(cfg *config.Config) EventLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoEventLockRepository{
		cfg:        cfg,
		collection: db.Collection(EventLockCollectionName),
	}
}

func lockID(eventID string) string {
	return "event_lock_" + eventID
}

func (r *mongoEventLockRepository) Acquire(ctx context.Context, eventID string, ttl time.Duration) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC()
	lock := model.EventLock{
		ID:        lockID(eventID),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if _, err := r.collection.InsertOne(ctx, lock); err != nil {
		if isDuplicateKeyError(err) {
			return ticketingerrors.ErrLockBusy
		}
		return fmt.Errorf("failed to acquire event lock: %w", err)
	}
	return nil
}

func (r *mongoEventLockRepository) Release(ctx context.Context, eventID string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID(eventID)}); err != nil {
		return fmt.Errorf("failed to release event lock: %w", err)
	}
	return nil
}
