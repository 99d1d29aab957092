package model

import "time"

// EventLock is an advisory lock serializing admission, promotion and
// cancellation for a single event. Acquisition is an insert with a
// deterministic _id; a duplicate key means the lock is held. ExpiresAt is
// reaped by a TTL index so an abandoned lock cannot wedge the event.
type EventLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
