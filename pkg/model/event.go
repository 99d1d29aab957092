package model

import "time"

// Event is the directory view of a bookable event. The engine reads it but
// never writes it; capacity is immutable once bookings exist against it.
type Event struct {
	ID       string    `json:"id,omitempty" bson:"_id,omitempty"`
	Name     string    `json:"name" bson:"name"`
	Capacity int       `json:"capacity" bson:"capacity"`
	Price    float64   `json:"price" bson:"price"`
	Date     time.Time `json:"date" bson:"date"`
}

// Expired reports whether the event date has passed relative to now.
func (e *Event) Expired(now time.Time) bool {
	return e.Date.Before(now)
}

// Availability is the capacity accounting for one event at a point in time.
// Available is always Capacity - Booked; holds for notified waitlist entries
// are tracked separately by the admission path.
type Availability struct {
	EventID   string `json:"event_id"`
	Capacity  int    `json:"capacity"`
	Booked    int    `json:"booked"`
	Available int    `json:"available"`
}
