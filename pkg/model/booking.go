package model

import (
	"time"
)

const (
	BookingActive    = "active"
	BookingCancelled = "cancelled"
	BookingAttended  = "attended"
)

const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
)

// Booking is a confirmed ticket allocation against an event's capacity.
// TicketCount is immutable after creation; cancellation only flips Status.
type Booking struct {
	ID            string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	EventID       string    `json:"event_id" bson:"event_id" validate:"required,mongodb"`
	UserID        string    `json:"user_id" bson:"user_id" validate:"required"`
	TicketCount   int       `json:"ticket_count" bson:"ticket_count" validate:"required,min=1,max=10"`
	Status        string    `json:"status" bson:"status" validate:"required,oneof=active cancelled attended"`
	PaymentStatus string    `json:"payment_status" bson:"payment_status" validate:"required,oneof=pending completed"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// IsActive reports whether the booking still counts against capacity.
func (b *Booking) IsActive() bool {
	return b.Status != BookingCancelled
}

// BookingRequest is the payload for creating a booking. A zero TicketCount
// defaults to one ticket.
type BookingRequest struct {
	UserID      string `json:"user_id" validate:"required"`
	TicketCount int    `json:"ticket_count" validate:"omitempty,min=1,max=10"`
}
