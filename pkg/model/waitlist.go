package model

import "time"

const (
	WaitlistWaiting   = "waiting"
	WaitlistNotified  = "notified"
	WaitlistConverted = "converted"
)

// WaitlistEntry is a user's place in line for a sold-out event. RequestDate
// strictly orders promotion priority; removal deletes the row.
type WaitlistEntry struct {
	ID                 string     `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	EventID            string     `json:"event_id" bson:"event_id" validate:"required,mongodb"`
	UserID             string     `json:"user_id" bson:"user_id" validate:"required"`
	RequestedTickets   int        `json:"requested_tickets" bson:"requested_tickets" validate:"required,min=1,max=10"`
	Status             string     `json:"status" bson:"status" validate:"required,oneof=waiting notified converted"`
	RequestDate        time.Time  `json:"request_date" bson:"request_date"`
	NotificationSentAt *time.Time `json:"notification_sent_at,omitempty" bson:"notification_sent_at,omitempty"`
}

// HoldActive reports whether a notified entry still reserves its requested
// tickets against admissible capacity. The hold lapses ttl after the
// notification was sent; the entry stays notified and may still convert,
// subject to the capacity re-check at admission time.
func (w *WaitlistEntry) HoldActive(now time.Time, ttl time.Duration) bool {
	if w.Status != WaitlistNotified || w.NotificationSentAt == nil {
		return false
	}
	return now.Before(w.NotificationSentAt.Add(ttl))
}

// WaitlistRequest is the payload for joining a waitlist. A zero
// RequestedTickets defaults to one ticket.
type WaitlistRequest struct {
	UserID           string `json:"user_id" validate:"required"`
	RequestedTickets int    `json:"requested_tickets" validate:"omitempty,min=1,max=10"`
}

// WaitlistStats summarises an event's waitlist by status.
type WaitlistStats struct {
	TotalEntries          int `json:"total_entries" bson:"total_entries"`
	TotalRequestedTickets int `json:"total_requested_tickets" bson:"total_requested_tickets"`
	WaitingCount          int `json:"waiting_count" bson:"waiting_count"`
	NotifiedCount         int `json:"notified_count" bson:"notified_count"`
	ConvertedCount        int `json:"converted_count" bson:"converted_count"`
}

// WaitlistStatus is a user's view of their own place on an event's waitlist.
type WaitlistStatus struct {
	OnWaitlist bool           `json:"on_waitlist"`
	Entry      *WaitlistEntry `json:"entry,omitempty"`
	Position   int            `json:"position,omitempty"`
	CanBook    bool           `json:"can_book"`
	Stats      WaitlistStats  `json:"stats"`
}
