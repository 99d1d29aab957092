package handler

import (
	"github.com/julienschmidt/httprouter"
)

// TicketingHandler bundles the booking and waitlist handlers behind a single
// route registration point for the application.
type TicketingHandler struct {
	bookings *BookingHandler
	waitlist *WaitlistHandler
}

func NewTicketingHandler(bookings *BookingHandler, waitlist *WaitlistHandler) *TicketingHandler {
	return &TicketingHandler{
		bookings: bookings,
		waitlist: waitlist,
	}
}

func (h *TicketingHandler) RegisterRoutes(router *httprouter.Router) {
	h.bookings.RegisterRoutes(router)
	h.waitlist.RegisterRoutes(router)
}
