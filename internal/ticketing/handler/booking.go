package handler

import (
	"encoding/json"
	"net/http"

	"tixgate/internal/ticketing/service"
	httputil "tixgate/pkg/http"
	"tixgate/pkg/logger"
	"tixgate/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	availability service.AvailabilityService
	admission    service.AdmissionService
	bookings     service.BookingService
	log          *logger.Logger
}

func NewBookingHandler(
	availability service.AvailabilityService,
	admission service.AdmissionService,
	bookings service.BookingService,
	log *logger.Logger,
) *BookingHandler {
	return &BookingHandler{
		availability: availability,
		admission:    admission,
		bookings:     bookings,
		log:          log,
	}
}

func (h *BookingHandler) Availability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	availability, err := h.availability.Availability(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Availability", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, availability); err != nil {
		h.log.Error("failed to write success response", "handler", "Availability", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Admit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Admit", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	booking, err := h.admission.Admit(r.Context(), ps.ByName("id"), &req)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Admit", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Admit", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) ListByEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bookings, err := h.bookings.ListByEvent(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListByEvent", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, bookings); err != nil {
		h.log.Error("failed to write success response", "handler", "ListByEvent", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) ListByUser(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bookings, err := h.bookings.ListByUser(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListByUser", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, bookings); err != nil {
		h.log.Error("failed to write success response", "handler", "ListByUser", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.bookings.Cancel(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Cancel", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Cancel", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) CompletePayment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.bookings.CompletePayment(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "CompletePayment", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "CompletePayment", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/events/:id/availability", h.Availability)
	router.POST("/events/:id/bookings", h.Admit)
	router.GET("/events/:id/bookings", h.ListByEvent)
	router.GET("/users/:id/bookings", h.ListByUser)
	router.DELETE("/bookings/:id", h.Cancel)
	router.POST("/bookings/:id/payment", h.CompletePayment)
}
