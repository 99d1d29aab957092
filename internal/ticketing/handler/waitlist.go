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

type WaitlistHandler struct {
	waitlist  service.WaitlistService
	promotion service.PromotionService
	log       *logger.Logger
}

func NewWaitlistHandler(
	waitlist service.WaitlistService,
	promotion service.PromotionService,
	log *logger.Logger,
) *WaitlistHandler {
	return &WaitlistHandler{
		waitlist:  waitlist,
		promotion: promotion,
		log:       log,
	}
}

func (h *WaitlistHandler) Join(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.WaitlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Join", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	entry, err := h.waitlist.Join(r.Context(), ps.ByName("id"), &req)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Join", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, entry); err != nil {
		h.log.Error("failed to write created response", "handler", "Join", "operation", "WriteCreated", "error", err)
	}
}

func (h *WaitlistHandler) Leave(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	err := h.waitlist.Leave(r.Context(), ps.ByName("id"), ps.ByName("userId"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Leave", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *WaitlistHandler) List(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	entries, err := h.waitlist.List(r.Context(), ps.ByName("id"), r.URL.Query().Get("status"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, entries); err != nil {
		h.log.Error("failed to write success response", "handler", "List", "operation", "WriteSuccess", "error", err)
	}
}

func (h *WaitlistHandler) Stats(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	stats, err := h.waitlist.Stats(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Stats", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, stats); err != nil {
		h.log.Error("failed to write success response", "handler", "Stats", "operation", "WriteSuccess", "error", err)
	}
}

func (h *WaitlistHandler) Status(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	status, err := h.waitlist.StatusFor(r.Context(), ps.ByName("id"), ps.ByName("userId"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Status", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, status); err != nil {
		h.log.Error("failed to write success response", "handler", "Status", "operation", "WriteSuccess", "error", err)
	}
}

func (h *WaitlistHandler) Promote(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	promoted, err := h.promotion.Promote(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Promote", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, promoted); err != nil {
		h.log.Error("failed to write success response", "handler", "Promote", "operation", "WriteSuccess", "error", err)
	}
}

func (h *WaitlistHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/events/:id/waitlist", h.Join)
	router.GET("/events/:id/waitlist", h.List)
	router.GET("/events/:id/waitlist/stats", h.Stats)
	router.POST("/events/:id/waitlist/promotions", h.Promote)
	router.DELETE("/events/:id/waitlist/users/:userId", h.Leave)
	router.GET("/events/:id/waitlist/users/:userId/status", h.Status)
}
