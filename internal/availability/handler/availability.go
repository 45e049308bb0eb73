package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"agenda/internal/availability/service"
	"agenda/internal/availability/validator"
	apperrors "agenda/pkg/errors"
	httputil "agenda/pkg/http"
	"agenda/pkg/logger"
)

// HeaderSlotsCache reports whether a listing was served from the slot cache.
const HeaderSlotsCache = "X-Slots-Cache"

type AvailabilityHandler struct {
	service service.AvailabilityService
	log     *logger.Logger
}

func NewAvailabilityHandler(service service.AvailabilityService, log *logger.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		service: service,
		log:     log,
	}
}

func (h *AvailabilityHandler) Slots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	date, err := httputil.RequiredQuery(r, "date")
	if err != nil {
		h.writeError(w, "Slots", err)
		return
	}

	result, err := h.service.ListSlots(r.Context(), &validator.SlotsQuery{
		BusinessID: ps.ByName("business_id"),
		ServiceID:  ps.ByName("service_id"),
		Date:       date,
		StaffID:    r.URL.Query().Get("staff_id"),
	})
	if err != nil {
		h.writeError(w, "Slots", err)
		return
	}

	if result.Cached {
		w.Header().Set(HeaderSlotsCache, "hit")
	} else {
		w.Header().Set(HeaderSlotsCache, "miss")
	}
	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Slots", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) Check(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req validator.CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Check", apperrors.InvalidInput("Invalid request body"))
		return
	}

	result, err := h.service.Check(r.Context(), ps.ByName("business_id"), &req)
	if err != nil {
		h.writeError(w, "Check", err)
		return
	}

	// A rejected proposal is still a successful check.
	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Check", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *AvailabilityHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/businesses/:business_id/services/:service_id/slots", h.Slots)
	router.POST("/api/v1/businesses/:business_id/check", h.Check)
}
