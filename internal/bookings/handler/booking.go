package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"drivebid/internal/bookings/service"
	"drivebid/pkg/config"
	apperrors "drivebid/pkg/errors"
	httputil "drivebid/pkg/http"
	"drivebid/pkg/logger"
	"drivebid/pkg/model"
)

// HeaderOwnerID identifies the acting owner on the odometer endpoint, the
// same header the bid arbitration endpoints use.
const HeaderOwnerID = "X-Owner-ID"

type BookingHandler struct {
	service service.SettlementService
	log     *logger.Logger
}

func NewBookingHandler(service service.SettlementService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

// RecordOdometer accepts the handover and return readings. The "end" phase
// settles the booking and reports the final invoice in the response body.
func (h *BookingHandler) RecordOdometer(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	ownerID := r.Header.Get(HeaderOwnerID)
	if ownerID == "" {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("Missing X-Owner-ID header")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "RecordOdometer", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	var req model.OdometerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "RecordOdometer", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	booking, err := h.service.RecordOdometer(r.Context(), id, ownerID, &req)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "RecordOdometer", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "RecordOdometer", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	booking, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	query := r.URL.Query()
	filter := &model.BookingFilter{
		PaymentStatus: query.Get("payment_status"),
		VehicleID:     query.Get("vehicle_id"),
		OwnerID:       query.Get("owner_id"),
		RenterEmail:   query.Get("renter_email"),
	}

	bookings, count, err := h.service.GetAll(r.Context(), filter, limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, bookings, count, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/bookings", h.GetAll)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.POST("/api/v1/bookings/id/:id/odometer", h.RecordOdometer)
}
