package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"drivebid/internal/bids/service"
	"drivebid/pkg/config"
	apperrors "drivebid/pkg/errors"
	httputil "drivebid/pkg/http"
	"drivebid/pkg/logger"
	"drivebid/pkg/model"
)

// HeaderOwnerID identifies the acting owner on arbitration endpoints. A real
// deployment would derive this from an auth layer in front of the service.
const HeaderOwnerID = "X-Owner-ID"

type BidHandler struct {
	service service.BidService
	log     *logger.Logger
}

func NewBidHandler(service service.BidService, log *logger.Logger) *BidHandler {
	return &BidHandler{
		service: service,
		log:     log,
	}
}

// Submit enqueues a bid and answers 202; the bid record does not exist until
// the consumer drains the submission.
func (h *BidHandler) Submit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.BidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Submit", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	ack, err := h.service.Submit(r.Context(), &req)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Submit", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteAccepted(w, ack); err != nil {
		h.log.Error("failed to write accepted response", "handler", "Submit", "operation", "WriteAccepted", "error", err)
	}
}

func (h *BidHandler) Accept(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ownerID := r.Header.Get(HeaderOwnerID)
	if ownerID == "" {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("Missing X-Owner-ID header")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Accept", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	outcome, err := h.service.Accept(r.Context(), ps.ByName("id"), ownerID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Accept", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, outcome); err != nil {
		h.log.Error("failed to write created response", "handler", "Accept", "operation", "WriteCreated", "error", err)
	}
}

func (h *BidHandler) Reject(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ownerID := r.Header.Get(HeaderOwnerID)
	if ownerID == "" {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("Missing X-Owner-ID header")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Reject", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	bid, err := h.service.Reject(r.Context(), ps.ByName("id"), ownerID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Reject", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, bid); err != nil {
		h.log.Error("failed to write success response", "handler", "Reject", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BidHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bid, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, bid); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BidHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	filter, err := extractBidFilter(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	bids, count, err := h.service.GetAll(r.Context(), filter, limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, bids, count, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func extractBidFilter(r *http.Request) (*model.BidFilter, error) {
	query := r.URL.Query()

	minAmount, err := httputil.ExtractFloatQuery(r, "min_amount")
	if err != nil {
		return nil, err
	}
	maxAmount, err := httputil.ExtractFloatQuery(r, "max_amount")
	if err != nil {
		return nil, err
	}

	return &model.BidFilter{
		Status:      query.Get("status"),
		VehicleID:   query.Get("vehicle_id"),
		OwnerID:     query.Get("owner_id"),
		Category:    query.Get("category"),
		RenterEmail: query.Get("renter_email"),
		MinAmount:   minAmount,
		MaxAmount:   maxAmount,
	}, nil
}

func (h *BidHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bids", h.Submit)
	router.GET("/api/v1/bids", h.GetAll)
	router.GET("/api/v1/bids/id/:id", h.GetByID)
	router.POST("/api/v1/bids/id/:id/accept", h.Accept)
	router.PATCH("/api/v1/bids/id/:id/reject", h.Reject)
}
