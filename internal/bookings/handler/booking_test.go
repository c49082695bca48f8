package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"

	"drivebid/pkg/logger"
	"drivebid/pkg/model"
)

type mockSettlementService struct {
	recordOdometerFunc func(ctx context.Context, id, ownerID string, req *model.OdometerRequest) (*model.Booking, error)
}

func (m *mockSettlementService) RecordOdometer(ctx context.Context, id, ownerID string, req *model.OdometerRequest) (*model.Booking, error) {
	if m.recordOdometerFunc != nil {
		return m.recordOdometerFunc(ctx, id, ownerID, req)
	}
	return &model.Booking{ID: id}, nil
}

func (m *mockSettlementService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	return &model.Booking{ID: id}, nil
}

func (m *mockSettlementService) GetAll(ctx context.Context, filter *model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error) {
	return []*model.Booking{}, 0, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
}

func newRouter(svc *mockSettlementService) *httprouter.Router {
	router := httprouter.New()
	NewBookingHandler(svc, testLogger()).RegisterRoutes(router)
	return router
}

func TestRecordOdometer_RequiresOwnerHeader(t *testing.T) {
	router := newRouter(&mockSettlementService{})

	body := `{"phase":"end","reading":1250}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/id/65f000000000000000000001/odometer", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 when the owner header is missing", rec.Code)
	}
}

func TestRecordOdometer_PassesOwnerFromHeader(t *testing.T) {
	var receivedID, receivedOwner string
	svc := &mockSettlementService{
		recordOdometerFunc: func(ctx context.Context, id, ownerID string, req *model.OdometerRequest) (*model.Booking, error) {
			receivedID = id
			receivedOwner = ownerID
			return &model.Booking{ID: id, PaymentStatus: model.PaymentPaid}, nil
		},
	}
	router := newRouter(svc)

	body := `{"phase":"end","reading":1250}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/id/65f000000000000000000001/odometer", strings.NewReader(body))
	req.Header.Set(HeaderOwnerID, "65f000000000000000000004")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if receivedID != "65f000000000000000000001" {
		t.Errorf("booking id = %s", receivedID)
	}
	if receivedOwner != "65f000000000000000000004" {
		t.Errorf("owner id = %s", receivedOwner)
	}
}
