package validator

import (
	"testing"
	"time"

	"drivebid/pkg/logger"
	"drivebid/pkg/model"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
}

func validRequest() *model.BidRequest {
	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	return &model.BidRequest{
		VehicleID: "65f000000000000000000003",
		Amount:    500,
		StartDate: start,
		EndDate:   start.Add(2 * 24 * time.Hour),
		Renter: model.UserSnapshot{
			Name:  "Dana Levi",
			Email: "dana@example.com",
		},
	}
}

func TestValidateRequest_Valid(t *testing.T) {
	v := NewBidValidator(testLogger())
	if err := v.ValidateRequest(validRequest()); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}
}

func TestValidateRequest_SameDayRental(t *testing.T) {
	v := NewBidValidator(testLogger())
	req := validRequest()
	req.EndDate = req.StartDate

	if err := v.ValidateRequest(req); err != nil {
		t.Fatalf("same-day rental rejected: %v", err)
	}
}

func TestValidateRequest_EndBeforeStart(t *testing.T) {
	v := NewBidValidator(testLogger())
	req := validRequest()
	req.EndDate = req.StartDate.Add(-24 * time.Hour)

	if err := v.ValidateRequest(req); err == nil {
		t.Fatal("end date before start date must fail")
	}
}

func TestValidateRequest_FieldErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*model.BidRequest)
	}{
		{"missing vehicle id", func(r *model.BidRequest) { r.VehicleID = "" }},
		{"malformed vehicle id", func(r *model.BidRequest) { r.VehicleID = "not-hex" }},
		{"zero amount", func(r *model.BidRequest) { r.Amount = 0 }},
		{"negative amount", func(r *model.BidRequest) { r.Amount = -10 }},
		{"missing renter name", func(r *model.BidRequest) { r.Renter.Name = "" }},
		{"bad renter email", func(r *model.BidRequest) { r.Renter.Email = "not-an-email" }},
	}

	v := NewBidValidator(testLogger())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(req)
			if err := v.ValidateRequest(req); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestValidateSubmission(t *testing.T) {
	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	sub := &model.BidSubmission{
		VehicleID: "65f000000000000000000003",
		OwnerID:   "65f000000000000000000004",
		Vehicle: model.VehicleSnapshot{
			VehicleID:  "65f000000000000000000003",
			Name:       "Mazda 3",
			PricePerKm: 10,
		},
		Renter: model.UserSnapshot{
			Name:  "Dana Levi",
			Email: "dana@example.com",
		},
		Owner: model.UserSnapshot{
			Name:  "Owner Person",
			Email: "owner@example.com",
		},
		Amount:    500,
		StartDate: start,
		EndDate:   start.Add(24 * time.Hour),
	}

	v := NewBidValidator(testLogger())
	if err := v.ValidateSubmission(sub); err != nil {
		t.Fatalf("valid submission rejected: %v", err)
	}

	sub.OwnerID = ""
	if err := v.ValidateSubmission(sub); err == nil {
		t.Fatal("submission without owner id must fail")
	}
}
