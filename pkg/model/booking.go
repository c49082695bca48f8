package model

import (
	"time"
)

const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
)

// Booking is the confirmed, exclusive reservation materialized from exactly one
// accepted bid. All bid fields are value copies; BidID is an audit back-reference
// only and nothing dereferences it.
type Booking struct {
	ID        string          `json:"id,omitempty" bson:"_id,omitempty"`
	BidID     string          `json:"bid_id" bson:"bid_id"`
	VehicleID string          `json:"vehicle_id" bson:"vehicle_id"`
	OwnerID   string          `json:"owner_id" bson:"owner_id"`
	Vehicle   VehicleSnapshot `json:"vehicle" bson:"vehicle"`
	Renter    UserSnapshot    `json:"renter" bson:"renter"`
	Owner     UserSnapshot    `json:"owner" bson:"owner"`
	Amount    float64         `json:"amount" bson:"amount"`
	StartDate time.Time       `json:"start_date" bson:"start_date"`
	EndDate   time.Time       `json:"end_date" bson:"end_date"`

	PaymentStatus     string   `json:"payment_status" bson:"payment_status"`
	StartOdometer     *float64 `json:"start_odometer,omitempty" bson:"start_odometer,omitempty"`
	EndOdometer       *float64 `json:"end_odometer,omitempty" bson:"end_odometer,omitempty"`
	DistanceTravelled float64  `json:"distance_travelled" bson:"distance_travelled"`
	RentalDays        int      `json:"rental_days" bson:"rental_days"`
	LateDays          int      `json:"late_days" bson:"late_days"`
	LateFee           float64  `json:"late_fee" bson:"late_fee"`
	TotalAmount       float64  `json:"total_amount" bson:"total_amount"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// BookingFromBid copies every bid field into a fresh pending booking with empty
// settlement state.
func BookingFromBid(bid *Bid) *Booking {
	return &Booking{
		BidID:         bid.ID,
		VehicleID:     bid.VehicleID,
		OwnerID:       bid.OwnerID,
		Vehicle:       bid.Vehicle,
		Renter:        bid.Renter,
		Owner:         bid.Owner,
		Amount:        bid.Amount,
		StartDate:     bid.StartDate,
		EndDate:       bid.EndDate,
		PaymentStatus: PaymentPending,
	}
}

const (
	OdometerPhaseStart = "start"
	OdometerPhaseEnd   = "end"
)

// OdometerRequest records one reading against a booking. Phase "start" is the
// handover reading, phase "end" triggers settlement.
type OdometerRequest struct {
	Phase   string  `json:"phase" validate:"required,oneof=start end"`
	Reading float64 `json:"reading" validate:"required,gte=0"`
}

// BookingFilter narrows booking listings. Zero-valued fields are ignored.
type BookingFilter struct {
	PaymentStatus string
	VehicleID     string
	OwnerID       string
	RenterEmail   string
}

// AcceptOutcome is returned by the arbitration engine so callers can report
// both the created booking and the cascade without a second read.
type AcceptOutcome struct {
	Booking        *Booking `json:"booking"`
	RejectedBidIDs []string `json:"rejected_bid_ids"`
	RejectedCount  int64    `json:"rejected_count"`
}
