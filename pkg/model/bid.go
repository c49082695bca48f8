package model

import (
	"time"
)

const (
	BidPending  = "pending"
	BidAccepted = "accepted"
	BidRejected = "rejected"
)

// VehicleSnapshot is the immutable copy of the vehicle attributes taken when a
// bid is submitted. Pricing always comes from here, never from the live vehicle.
type VehicleSnapshot struct {
	VehicleID      string   `json:"vehicle_id" bson:"vehicle_id" validate:"required,mongodb"`
	Name           string   `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Category       string   `json:"category" bson:"category" validate:"omitempty,max=50"`
	PricePerKm     float64  `json:"price_per_km" bson:"price_per_km" validate:"gte=0"`
	FinePercentage *float64 `json:"fine_percentage,omitempty" bson:"fine_percentage,omitempty" validate:"omitempty,gte=0,lte=500"`
}

// UserSnapshot is the immutable copy of a party's contact details.
type UserSnapshot struct {
	Name  string `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Email string `json:"email" bson:"email" validate:"required,email"`
	Phone string `json:"phone,omitempty" bson:"phone,omitempty" validate:"omitempty,e164"`
}

type Bid struct {
	ID            string          `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	VehicleID     string          `json:"vehicle_id" bson:"vehicle_id" validate:"required,mongodb"`
	OwnerID       string          `json:"owner_id" bson:"owner_id" validate:"required,mongodb"`
	Vehicle       VehicleSnapshot `json:"vehicle" bson:"vehicle" validate:"required"`
	Renter        UserSnapshot    `json:"renter" bson:"renter" validate:"required"`
	Owner         UserSnapshot    `json:"owner" bson:"owner" validate:"required"`
	Amount        float64         `json:"amount" bson:"amount" validate:"required,gt=0"`
	StartDate     time.Time       `json:"start_date" bson:"start_date" validate:"required"`
	EndDate       time.Time       `json:"end_date" bson:"end_date" validate:"required"`
	Status        string          `json:"status" bson:"status" validate:"required,oneof=pending accepted rejected"`
	SourceEventID string          `json:"source_event_id,omitempty" bson:"source_event_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// BidRequest is the submit-path input. It carries only what the renter knows;
// the vehicle and owner snapshots are resolved before enqueueing.
type BidRequest struct {
	VehicleID string       `json:"vehicle_id" validate:"required,mongodb"`
	Amount    float64      `json:"amount" validate:"required,gt=0"`
	StartDate time.Time    `json:"start_date" validate:"required"`
	EndDate   time.Time    `json:"end_date" validate:"required"`
	Renter    UserSnapshot `json:"renter" validate:"required"`
}

// BidSubmission is the queue message body: a fully snapshotted bid waiting to
// be persisted by the consumer.
type BidSubmission struct {
	VehicleID   string          `json:"vehicle_id" validate:"required,mongodb"`
	OwnerID     string          `json:"owner_id" validate:"required,mongodb"`
	Vehicle     VehicleSnapshot `json:"vehicle" validate:"required"`
	Renter      UserSnapshot    `json:"renter" validate:"required"`
	Owner       UserSnapshot    `json:"owner" validate:"required"`
	Amount      float64         `json:"amount" validate:"required,gt=0"`
	StartDate   time.Time       `json:"start_date" validate:"required"`
	EndDate     time.Time       `json:"end_date" validate:"required"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

// EnqueueAck acknowledges that a submission reached the queue. No bid id exists
// yet; the consumer creates the bid asynchronously.
type EnqueueAck struct {
	EventID  string    `json:"event_id"`
	QueuedAt time.Time `json:"queued_at"`
}

// BidFilter narrows bid listings. Nil/zero fields are ignored.
type BidFilter struct {
	Status      string
	VehicleID   string
	OwnerID     string
	Category    string
	RenterEmail string
	MinAmount   *float64
	MaxAmount   *float64
}
