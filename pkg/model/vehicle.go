package model

// Vehicle is the live vehicle record. The arbitration and settlement paths read
// it only for existence/active checks and the travelled-distance watermark;
// pricing fields are snapshotted into bids at submission time.
type Vehicle struct {
	ID             string       `json:"id,omitempty" bson:"_id,omitempty"`
	OwnerID        string       `json:"owner_id" bson:"owner_id"`
	Owner          UserSnapshot `json:"owner" bson:"owner"`
	Name           string       `json:"name" bson:"name"`
	Category       string       `json:"category" bson:"category"`
	PricePerKm     float64      `json:"price_per_km" bson:"price_per_km"`
	FinePercentage *float64     `json:"fine_percentage,omitempty" bson:"fine_percentage,omitempty"`
	Travelled      float64      `json:"travelled" bson:"travelled"`
	Active         bool         `json:"active" bson:"active"`
}

// Snapshot freezes the attributes a bid needs. FinePercentage is copied by
// value so later edits to the vehicle cannot change an open bid's terms.
func (v *Vehicle) Snapshot() VehicleSnapshot {
	snap := VehicleSnapshot{
		VehicleID:  v.ID,
		Name:       v.Name,
		Category:   v.Category,
		PricePerKm: v.PricePerKm,
	}
	if v.FinePercentage != nil {
		pct := *v.FinePercentage
		snap.FinePercentage = &pct
	}
	return snap
}
