package model

import "time"

// Demand is a buyer's request for a commodity, answered by at most one farmer.
type Demand struct {
	ID         string     `json:"id"`
	BuyerID    string     `json:"buyerId"`
	SellerID   *string    `json:"sellerId"`
	Commodity  string     `json:"commodity"`
	Quantity   float64    `json:"quantity"`
	Unit       string     `json:"unit"`
	Location   Location   `json:"location"`
	DesiredBy  *time.Time `json:"desiredBy"`
	Notes      string     `json:"notes"`
	PriceOffer *float64   `json:"priceOffer"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`

	// Joined fields (not always populated).
	Buyer  *UserSummary `json:"buyer,omitempty"`
	Seller *UserSummary `json:"seller,omitempty"`
}

// Location is free-form structured location data.
type Location map[string]any

// Demand statuses.
const (
	DemandStatusOpen      = "open"
	DemandStatusAccepted  = "accepted"
	DemandStatusRejected  = "rejected"
	DemandStatusCancelled = "cancelled"
)

// DefaultUnit is applied when a demand is created without a unit.
const DefaultUnit = "kg"

// Terminal reports whether no transition leaves status.
func Terminal(status string) bool {
	return status != DemandStatusOpen
}

// Respond actions.
const (
	ActionAccept = "accept"
	ActionReject = "reject"
)

// ResponseStatus maps a respond action to the status it produces.
func ResponseStatus(action string) (string, bool) {
	switch action {
	case ActionAccept:
		return DemandStatusAccepted, true
	case ActionReject:
		return DemandStatusRejected, true
	}
	return "", false
}

// DemandPatch holds the allow-listed fields of an update. A nil field is absent.
type DemandPatch struct {
	Commodity *string
	Quantity  *float64
	Unit      *string
	Location  *Location
	DesiredBy *time.Time
	Notes     *string

	// ClearDesiredBy removes the desired date; set when desiredBy is present as null.
	ClearDesiredBy bool
}

// Empty reports whether the patch changes nothing.
func (p DemandPatch) Empty() bool {
	return p.Commodity == nil && p.Quantity == nil && p.Unit == nil &&
		p.Location == nil && p.DesiredBy == nil && p.Notes == nil && !p.ClearDesiredBy
}
