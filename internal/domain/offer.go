package domain

import "time"

type OfferStatus string

const (
	OfferStatusOpen      OfferStatus = "open"
	OfferStatusAccepted  OfferStatus = "accepted"
	OfferStatusPaid      OfferStatus = "paid"
	OfferStatusCompleted OfferStatus = "completed"
	OfferStatusFailed    OfferStatus = "failed"
	OfferStatusCancelled OfferStatus = "cancelled"
)

// Offer is a shareable flight-cost listing. MatchedUserID is empty while the
// offer is open and set exactly once by the accept transition.
type Offer struct {
	ID                string
	CreatorID         string
	FlightDate        time.Time
	DepartureLocation string
	ArrivalLocation   string
	AircraftModel     string
	TotalCostCents    int64
	ShareAmountCents  int64
	Status            OfferStatus
	MatchedUserID     string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// FlightDetails carries the mutable, caller-supplied fields of an offer.
type FlightDetails struct {
	FlightDate        time.Time
	DepartureLocation string
	ArrivalLocation   string
	AircraftModel     string
	TotalCostCents    int64
	ShareAmountCents  int64
}
