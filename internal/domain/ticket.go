package domain

import "time"

type TicketStatus string

const (
	TicketStatusActive TicketStatus = "active"
	TicketStatusUsed   TicketStatus = "used"
	TicketStatusVoid   TicketStatus = "void"
)

// Ticket is a boarding credential issued once per (offer, holder) when the
// offer completes.
type Ticket struct {
	ID           string
	OfferID      string
	HolderID     string
	SeatNumber   string
	BoardingTime time.Time
	Gate         string
	Status       TicketStatus
	TicketCode   string
	CreatedAt    time.Time
}
