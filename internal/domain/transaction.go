package domain

import "time"

type PaymentMethod string

const (
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodCrypto PaymentMethod = "crypto"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Transaction records one payment event against an offer. The payer is always
// the offer's matched user and the recipient is always the creator.
type Transaction struct {
	ID               string
	OfferID          string
	PayerID          string
	RecipientID      string
	AmountCents      int64
	HandlingFeeCents int64
	PaymentMethod    PaymentMethod
	PaymentStatus    PaymentStatus
	ProviderRef      string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
