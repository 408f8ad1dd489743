package payment

import (
	"context"

	"github.com/jetstreamair/jetshare/internal/domain"
)

// Charge is the normalized result of a provider-side payment object.
// ClientHandle is what the client needs to finish payment out-of-band: a
// card-network client secret or a hosted crypto checkout URL.
type Charge struct {
	ProviderRef  string
	ClientHandle string
}

type ChargeRequest struct {
	OfferID     string
	PayerID     string
	AmountCents int64
}

// WebhookEvent is a provider confirmation mapped to its transaction.
type WebhookEvent struct {
	ProviderRef string
	Succeeded   bool
}

// Gateway hides provider-specific wire shapes from the lifecycle manager.
// Provider failures come back as GatewayError, signature mismatches as
// InvalidSignature, malformed payloads as ValidationError.
//
// ParseEvent returns a nil event for intermediate lifecycle notifications
// (charge created, awaiting payment): those carry no outcome and must be
// acknowledged without touching payment state.
type Gateway interface {
	CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error)
	CancelCharge(ctx context.Context, providerRef string) error
	VerifySignature(signature string, body []byte) error
	ParseEvent(body []byte) (*WebhookEvent, error)
}

func gatewayErr(message string, cause error) error {
	return domain.Ew(domain.KindGateway, message, cause)
}
