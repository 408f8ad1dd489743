package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jetstreamair/jetshare/config"
	"github.com/jetstreamair/jetshare/internal/domain"
)

// CardGateway talks to the card-network payment provider over its REST API.
type CardGateway struct {
	baseURL string
	apiKey  string
	secret  string
	client  *http.Client
}

func NewCardGateway(cfg config.ProviderConfig) *CardGateway {
	return &CardGateway{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		secret:  cfg.WebhookSecret,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type cardIntentRequest struct {
	AmountCents int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Metadata    map[string]string `json:"metadata"`
}

type cardIntentResponse struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

func (g *CardGateway) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	body, err := json.Marshal(cardIntentRequest{
		AmountCents: req.AmountCents,
		Currency:    "usd",
		Metadata:    map[string]string{"offer_id": req.OfferID, "payer_id": req.PayerID},
	})
	if err != nil {
		return nil, gatewayErr("encode payment intent", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/payment_intents", bytes.NewReader(body))
	if err != nil {
		return nil, gatewayErr("build payment intent request", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, gatewayErr("card provider unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, gatewayErr(fmt.Sprintf("card provider returned %d", resp.StatusCode), nil)
	}

	var intent cardIntentResponse
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return nil, gatewayErr("decode payment intent response", err)
	}
	if intent.ID == "" {
		return nil, gatewayErr("card provider returned no payment reference", nil)
	}

	return &Charge{ProviderRef: intent.ID, ClientHandle: intent.ClientSecret}, nil
}

func (g *CardGateway) CancelCharge(ctx context.Context, providerRef string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/payment_intents/"+providerRef+"/cancel", nil)
	if err != nil {
		return gatewayErr("build cancel request", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return gatewayErr("card provider unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return gatewayErr(fmt.Sprintf("card provider returned %d on cancel", resp.StatusCode), nil)
	}
	return nil
}

func (g *CardGateway) VerifySignature(signature string, body []byte) error {
	return verifySignature(g.secret, signature, body)
}

type cardWebhookPayload struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID string `json:"id"`
		} `json:"object"`
	} `json:"data"`
}

func (g *CardGateway) ParseEvent(body []byte) (*WebhookEvent, error) {
	var payload cardWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, domain.Ew(domain.KindValidation, "malformed card webhook payload", err)
	}
	if payload.Data.Object.ID == "" {
		return nil, domain.E(domain.KindValidation, "card webhook missing payment reference")
	}

	switch payload.Type {
	case "payment_intent.succeeded":
		return &WebhookEvent{ProviderRef: payload.Data.Object.ID, Succeeded: true}, nil
	case "payment_intent.payment_failed", "payment_intent.canceled":
		return &WebhookEvent{ProviderRef: payload.Data.Object.ID, Succeeded: false}, nil
	default:
		// payment_intent.created and friends carry no outcome.
		return nil, nil
	}
}

var _ Gateway = (*CardGateway)(nil)
