package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/jetstreamair/jetshare/config"
	"github.com/jetstreamair/jetshare/internal/domain"
)

// CryptoGateway talks to the hosted cryptocurrency charge provider.
type CryptoGateway struct {
	baseURL string
	apiKey  string
	secret  string
	client  *http.Client
}

func NewCryptoGateway(cfg config.ProviderConfig) *CryptoGateway {
	return &CryptoGateway{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		secret:  cfg.WebhookSecret,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type cryptoChargeRequest struct {
	Name       string            `json:"name"`
	LocalPrice cryptoPrice       `json:"local_price"`
	Metadata   map[string]string `json:"metadata"`
}

type cryptoPrice struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type cryptoChargeResponse struct {
	Data struct {
		Code      string `json:"code"`
		HostedURL string `json:"hosted_url"`
	} `json:"data"`
}

func (g *CryptoGateway) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	amount := strconv.FormatFloat(float64(req.AmountCents)/100, 'f', 2, 64)
	body, err := json.Marshal(cryptoChargeRequest{
		Name:       "JetShare flight share " + req.OfferID,
		LocalPrice: cryptoPrice{Amount: amount, Currency: "USD"},
		Metadata:   map[string]string{"offer_id": req.OfferID, "payer_id": req.PayerID},
	})
	if err != nil {
		return nil, gatewayErr("encode crypto charge", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/charges", bytes.NewReader(body))
	if err != nil {
		return nil, gatewayErr("build crypto charge request", err)
	}
	httpReq.Header.Set("X-CC-Api-Key", g.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, gatewayErr("crypto provider unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, gatewayErr(fmt.Sprintf("crypto provider returned %d", resp.StatusCode), nil)
	}

	var charge cryptoChargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&charge); err != nil {
		return nil, gatewayErr("decode crypto charge response", err)
	}
	if charge.Data.Code == "" {
		return nil, gatewayErr("crypto provider returned no charge code", nil)
	}

	return &Charge{ProviderRef: charge.Data.Code, ClientHandle: charge.Data.HostedURL}, nil
}

// CancelCharge is a no-op for the crypto provider: hosted charges expire on
// their own and the provider exposes no cancel call.
func (g *CryptoGateway) CancelCharge(ctx context.Context, providerRef string) error {
	return nil
}

func (g *CryptoGateway) VerifySignature(signature string, body []byte) error {
	return verifySignature(g.secret, signature, body)
}

type cryptoWebhookPayload struct {
	Event struct {
		Type string `json:"type"`
		Data struct {
			Code string `json:"code"`
		} `json:"data"`
	} `json:"event"`
}

func (g *CryptoGateway) ParseEvent(body []byte) (*WebhookEvent, error) {
	var payload cryptoWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, domain.Ew(domain.KindValidation, "malformed crypto webhook payload", err)
	}
	if payload.Event.Data.Code == "" {
		return nil, domain.E(domain.KindValidation, "crypto webhook missing charge code")
	}

	switch payload.Event.Type {
	case "charge:confirmed", "charge:resolved":
		return &WebhookEvent{ProviderRef: payload.Event.Data.Code, Succeeded: true}, nil
	case "charge:failed", "charge:expired":
		return &WebhookEvent{ProviderRef: payload.Event.Data.Code, Succeeded: false}, nil
	default:
		// charge:created and charge:pending precede the outcome.
		return nil, nil
	}
}

var _ Gateway = (*CryptoGateway)(nil)
