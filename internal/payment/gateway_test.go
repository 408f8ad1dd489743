package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jetstreamair/jetshare/config"
	"github.com/jetstreamair/jetshare/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignatureVerification(t *testing.T) {
	gateway := NewCardGateway(config.ProviderConfig{WebhookSecret: "whsec_test"})
	body := []byte(`{"type":"payment_intent.succeeded"}`)

	t.Run("valid signature", func(t *testing.T) {
		sig := SignBody("whsec_test", body)
		assert.NoError(t, gateway.VerifySignature(sig, body))
	})

	t.Run("wrong secret", func(t *testing.T) {
		sig := SignBody("whsec_other", body)
		err := gateway.VerifySignature(sig, body)
		assert.True(t, domain.IsKind(err, domain.KindInvalidSignature))
	})

	t.Run("tampered body", func(t *testing.T) {
		sig := SignBody("whsec_test", body)
		err := gateway.VerifySignature(sig, []byte(`{"type":"payment_intent.payment_failed"}`))
		assert.True(t, domain.IsKind(err, domain.KindInvalidSignature))
	})

	t.Run("missing signature", func(t *testing.T) {
		err := gateway.VerifySignature("", body)
		assert.True(t, domain.IsKind(err, domain.KindInvalidSignature))
	})
}

func TestCardGateway_CreateCharge(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/payment_intents", r.URL.Path)
			assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))

			var req map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, float64(5000), req["amount"])

			json.NewEncoder(w).Encode(map[string]string{"id": "pi_123", "client_secret": "secret_123"})
		}))
		defer server.Close()

		gateway := NewCardGateway(config.ProviderConfig{BaseURL: server.URL, APIKey: "sk_test"})
		charge, err := gateway.CreateCharge(context.Background(), ChargeRequest{OfferID: "offer-1", PayerID: "user-b", AmountCents: 5000})

		require.NoError(t, err)
		assert.Equal(t, "pi_123", charge.ProviderRef)
		assert.Equal(t, "secret_123", charge.ClientHandle)
	})

	t.Run("provider error is normalized", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		gateway := NewCardGateway(config.ProviderConfig{BaseURL: server.URL, APIKey: "sk_test"})
		charge, err := gateway.CreateCharge(context.Background(), ChargeRequest{OfferID: "offer-1", AmountCents: 5000})

		assert.Nil(t, charge)
		assert.True(t, domain.IsKind(err, domain.KindGateway))
	})

	t.Run("unreachable provider is normalized", func(t *testing.T) {
		gateway := NewCardGateway(config.ProviderConfig{BaseURL: "http://127.0.0.1:1"})
		charge, err := gateway.CreateCharge(context.Background(), ChargeRequest{OfferID: "offer-1", AmountCents: 5000})

		assert.Nil(t, charge)
		assert.True(t, domain.IsKind(err, domain.KindGateway))
	})
}

func TestCardGateway_ParseEvent(t *testing.T) {
	gateway := NewCardGateway(config.ProviderConfig{})

	t.Run("succeeded", func(t *testing.T) {
		event, err := gateway.ParseEvent([]byte(`{"type":"payment_intent.succeeded","data":{"object":{"id":"pi_123"}}}`))
		require.NoError(t, err)
		assert.Equal(t, "pi_123", event.ProviderRef)
		assert.True(t, event.Succeeded)
	})

	t.Run("failed", func(t *testing.T) {
		event, err := gateway.ParseEvent([]byte(`{"type":"payment_intent.payment_failed","data":{"object":{"id":"pi_123"}}}`))
		require.NoError(t, err)
		assert.False(t, event.Succeeded)
	})

	t.Run("canceled", func(t *testing.T) {
		event, err := gateway.ParseEvent([]byte(`{"type":"payment_intent.canceled","data":{"object":{"id":"pi_123"}}}`))
		require.NoError(t, err)
		assert.False(t, event.Succeeded)
	})

	// An intent that was just created has no outcome yet; treating it as a
	// failure would fail the pending transaction before the user pays.
	t.Run("created has no outcome", func(t *testing.T) {
		event, err := gateway.ParseEvent([]byte(`{"type":"payment_intent.created","data":{"object":{"id":"pi_123"}}}`))
		require.NoError(t, err)
		assert.Nil(t, event)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := gateway.ParseEvent([]byte(`not json`))
		assert.True(t, domain.IsKind(err, domain.KindValidation))
	})

	t.Run("missing reference", func(t *testing.T) {
		_, err := gateway.ParseEvent([]byte(`{"type":"payment_intent.succeeded","data":{"object":{}}}`))
		assert.True(t, domain.IsKind(err, domain.KindValidation))
	})
}

func TestCryptoGateway_CreateCharge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/charges", r.URL.Path)
		assert.Equal(t, "key_test", r.Header.Get("X-CC-Api-Key"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		price := req["local_price"].(map[string]interface{})
		assert.Equal(t, "50.00", price["amount"])

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]string{"code": "CH-123", "hosted_url": "https://pay.example/CH-123"},
		})
	}))
	defer server.Close()

	gateway := NewCryptoGateway(config.ProviderConfig{BaseURL: server.URL, APIKey: "key_test"})
	charge, err := gateway.CreateCharge(context.Background(), ChargeRequest{OfferID: "offer-1", PayerID: "user-b", AmountCents: 5000})

	require.NoError(t, err)
	assert.Equal(t, "CH-123", charge.ProviderRef)
	assert.Equal(t, "https://pay.example/CH-123", charge.ClientHandle)
}

func TestCryptoGateway_ParseEvent(t *testing.T) {
	gateway := NewCryptoGateway(config.ProviderConfig{})

	t.Run("confirmed", func(t *testing.T) {
		event, err := gateway.ParseEvent([]byte(`{"event":{"type":"charge:confirmed","data":{"code":"CH-123"}}}`))
		require.NoError(t, err)
		assert.Equal(t, "CH-123", event.ProviderRef)
		assert.True(t, event.Succeeded)
	})

	t.Run("failed", func(t *testing.T) {
		event, err := gateway.ParseEvent([]byte(`{"event":{"type":"charge:failed","data":{"code":"CH-123"}}}`))
		require.NoError(t, err)
		assert.False(t, event.Succeeded)
	})

	t.Run("expired", func(t *testing.T) {
		event, err := gateway.ParseEvent([]byte(`{"event":{"type":"charge:expired","data":{"code":"CH-123"}}}`))
		require.NoError(t, err)
		assert.False(t, event.Succeeded)
	})

	// The provider emits created/pending the moment a charge exists; neither
	// says anything about the payment outcome.
	t.Run("created has no outcome", func(t *testing.T) {
		event, err := gateway.ParseEvent([]byte(`{"event":{"type":"charge:created","data":{"code":"CH-123"}}}`))
		require.NoError(t, err)
		assert.Nil(t, event)
	})

	t.Run("pending has no outcome", func(t *testing.T) {
		event, err := gateway.ParseEvent([]byte(`{"event":{"type":"charge:pending","data":{"code":"CH-123"}}}`))
		require.NoError(t, err)
		assert.Nil(t, event)
	})

	t.Run("missing code", func(t *testing.T) {
		_, err := gateway.ParseEvent([]byte(`{"event":{"type":"charge:confirmed","data":{}}}`))
		assert.True(t, domain.IsKind(err, domain.KindValidation))
	})
}
