package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jetstreamair/jetshare/config"
	"github.com/jetstreamair/jetshare/internal/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newWebhookRouter(service *MockPaymentUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	card := payment.NewCardGateway(config.ProviderConfig{WebhookSecret: "whsec_card"})
	crypto := payment.NewCryptoGateway(config.ProviderConfig{WebhookSecret: "whsec_crypto"})
	router := gin.New()
	NewWebhookHandler(card, crypto, service).Register(router.Group("/webhooks"))
	return router
}

func TestWebhookHandler_card_success(t *testing.T) {
	mockService := &MockPaymentUseCase{}
	router := newWebhookRouter(mockService)

	mockService.On("ConfirmPayment", mock.Anything, "pi_123", true).Return(nil).Once()

	body := []byte(`{"type":"payment_intent.succeeded","data":{"object":{"id":"pi_123"}}}`)
	req := httptest.NewRequest("POST", "/webhooks/card", bytes.NewReader(body))
	req.Header.Set("X-Webhook-Signature", payment.SignBody("whsec_card", body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true}`, w.Body.String())
	mockService.AssertExpectations(t)
}

func TestWebhookHandler_card_failureOutcome(t *testing.T) {
	mockService := &MockPaymentUseCase{}
	router := newWebhookRouter(mockService)

	mockService.On("ConfirmPayment", mock.Anything, "pi_123", false).Return(nil).Once()

	body := []byte(`{"type":"payment_intent.payment_failed","data":{"object":{"id":"pi_123"}}}`)
	req := httptest.NewRequest("POST", "/webhooks/card", bytes.NewReader(body))
	req.Header.Set("X-Webhook-Signature", payment.SignBody("whsec_card", body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

// A forged payload must be rejected with a 400 so the provider does not
// record it as delivered.
func TestWebhookHandler_card_badSignature(t *testing.T) {
	mockService := &MockPaymentUseCase{}
	router := newWebhookRouter(mockService)

	body := []byte(`{"type":"payment_intent.succeeded","data":{"object":{"id":"pi_123"}}}`)
	req := httptest.NewRequest("POST", "/webhooks/card", bytes.NewReader(body))
	req.Header.Set("X-Webhook-Signature", "deadbeef")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "InvalidSignature")
	mockService.AssertNotCalled(t, "ConfirmPayment", mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhookHandler_card_malformedPayload(t *testing.T) {
	mockService := &MockPaymentUseCase{}
	router := newWebhookRouter(mockService)

	body := []byte(`not json`)
	req := httptest.NewRequest("POST", "/webhooks/card", bytes.NewReader(body))
	req.Header.Set("X-Webhook-Signature", payment.SignBody("whsec_card", body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "ValidationError")
	mockService.AssertNotCalled(t, "ConfirmPayment", mock.Anything, mock.Anything, mock.Anything)
}

// Providers send lifecycle notifications (intent created, charge pending)
// before any outcome exists. Those must be acknowledged without driving the
// transaction to failed.
func TestWebhookHandler_intermediateEventsAcknowledged(t *testing.T) {
	testCases := []struct {
		name   string
		path   string
		header string
		secret string
		body   string
	}{
		{name: "card intent created", path: "/webhooks/card", header: "X-Webhook-Signature", secret: "whsec_card", body: `{"type":"payment_intent.created","data":{"object":{"id":"pi_123"}}}`},
		{name: "crypto charge created", path: "/webhooks/crypto", header: "X-CC-Webhook-Signature", secret: "whsec_crypto", body: `{"event":{"type":"charge:created","data":{"code":"CH-123"}}}`},
		{name: "crypto charge pending", path: "/webhooks/crypto", header: "X-CC-Webhook-Signature", secret: "whsec_crypto", body: `{"event":{"type":"charge:pending","data":{"code":"CH-123"}}}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockService := &MockPaymentUseCase{}
			router := newWebhookRouter(mockService)

			body := []byte(tc.body)
			req := httptest.NewRequest("POST", tc.path, bytes.NewReader(body))
			req.Header.Set(tc.header, payment.SignBody(tc.secret, body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"received":true}`, w.Body.String())
			mockService.AssertNotCalled(t, "ConfirmPayment", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestWebhookHandler_crypto_success(t *testing.T) {
	mockService := &MockPaymentUseCase{}
	router := newWebhookRouter(mockService)

	mockService.On("ConfirmPayment", mock.Anything, "CH-123", true).Return(nil).Once()

	body := []byte(`{"event":{"type":"charge:confirmed","data":{"code":"CH-123"}}}`)
	req := httptest.NewRequest("POST", "/webhooks/crypto", bytes.NewReader(body))
	req.Header.Set("X-CC-Webhook-Signature", payment.SignBody("whsec_crypto", body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestWebhookHandler_crypto_wrongSecret(t *testing.T) {
	mockService := &MockPaymentUseCase{}
	router := newWebhookRouter(mockService)

	body := []byte(`{"event":{"type":"charge:confirmed","data":{"code":"CH-123"}}}`)
	req := httptest.NewRequest("POST", "/webhooks/crypto", bytes.NewReader(body))
	req.Header.Set("X-CC-Webhook-Signature", payment.SignBody("whsec_card", body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "ConfirmPayment", mock.Anything, mock.Anything, mock.Anything)
}
