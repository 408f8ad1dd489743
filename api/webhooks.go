package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jetstreamair/jetshare/internal/domain"
	"github.com/jetstreamair/jetshare/internal/payment"
	"github.com/jetstreamair/jetshare/internal/service/payments"
)

const (
	cardSignatureHeader   = "X-Webhook-Signature"
	cryptoSignatureHeader = "X-CC-Webhook-Signature"
)

// WebhookHandler is the inbound edge for asynchronous provider confirmations.
// It verifies authenticity first and only then touches offer state.
type WebhookHandler struct {
	card    payment.Gateway
	crypto  payment.Gateway
	service payments.PaymentUseCase
}

func NewWebhookHandler(card, crypto payment.Gateway, service payments.PaymentUseCase) *WebhookHandler {
	return &WebhookHandler{card: card, crypto: crypto, service: service}
}

func (h *WebhookHandler) Register(router *gin.RouterGroup) {
	router.POST("/card", func(c *gin.Context) { h.handle(c, h.card, cardSignatureHeader) })
	router.POST("/crypto", func(c *gin.Context) { h.handle(c, h.crypto, cryptoSignatureHeader) })
}

func (h *WebhookHandler) handle(c *gin.Context, gateway payment.Gateway, signatureHeader string) {
	// Signature is computed over the raw body, so read it before any binding.
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		writeError(c, domain.E(domain.KindValidation, "unreadable request body"))
		return
	}

	if err := gateway.VerifySignature(c.GetHeader(signatureHeader), body); err != nil {
		// A 400 here matters: the provider must not mistake a forged
		// payload for a delivered one.
		writeError(c, err)
		return
	}

	event, err := gateway.ParseEvent(body)
	if err != nil {
		writeError(c, err)
		return
	}
	if event == nil {
		// Intermediate lifecycle notification: acknowledge and drop.
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	if err := h.service.ConfirmPayment(c.Request.Context(), event.ProviderRef, event.Succeeded); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
