package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jetstreamair/jetshare/internal/domain"
	"github.com/jetstreamair/jetshare/internal/service/payments"
)

type PaymentHandler struct {
	service payments.PaymentUseCase
}

type initiatePaymentRequest struct {
	Method      string `json:"method"`
	AmountCents int64  `json:"amount_cents"`
}

func NewPaymentHandler(service payments.PaymentUseCase) *PaymentHandler {
	return &PaymentHandler{service: service}
}

func (h *PaymentHandler) Register(router *gin.RouterGroup) {
	router.POST("/:id/pay", h.pay)
}

func (h *PaymentHandler) pay(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req initiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, domain.E(domain.KindValidation, "malformed request body"))
		return
	}

	handle, err := h.service.InitiatePayment(c.Request.Context(), payments.InitiatePaymentInput{
		OfferID:     c.Param("id"),
		PayerID:     userID,
		Method:      domain.PaymentMethod(req.Method),
		AmountCents: req.AmountCents,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, handle)
}
