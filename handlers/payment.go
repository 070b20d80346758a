package handlers

import (
	"io"
	"net/http"

	"reserva/services/payment"
	"reserva/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PaymentWebhookHandler receives gateway callbacks. The payload is untrusted:
// the signature is verified and application is idempotent, so redelivered or
// replayed events cannot double-apply.
type PaymentWebhookHandler struct {
	gateway payment.Gateway
	handler *payment.Handler
	logger  *zap.Logger
}

func NewPaymentWebhookHandler(gateway payment.Gateway, handler *payment.Handler, logger *zap.Logger) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{gateway: gateway, handler: handler, logger: logger}
}

func (h *PaymentWebhookHandler) Receive(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid webhook", "unreadable body")
		return
	}

	event, err := h.gateway.ParseWebhook(body, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("webhook rejected", zap.Error(err))
		utils.JSONError(c, http.StatusBadRequest, "invalid webhook", err.Error())
		return
	}

	if err := h.handler.OnPaymentEvent(c.Request.Context(), *event); err != nil {
		utils.JSONDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
