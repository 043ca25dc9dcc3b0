package handlers

import (
	"log/slog"
	"net/http"

	"esports-platform/internal/services"
	"esports-platform/models"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

// WebhookSecretHeader carries the secret shared with the payment provider.
const WebhookSecretHeader = "X-Webhook-Secret"

type PaymentHandler struct {
	payments *services.PaymentService
}

func NewPaymentHandler(payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// PaymentWebhook - POST /api/v1/webhooks/payment
func (h *PaymentHandler) PaymentWebhook(e *core.RequestEvent) error {
	var payload models.PaymentWebhook
	if err := e.BindBody(&payload); err != nil {
		slog.Warn("Malformed payment webhook", "error", err, "ip", e.RealIP())
		return apis.NewBadRequestError("Invalid webhook payload", nil)
	}

	receipt, err := h.payments.Reconcile(e.Request.Context(), e.Request.Header.Get(WebhookSecretHeader), payload)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, receipt)
}
