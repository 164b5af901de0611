package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"techhive/internal/application/webhook"
	"techhive/internal/infrastructure/gateway/paystack"
	"techhive/internal/shared/config"
	"techhive/internal/shared/constants"
	"techhive/internal/shared/logger"
	"techhive/internal/shared/utils"
)

// WebhookHandler receives Paystack deliveries. Signature verification happens
// here against the raw body; everything after that is the reconciler's job.
type WebhookHandler struct {
	reconciler  *webhook.Reconciler
	paystackCfg config.PaystackConfig
	logger      logger.Interface
}

func NewWebhookHandler(
	reconciler *webhook.Reconciler,
	paystackCfg config.PaystackConfig,
	logger logger.Interface,
) *WebhookHandler {
	return &WebhookHandler{
		reconciler:  reconciler,
		paystackCfg: paystackCfg,
		logger:      logger,
	}
}

// HandlePaystack answers 200 for everything the provider should not resend:
// processed events, duplicates, unknown types and business rejections. Only
// infrastructure failures return a 5xx so the provider retries later.
func (h *WebhookHandler) HandlePaystack(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		h.logger.Warnw("failed to read webhook body", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "failed to read request body")
		return
	}

	signature := c.GetHeader(constants.HeaderPaystackSignature)
	if !paystack.VerifySignature(h.paystackCfg.SecretKey, body, signature) {
		h.logger.Warnw("webhook signature verification failed", "client_ip", c.ClientIP())
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid signature")
		return
	}

	if err := h.reconciler.Process(c.Request.Context(), body); err != nil {
		if errors.Is(err, webhook.ErrMalformedPayload) {
			utils.ErrorResponse(c, http.StatusBadRequest, "malformed payload")
			return
		}
		h.logger.Errorw("webhook processing failed", "error", err)
		utils.ErrorResponse(c, http.StatusInternalServerError, "event processing failed")
		return
	}

	utils.OKResponse(c, nil)
}
