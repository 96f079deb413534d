package handlers

import (
	"io"
	"net/http"

	"chorebot-api/internal/billing"
	"chorebot-api/internal/chatbot"
	"chorebot-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// BillingWebhookHandler handles Telegram webhook requests for the billing bot
type BillingWebhookHandler struct {
	billingService billing.Service
	parser         *chatbot.WebhookParser
	logger         *logger.Logger
}

// NewBillingWebhookHandler creates a new BillingWebhookHandler instance
func NewBillingWebhookHandler(billingService billing.Service, logger *logger.Logger) *BillingWebhookHandler {
	return &BillingWebhookHandler{
		billingService: billingService,
		parser:         chatbot.NewWebhookParser(),
		logger:         logger,
	}
}

// HandleBillingWebhook processes incoming billing-bot updates. Like the
// chore webhook, the response is always 200.
func (h *BillingWebhookHandler) HandleBillingWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.logger.Errorw("Failed to read billing webhook body", "error", err)
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	update, err := h.parser.ParseUpdate(body)
	if err != nil {
		h.logger.Errorw("Failed to parse billing webhook", "error", err)
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	inbound, err := h.parser.ExtractInbound(update)
	if err != nil || inbound.Text == "" {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	if err := h.billingService.HandleUpdate(c.Request.Context(), inbound.ChatID, inbound.Text); err != nil {
		h.logger.Errorw("Failed to process billing update",
			"chat_id", inbound.ChatID,
			"error", err)
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
