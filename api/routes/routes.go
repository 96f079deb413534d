package routes

import (
	"chorebot-api/api/handlers"
	"chorebot-api/api/middleware"
	"chorebot-api/internal/billing"
	"chorebot-api/internal/chatbot"
	"chorebot-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRoutes registers the webhook and health endpoints. billingService
// may be nil when billing is disabled; the billing webhook is then not
// mounted.
func SetupRoutes(router *gin.Engine, db *gorm.DB, logger *logger.Logger,
	chatbotService chatbot.ChatbotService, billingService billing.Service) {

	router.Use(middleware.RequestLogging(logger))
	router.Use(gin.Recovery())

	healthHandler := handlers.NewHealthHandler(db, logger)
	webhookHandler := handlers.NewWebhookHandler(chatbotService, logger)

	router.GET("/health", healthHandler.Check)
	router.POST("/webhook", webhookHandler.HandleTelegramWebhook)

	if billingService != nil {
		billingHandler := handlers.NewBillingWebhookHandler(billingService, logger)
		router.POST("/billing/webhook", billingHandler.HandleBillingWebhook)
	}
}
