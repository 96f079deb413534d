package main

import (
	_ "github.com/joho/godotenv/autoload" // Load .env file automatically

	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chorebot-api/api/routes"
	"chorebot-api/internal/billing"
	"chorebot-api/internal/chatbot"
	"chorebot-api/internal/common"
	"chorebot-api/internal/config"
	"chorebot-api/internal/database"
	"chorebot-api/internal/events"
	"chorebot-api/internal/family"
	"chorebot-api/internal/photocheck"
	"chorebot-api/internal/scheduler"
	"chorebot-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	// Initialize logger
	logger := logger.New()
	defer logger.Sync()

	// Get the underlying zap logger for services
	zapLogger := logger.Desugared()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		logger.Fatalw("Failed to connect to database", "error", err)
	}

	// Run family module migrations
	if err := family.RunMigrations(db); err != nil {
		logger.Fatalw("Failed to run family migrations", "error", err)
	}

	// Initialize event bus
	eventBus := events.NewEventBus(zapLogger)

	clock := common.NewRealClock()

	// Photo-date validator
	photoChecker, err := photocheck.NewValidator(cfg.PhotoCheck.Timezone, clock)
	if err != nil {
		logger.Fatalw("Failed to initialize photo validator", "error", err)
	}

	// Family service on top of the durable stores
	familyService := family.NewService(
		family.NewGormUserRepository(db, zapLogger),
		family.NewGormInviteRepository(db, zapLogger),
		family.NewFlowStore(),
		photoChecker, eventBus, zapLogger)

	// Telegram transport + chatbot service
	provider, err := chatbot.NewTelegramProvider(cfg.Chatbot, zapLogger)
	if err != nil {
		logger.Fatalw("Failed to initialize telegram provider", "error", err)
	}
	chatbotService, err := chatbot.NewChatbotService(eventBus, zapLogger, familyService, provider, cfg.Chatbot)
	if err != nil {
		logger.Fatalw("Failed to initialize chatbot service", "error", err)
	}

	// Billing pipeline (optional)
	var billingService billing.Service
	var billingScheduler *scheduler.Scheduler
	if cfg.Billing.Enabled {
		googleClients, err := billing.NewGoogleClients(context.Background(), cfg.Billing, zapLogger)
		if err != nil {
			logger.Fatalw("Failed to initialize Google API clients", "error", err)
		}
		billingService = billing.NewService(
			googleClients, googleClients, googleClients,
			chatbotService, eventBus, clock, cfg.Billing, zapLogger)

		billingScheduler = scheduler.New(cfg.Billing.Cron, billingService, zapLogger)
		if err := billingScheduler.Start(); err != nil {
			logger.Fatalw("Failed to start billing schedule", "error", err)
		}
	} else {
		logger.Infow("Billing disabled")
	}

	// Setup Gin router
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	routes.SetupRoutes(router, db, logger, chatbotService, billingService)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Infow("Starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalw("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infow("Shutting down server...")

	if billingScheduler != nil {
		billingScheduler.Stop()
	}

	if err := eventBus.Close(); err != nil {
		logger.Errorw("Failed to close event bus", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalw("Server forced to shutdown", "error", err)
	}

	logger.Infow("Server exited")
}
