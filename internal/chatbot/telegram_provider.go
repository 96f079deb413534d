package chatbot

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"chorebot-api/internal/config"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// telegramProvider implements the TelegramProvider interface using the telegram-bot-api library
type telegramProvider struct {
	bot    *tgbotapi.BotAPI
	logger *zap.Logger
	config config.ChatbotConfig
	client *http.Client
}

// NewTelegramProvider creates a new TelegramProvider instance
func NewTelegramProvider(config config.ChatbotConfig, logger *zap.Logger) (TelegramProvider, error) {
	if config.Token == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}

	bot, err := tgbotapi.NewBotAPI(config.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	// Validate bot by getting bot info
	_, err = bot.GetMe()
	if err != nil {
		return nil, fmt.Errorf("failed to validate bot token: %w", err)
	}

	logger.Info("Telegram bot initialized successfully", zap.String("username", bot.Self.UserName))

	return &telegramProvider{
		bot:    bot,
		logger: logger,
		config: config,
		client: &http.Client{Timeout: time.Duration(config.Timeout) * time.Second},
	}, nil
}

// SendMessage sends a plain text message to the specified chat
func (p *telegramProvider) SendMessage(chatID int64, text string) error {
	correlationID := fmt.Sprintf("msg_%d_%d", chatID, time.Now().Unix())

	p.logger.Debug("Sending message",
		zap.String("correlation_id", correlationID),
		zap.Int64("chat_id", chatID),
		zap.Int("text_length", len(text)))

	msg := tgbotapi.NewMessage(chatID, text)

	_, err := p.bot.Send(msg)
	if err != nil {
		p.logger.Error("Failed to send message",
			zap.String("correlation_id", correlationID),
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// SendMessageWithKeyboard sends a message with a reply keyboard
func (p *telegramProvider) SendMessageWithKeyboard(chatID int64, text string, keyboard tgbotapi.ReplyKeyboardMarkup) error {
	correlationID := fmt.Sprintf("kbd_%d_%d", chatID, time.Now().Unix())

	p.logger.Debug("Sending message with keyboard",
		zap.String("correlation_id", correlationID),
		zap.Int64("chat_id", chatID),
		zap.Int("text_length", len(text)),
		zap.Int("keyboard_rows", len(keyboard.Keyboard)))

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard

	_, err := p.bot.Send(msg)
	if err != nil {
		p.logger.Error("Failed to send message with keyboard",
			zap.String("correlation_id", correlationID),
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		return fmt.Errorf("failed to send message with keyboard: %w", err)
	}

	return nil
}

// DownloadFile fetches the raw bytes of a file uploaded to Telegram
func (p *telegramProvider) DownloadFile(fileID string) ([]byte, error) {
	p.logger.Debug("Downloading file", zap.String("file_id", fileID))

	url, err := p.bot.GetFileDirectURL(fileID)
	if err != nil {
		p.logger.Error("Failed to resolve file URL",
			zap.String("file_id", fileID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to resolve file URL: %w", err)
	}

	resp, err := p.client.Get(url)
	if err != nil {
		p.logger.Error("Failed to download file",
			zap.String("file_id", fileID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download file: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file body: %w", err)
	}

	p.logger.Debug("File downloaded successfully",
		zap.String("file_id", fileID),
		zap.Int("size", len(data)))

	return data, nil
}

// SetWebhook configures the webhook URL for receiving updates
func (p *telegramProvider) SetWebhook(webhookURL string) error {
	p.logger.Info("Setting webhook", zap.String("webhook_url", webhookURL))

	webhookConfig, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		p.logger.Error("Failed to create webhook config",
			zap.String("webhook_url", webhookURL),
			zap.Error(err))
		return fmt.Errorf("failed to create webhook config: %w", err)
	}

	_, err = p.bot.Request(webhookConfig)
	if err != nil {
		p.logger.Error("Failed to set webhook",
			zap.String("webhook_url", webhookURL),
			zap.Error(err))
		return fmt.Errorf("failed to set webhook: %w", err)
	}

	p.logger.Info("Webhook set successfully", zap.String("webhook_url", webhookURL))
	return nil
}

// DeleteWebhook removes the configured webhook
func (p *telegramProvider) DeleteWebhook() error {
	p.logger.Info("Deleting webhook")

	_, err := p.bot.Request(tgbotapi.DeleteWebhookConfig{})
	if err != nil {
		p.logger.Error("Failed to delete webhook", zap.Error(err))
		return fmt.Errorf("failed to delete webhook: %w", err)
	}

	p.logger.Info("Webhook deleted successfully")
	return nil
}
