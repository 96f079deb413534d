package chatbot

import (
	"encoding/json"
	"fmt"
	"time"

	"chorebot-api/internal/common"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// WebhookParser provides utilities for parsing Telegram webhook updates
type WebhookParser struct{}

// NewWebhookParser creates a new WebhookParser instance
func NewWebhookParser() *WebhookParser {
	return &WebhookParser{}
}

// ParseUpdate unmarshals webhook data into a Telegram Update struct
func (p *WebhookParser) ParseUpdate(updateData []byte) (*tgbotapi.Update, error) {
	if len(updateData) == 0 {
		return nil, fmt.Errorf("empty update data")
	}

	var update tgbotapi.Update
	if err := json.Unmarshal(updateData, &update); err != nil {
		return nil, WrapParsingError(err, "update data")
	}

	if update.UpdateID == 0 {
		return nil, fmt.Errorf("invalid update: missing update ID")
	}

	return &update, nil
}

// ExtractInbound normalizes a Telegram update into an Inbound message.
// Updates without a message (edits, channel posts) are not routable.
func (p *WebhookParser) ExtractInbound(update *tgbotapi.Update) (*Inbound, error) {
	if update == nil {
		return nil, fmt.Errorf("update is nil")
	}

	msg := update.Message
	if msg == nil {
		return nil, fmt.Errorf("update does not contain a message")
	}

	if msg.From == nil {
		return nil, fmt.Errorf("message does not contain sender information")
	}

	if msg.Chat == nil {
		return nil, fmt.Errorf("message does not contain chat information")
	}

	inbound := &Inbound{
		UserID: common.UserID(msg.From.ID),
		ChatID: msg.Chat.ID,
		Text:   msg.Text,
	}

	if msg.IsCommand() {
		inbound.Command = msg.Command()
	}

	if len(msg.Photo) > 0 {
		// Telegram sends every thumbnail size; the last entry is the largest.
		inbound.PhotoFileID = msg.Photo[len(msg.Photo)-1].FileID
	}

	return inbound, nil
}

// BuildCorrelationID generates a unique correlation ID for tracking
func (p *WebhookParser) BuildCorrelationID(update *tgbotapi.Update) string {
	if update == nil {
		return fmt.Sprintf("corr_%d", time.Now().UnixNano())
	}

	if update.Message != nil {
		return fmt.Sprintf("msg_%d_%d_%d", update.UpdateID, update.Message.MessageID, time.Now().Unix())
	}

	return fmt.Sprintf("upd_%d_%d", update.UpdateID, time.Now().Unix())
}
