package chatbot

import (
	"errors"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var errUnknownFile = errors.New("unknown file id")

// SentMessage records one outbound message captured by the mock provider.
type SentMessage struct {
	ChatID   int64
	Text     string
	Keyboard *tgbotapi.ReplyKeyboardMarkup
}

// MockTelegramProvider provides a recording, in-memory implementation of
// TelegramProvider for testing.
type MockTelegramProvider struct {
	mu       sync.Mutex
	sent     []SentMessage
	files    map[string][]byte
	sendErr  error
	webhooks []string
}

// NewMockTelegramProvider creates a new MockTelegramProvider instance
func NewMockTelegramProvider() *MockTelegramProvider {
	return &MockTelegramProvider{files: make(map[string][]byte)}
}

// SetFile registers downloadable file content under a file ID
func (m *MockTelegramProvider) SetFile(fileID string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[fileID] = data
}

// SetSendError makes all send operations fail with the given error
func (m *MockTelegramProvider) SetSendError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendErr = err
}

// Sent returns all captured outbound messages in order
func (m *MockTelegramProvider) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

// LastSent returns the most recent captured message, if any
func (m *MockTelegramProvider) LastSent() (SentMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return SentMessage{}, false
	}
	return m.sent[len(m.sent)-1], true
}

// SendMessage records a plain outbound message
func (m *MockTelegramProvider) SendMessage(chatID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, SentMessage{ChatID: chatID, Text: text})
	return nil
}

// SendMessageWithKeyboard records an outbound message with its keyboard
func (m *MockTelegramProvider) SendMessageWithKeyboard(chatID int64, text string, keyboard tgbotapi.ReplyKeyboardMarkup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, SentMessage{ChatID: chatID, Text: text, Keyboard: &keyboard})
	return nil
}

// DownloadFile returns content registered via SetFile
func (m *MockTelegramProvider) DownloadFile(fileID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[fileID]
	if !ok {
		return nil, ParsingError{What: "file", Cause: errUnknownFile}
	}
	return data, nil
}

// SetWebhook records the webhook URL
func (m *MockTelegramProvider) SetWebhook(webhookURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.webhooks = append(m.webhooks, webhookURL)
	return nil
}

// DeleteWebhook is a no-op for the mock
func (m *MockTelegramProvider) DeleteWebhook() error {
	return nil
}
