package chatbot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUpdate_ValidMessage(t *testing.T) {
	parser := NewWebhookParser()

	data := []byte(`{
		"update_id": 42,
		"message": {
			"message_id": 7,
			"from": {"id": 111, "is_bot": false, "first_name": "Test"},
			"chat": {"id": 111, "type": "private"},
			"date": 1700000000,
			"text": "привіт"
		}
	}`)

	update, err := parser.ParseUpdate(data)
	require.NoError(t, err)
	assert.Equal(t, 42, update.UpdateID)
	assert.Equal(t, "привіт", update.Message.Text)
}

func TestParseUpdate_Invalid(t *testing.T) {
	parser := NewWebhookParser()

	_, err := parser.ParseUpdate(nil)
	assert.Error(t, err)

	_, err = parser.ParseUpdate([]byte("{not json"))
	assert.Error(t, err)

	_, err = parser.ParseUpdate([]byte(`{"message": {}}`))
	assert.Error(t, err, "missing update ID should be rejected")
}

func TestExtractInbound_Text(t *testing.T) {
	parser := NewWebhookParser()

	update, err := parser.ParseUpdate([]byte(`{
		"update_id": 1,
		"message": {
			"message_id": 2,
			"from": {"id": 555},
			"chat": {"id": 555, "type": "private"},
			"text": "Додати задачу"
		}
	}`))
	require.NoError(t, err)

	inbound, err := parser.ExtractInbound(update)
	require.NoError(t, err)
	assert.EqualValues(t, 555, inbound.UserID)
	assert.EqualValues(t, 555, inbound.ChatID)
	assert.Equal(t, "Додати задачу", inbound.Text)
	assert.Empty(t, inbound.Command)
	assert.Empty(t, inbound.PhotoFileID)
}

func TestExtractInbound_Command(t *testing.T) {
	parser := NewWebhookParser()

	update, err := parser.ParseUpdate([]byte(`{
		"update_id": 1,
		"message": {
			"message_id": 2,
			"from": {"id": 555},
			"chat": {"id": 555, "type": "private"},
			"text": "/start",
			"entities": [{"type": "bot_command", "offset": 0, "length": 6}]
		}
	}`))
	require.NoError(t, err)

	inbound, err := parser.ExtractInbound(update)
	require.NoError(t, err)
	assert.Equal(t, CommandStart, inbound.Command)
}

func TestExtractInbound_PicksLargestPhoto(t *testing.T) {
	parser := NewWebhookParser()

	update, err := parser.ParseUpdate([]byte(`{
		"update_id": 1,
		"message": {
			"message_id": 2,
			"from": {"id": 555},
			"chat": {"id": 555, "type": "private"},
			"photo": [
				{"file_id": "small", "width": 90, "height": 90},
				{"file_id": "medium", "width": 320, "height": 320},
				{"file_id": "large", "width": 1280, "height": 1280}
			]
		}
	}`))
	require.NoError(t, err)

	inbound, err := parser.ExtractInbound(update)
	require.NoError(t, err)
	assert.Equal(t, "large", inbound.PhotoFileID)
}

func TestExtractInbound_NonMessageUpdate(t *testing.T) {
	parser := NewWebhookParser()

	update, err := parser.ParseUpdate([]byte(`{"update_id": 1, "edited_message": {"message_id": 3}}`))
	require.NoError(t, err)

	_, err = parser.ExtractInbound(update)
	assert.Error(t, err)
}
