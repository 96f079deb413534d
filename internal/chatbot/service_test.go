package chatbot

import (
	"fmt"
	"strings"
	"testing"

	"chorebot-api/internal/common"
	"chorebot-api/internal/config"
	"chorebot-api/internal/events"
	"chorebot-api/internal/family"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubChecker replaces the EXIF validator with a fixed verdict.
type stubChecker struct {
	fromToday bool
	info      string
}

func (c *stubChecker) FromToday(photo []byte) (bool, string) {
	return c.fromToday, c.info
}

type harness struct {
	service  ChatbotService
	family   family.Service
	provider *MockTelegramProvider
}

func newHarness(t *testing.T, checker family.PhotoChecker) *harness {
	t.Helper()

	if checker == nil {
		checker = &stubChecker{fromToday: true, info: "2026-08-28 10:00:00"}
	}

	logger := zap.NewNop()
	bus := events.NewEventBus(logger)
	famSvc := family.NewService(
		family.NewMockUserRepository(),
		family.NewMockInviteRepository(),
		family.NewFlowStore(),
		checker, bus, logger)

	provider := NewMockTelegramProvider()
	service, err := NewChatbotService(bus, logger, famSvc, provider, config.ChatbotConfig{})
	require.NoError(t, err)

	return &harness{service: service, family: famSvc, provider: provider}
}

func textUpdate(userID int64, text string) []byte {
	return []byte(fmt.Sprintf(`{
		"update_id": 1,
		"message": {
			"message_id": 2,
			"from": {"id": %d},
			"chat": {"id": %d, "type": "private"},
			"text": %q
		}
	}`, userID, userID, text))
}

func commandUpdate(userID int64, command string) []byte {
	text := "/" + command
	return []byte(fmt.Sprintf(`{
		"update_id": 1,
		"message": {
			"message_id": 2,
			"from": {"id": %d},
			"chat": {"id": %d, "type": "private"},
			"text": %q,
			"entities": [{"type": "bot_command", "offset": 0, "length": %d}]
		}
	}`, userID, userID, text, len(text)))
}

func photoUpdate(userID int64, fileID string) []byte {
	return []byte(fmt.Sprintf(`{
		"update_id": 1,
		"message": {
			"message_id": 2,
			"from": {"id": %d},
			"chat": {"id": %d, "type": "private"},
			"photo": [{"file_id": %q, "width": 1280, "height": 1280}]
		}
	}`, userID, userID, fileID))
}

// sentTo returns all messages recorded for the given chat.
func sentTo(p *MockTelegramProvider, chatID int64) []SentMessage {
	var out []SentMessage
	for _, msg := range p.Sent() {
		if msg.ChatID == chatID {
			out = append(out, msg)
		}
	}
	return out
}

func TestHandleWebhook_StartShowsRolePicker(t *testing.T) {
	h := newHarness(t, nil)

	require.NoError(t, h.service.HandleWebhook(commandUpdate(100, "start")))

	last, ok := h.provider.LastSent()
	require.True(t, ok)
	assert.EqualValues(t, 100, last.ChatID)
	assert.Equal(t, textGreeting, last.Text)
	require.NotNil(t, last.Keyboard)
	require.Len(t, last.Keyboard.Keyboard, 1)
	assert.Len(t, last.Keyboard.Keyboard[0], 2)
}

func TestHandleWebhook_ParentRegistration(t *testing.T) {
	h := newHarness(t, nil)

	require.NoError(t, h.service.HandleWebhook(textUpdate(100, ButtonParentRole)))

	last, ok := h.provider.LastSent()
	require.True(t, ok)
	assert.Contains(t, last.Text, "інвайт-код")
	require.NotNil(t, last.Keyboard)
	assert.Len(t, last.Keyboard.Keyboard, 4, "parent menu has four rows")
}

func TestHandleWebhook_ChildRoleAsksForCode(t *testing.T) {
	h := newHarness(t, nil)

	require.NoError(t, h.service.HandleWebhook(textUpdate(200, ButtonChildRole)))

	last, ok := h.provider.LastSent()
	require.True(t, ok)
	assert.Equal(t, textAskInviteCode, last.Text)
}

func TestHandleWebhook_InviteRedemptionLinksAndNotifiesParent(t *testing.T) {
	h := newHarness(t, nil)

	code, err := h.family.RegisterParent(100)
	require.NoError(t, err)

	// Codes are matched case-insensitively.
	require.NoError(t, h.service.HandleWebhook(textUpdate(200, strings.ToLower(code))))

	childMsgs := sentTo(h.provider, 200)
	require.Len(t, childMsgs, 1)
	assert.Equal(t, textChildJoined, childMsgs[0].Text)

	parentMsgs := sentTo(h.provider, 100)
	require.Len(t, parentMsgs, 1)
	assert.Equal(t, textChildArrived, parentMsgs[0].Text)
}

func TestHandleWebhook_UnknownInviteCode(t *testing.T) {
	h := newHarness(t, nil)

	require.NoError(t, h.service.HandleWebhook(textUpdate(200, "ZZZZZZ")))

	last, ok := h.provider.LastSent()
	require.True(t, ok)
	assert.Equal(t, textInviteInvalid, last.Text)
}

func TestHandleWebhook_AwaitingNameBeatsInviteShape(t *testing.T) {
	h := newHarness(t, nil)

	code, err := h.family.RegisterParent(100)
	require.NoError(t, err)
	_, err = h.family.RedeemInvite(200, code)
	require.NoError(t, err)

	// A six-character alphanumeric reply while the bot waits for a name is
	// the name, not an invite code.
	require.NoError(t, h.service.HandleWebhook(textUpdate(200, "ABC123")))

	childMsgs := sentTo(h.provider, 200)
	require.NotEmpty(t, childMsgs)
	assert.Equal(t, textNameSaved, childMsgs[len(childMsgs)-1].Text)

	parentMsgs := sentTo(h.provider, 100)
	require.NotEmpty(t, parentMsgs)
	assert.Equal(t, textChildNamed("ABC123"), parentMsgs[len(parentMsgs)-1].Text)
}

func TestHandleWebhook_AddTaskSingleChildSkipsSelection(t *testing.T) {
	h := newHarness(t, nil)

	code, err := h.family.RegisterParent(100)
	require.NoError(t, err)
	_, err = h.family.RedeemInvite(200, code)
	require.NoError(t, err)

	require.NoError(t, h.service.HandleWebhook(textUpdate(100, ButtonAddTask)))

	msgs := sentTo(h.provider, 100)
	require.NotEmpty(t, msgs)
	last := msgs[len(msgs)-1]
	assert.Equal(t, textPickTask, last.Text)
	require.NotNil(t, last.Keyboard)
	assert.Len(t, last.Keyboard.Keyboard, len(family.TaskCatalog))
}

func TestHandleWebhook_AddTaskWithoutChildren(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.family.RegisterParent(100)
	require.NoError(t, err)

	require.NoError(t, h.service.HandleWebhook(textUpdate(100, ButtonAddTask)))

	last, ok := h.provider.LastSent()
	require.True(t, ok)
	assert.Equal(t, textNoChildren, last.Text)
}

func TestHandleWebhook_AssignTaskNotifiesChild(t *testing.T) {
	h := newHarness(t, nil)

	code, err := h.family.RegisterParent(100)
	require.NoError(t, err)
	_, err = h.family.RedeemInvite(200, code)
	require.NoError(t, err)
	_, err = h.family.StartAssignTask(100)
	require.NoError(t, err)

	label := family.TaskCatalog[0]
	require.NoError(t, h.service.HandleWebhook(textUpdate(100, label)))

	parentMsgs := sentTo(h.provider, 100)
	require.NotEmpty(t, parentMsgs)
	assert.Equal(t, textTaskAssigned(label), parentMsgs[len(parentMsgs)-1].Text)

	childMsgs := sentTo(h.provider, 200)
	require.NotEmpty(t, childMsgs)
	assert.Equal(t, textNewTaskForChild(label), childMsgs[len(childMsgs)-1].Text)
}

func TestHandleWebhook_RemoveChildFlow(t *testing.T) {
	h := newHarness(t, nil)

	code, err := h.family.RegisterParent(100)
	require.NoError(t, err)
	_, err = h.family.RedeemInvite(200, code)
	require.NoError(t, err)
	_, err = h.family.RedeemInvite(201, code)
	require.NoError(t, err)

	require.NoError(t, h.service.HandleWebhook(textUpdate(100, ButtonRemoveChild)))
	msgs := sentTo(h.provider, 100)
	require.NotEmpty(t, msgs)
	picker := msgs[len(msgs)-1]
	assert.Equal(t, textPickRemoval, picker.Text)
	require.NotNil(t, picker.Keyboard)
	require.Len(t, picker.Keyboard.Keyboard, 2)

	// An unknown label keeps the menu open.
	require.NoError(t, h.service.HandleWebhook(textUpdate(100, "хтось інший")))
	msgs = sentTo(h.provider, 100)
	assert.Equal(t, textPickFromList, msgs[len(msgs)-1].Text)

	// Picking a real label removes the child and tells both sides.
	label := picker.Keyboard.Keyboard[0][0].Text
	require.NoError(t, h.service.HandleWebhook(textUpdate(100, label)))

	msgs = sentTo(h.provider, 100)
	assert.Equal(t, textChildRemoved, msgs[len(msgs)-1].Text)

	removedID := common.UserID(200)
	if strings.Contains(label, "201") {
		removedID = 201
	}
	childMsgs := sentTo(h.provider, int64(removedID))
	require.NotEmpty(t, childMsgs)
	assert.Equal(t, textRemovedFromFamily, childMsgs[len(childMsgs)-1].Text)
}

func TestHandleWebhook_MenuButtonBeatsPendingFlow(t *testing.T) {
	h := newHarness(t, nil)

	code, err := h.family.RegisterParent(100)
	require.NoError(t, err)
	_, err = h.family.RedeemInvite(200, code)
	require.NoError(t, err)
	_, err = h.family.StartRemoveChild(100)
	require.NoError(t, err)

	// A menu button pressed mid-flow routes as the menu action, not as a
	// picker reply.
	require.NoError(t, h.service.HandleWebhook(textUpdate(100, ButtonHistory)))

	last, ok := h.provider.LastSent()
	require.True(t, ok)
	assert.Equal(t, textHistoryEmpty, last.Text)
}

func TestHandleWebhook_MyTasks(t *testing.T) {
	h := newHarness(t, nil)

	code, err := h.family.RegisterParent(100)
	require.NoError(t, err)
	_, err = h.family.RedeemInvite(200, code)
	require.NoError(t, err)
	_, err = h.family.StartAssignTask(100)
	require.NoError(t, err)
	_, err = h.family.AssignTask(100, family.TaskCatalog[0])
	require.NoError(t, err)

	require.NoError(t, h.service.HandleWebhook(textUpdate(200, ButtonMyTasks)))

	msgs := sentTo(h.provider, 200)
	require.NotEmpty(t, msgs)
	last := msgs[len(msgs)-1]
	assert.Contains(t, last.Text, textMyTasksHeader)
	assert.Contains(t, last.Text, family.TaskCatalog[0])
}

func TestHandleWebhook_PhotoVerdictReachesBothSides(t *testing.T) {
	h := newHarness(t, &stubChecker{fromToday: true, info: "2026-08-28 10:00:00"})

	code, err := h.family.RegisterParent(100)
	require.NoError(t, err)
	_, err = h.family.RedeemInvite(200, code)
	require.NoError(t, err)

	h.provider.SetFile("photo-1", []byte("jpeg-bytes"))
	require.NoError(t, h.service.HandleWebhook(photoUpdate(200, "photo-1")))

	childMsgs := sentTo(h.provider, 200)
	require.NotEmpty(t, childMsgs)
	assert.Contains(t, childMsgs[len(childMsgs)-1].Text, "✅")

	parentMsgs := sentTo(h.provider, 100)
	require.NotEmpty(t, parentMsgs)
	assert.Contains(t, parentMsgs[len(parentMsgs)-1].Text, "відправила фото")
}

func TestHandleWebhook_StalePhotoRejected(t *testing.T) {
	h := newHarness(t, &stubChecker{fromToday: false, info: "Фото зроблено: 2026-08-20 10:00:00"})

	code, err := h.family.RegisterParent(100)
	require.NoError(t, err)
	_, err = h.family.RedeemInvite(200, code)
	require.NoError(t, err)

	h.provider.SetFile("photo-2", []byte("jpeg-bytes"))
	require.NoError(t, h.service.HandleWebhook(photoUpdate(200, "photo-2")))

	childMsgs := sentTo(h.provider, 200)
	require.NotEmpty(t, childMsgs)
	assert.Contains(t, childMsgs[len(childMsgs)-1].Text, "НЕ сьогодні")
}

func TestHandleWebhook_UnroutableTextIgnored(t *testing.T) {
	h := newHarness(t, nil)

	require.NoError(t, h.service.HandleWebhook(textUpdate(300, "просто текст")))
	assert.Empty(t, h.provider.Sent())
}

func TestHandleWebhook_MalformedPayload(t *testing.T) {
	h := newHarness(t, nil)

	err := h.service.HandleWebhook([]byte("{broken"))
	assert.Error(t, err)
}
