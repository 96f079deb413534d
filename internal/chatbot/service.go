package chatbot

import (
	"errors"
	"fmt"
	"strings"

	"chorebot-api/internal/common"
	"chorebot-api/internal/config"
	"chorebot-api/internal/events"
	"chorebot-api/internal/family"

	"go.uber.org/zap"
)

// ChatbotService defines the interface for chatbot operations
type ChatbotService interface {
	SendMessage(chatID int64, text string) error
	HandleWebhook(webhookData []byte) error
}

// chatbotService implements the ChatbotService interface
type chatbotService struct {
	eventBus        events.EventBus
	logger          *zap.Logger
	provider        TelegramProvider
	family          family.Service
	parser          *WebhookParser
	keyboardBuilder *KeyboardBuilder
	router          *Router
	config          config.ChatbotConfig
}

// NewChatbotService creates a new instance of ChatbotService
func NewChatbotService(eventBus events.EventBus, logger *zap.Logger, familyService family.Service,
	provider TelegramProvider, cfg config.ChatbotConfig) (ChatbotService, error) {

	service := &chatbotService{
		eventBus:        eventBus,
		logger:          logger,
		provider:        provider,
		family:          familyService,
		parser:          NewWebhookParser(),
		keyboardBuilder: NewKeyboardBuilder(),
		config:          cfg,
	}
	service.router = NewRouter(service.routes(), logger)

	// Subscribe to relevant events
	service.setupEventSubscriptions()

	// Setup webhook if configured
	if cfg.WebhookURL != "" {
		if err := provider.SetWebhook(cfg.WebhookURL); err != nil {
			logger.Warn("Failed to set webhook", zap.Error(err))
		}
	}

	return service, nil
}

// routes declares the routing policy. Order matters: the /start command
// beats everything, exact button labels beat dialog-state replies, and a
// pending dialog state beats shape-based matches, so a child named "ABC123"
// is still a name while the bot is waiting for one. Task labels are checked
// before the invite-code shape so a six-character catalog label could never
// be mistaken for a code.
func (s *chatbotService) routes() []route {
	return []route{
		{"start_command", func(in *Inbound) bool { return in.Command == CommandStart }, s.handleStart},

		{"role_parent", matchText(ButtonParentRole), s.handleParentRole},
		{"role_child", matchText(ButtonChildRole), s.handleChildRole},

		{"menu_add_task", matchText(ButtonAddTask), s.handleAddTask},
		{"menu_history", matchText(ButtonHistory), s.handleHistory},
		{"menu_add_child", matchText(ButtonAddChild), s.handleAddChild},
		{"menu_remove_child", matchText(ButtonRemoveChild), s.handleRemoveChildMenu},
		{"menu_my_tasks", matchText(ButtonMyTasks), s.handleMyTasks},

		{"awaiting_name", s.matchAwaitingName, s.handleChildName},
		{"remove_child_pick", s.matchParentFlow(family.FlowRemoveChild), s.handleRemovalPick},
		{"select_child_pick", s.matchParentFlow(family.FlowSelectChild), s.handleChildPick},

		{"task_label", func(in *Inbound) bool { return family.IsCatalogTask(in.Text) }, s.handleTaskLabel},
		{"invite_code", func(in *Inbound) bool { return family.LooksLikeInviteCode(in.Text) }, s.handleInviteCode},

		{"photo", func(in *Inbound) bool { return in.PhotoFileID != "" }, s.handlePhoto},
	}
}

func matchText(label string) func(*Inbound) bool {
	return func(in *Inbound) bool { return in.Text == label }
}

func (s *chatbotService) matchAwaitingName(in *Inbound) bool {
	return strings.TrimSpace(in.Text) != "" && s.family.Flows().AwaitingName(in.UserID)
}

func (s *chatbotService) matchParentFlow(action family.FlowAction) func(*Inbound) bool {
	return func(in *Inbound) bool {
		if in.Text == "" {
			return false
		}
		flow, ok := s.family.Flows().ParentFlow(in.UserID)
		return ok && flow.Action == action
	}
}

// setupEventSubscriptions wires the notification fan-out: family and billing
// events become outbound Telegram messages here.
func (s *chatbotService) setupEventSubscriptions() {
	subscriptions := []struct {
		topic   string
		handler interface{}
	}{
		{events.TopicChildLinked, s.handleChildLinked},
		{events.TopicChildNamed, s.handleChildNamed},
		{events.TopicTaskAssigned, s.handleTaskAssigned},
		{events.TopicChildRemoved, s.handleChildRemoved},
		{events.TopicPhotoVerified, s.handlePhotoVerified},
		{events.TopicBillCreated, s.handleBillCreated},
	}

	for _, sub := range subscriptions {
		if err := s.eventBus.Subscribe(sub.topic, sub.handler); err != nil {
			s.logger.Error("Failed to subscribe to events",
				zap.String("topic", sub.topic),
				zap.Error(err))
		}
	}
}

// SendMessage sends a text message to the specified chat
func (s *chatbotService) SendMessage(chatID int64, text string) error {
	return s.provider.SendMessage(chatID, text)
}

// HandleWebhook processes incoming webhook data from Telegram
func (s *chatbotService) HandleWebhook(webhookData []byte) error {
	update, err := s.parser.ParseUpdate(webhookData)
	if err != nil {
		s.logger.Error("Failed to parse webhook update", zap.Error(err))
		return WrapParsingError(err, "telegram_update")
	}

	correlationID := s.parser.BuildCorrelationID(update)

	inbound, err := s.parser.ExtractInbound(update)
	if err != nil {
		// Edits, channel posts and other non-message updates are dropped.
		s.logger.Debug("Skipping non-message update",
			zap.String("correlation_id", correlationID),
			zap.Error(err))
		return nil
	}

	s.logger.Info("Processing update",
		zap.String("correlation_id", correlationID),
		zap.String("user_id", inbound.UserID.String()),
		zap.Bool("has_photo", inbound.PhotoFileID != ""))

	return s.router.Dispatch(inbound)
}

// handleStart greets the sender and offers the role picker.
func (s *chatbotService) handleStart(in *Inbound) error {
	return s.provider.SendMessageWithKeyboard(in.ChatID, textGreeting, s.keyboardBuilder.RoleKeyboard())
}

// handleParentRole registers the sender as a parent. Pressing the button
// again rotates the invite code but keeps the family intact; a child
// account cannot become a parent.
func (s *chatbotService) handleParentRole(in *Inbound) error {
	code, err := s.family.RegisterParent(in.UserID)
	if err != nil {
		if errors.Is(err, family.ErrRoleConflict) {
			s.logger.Warn("Child pressed parent role button",
				zap.String("user_id", in.UserID.String()))
			return nil
		}
		return err
	}
	return s.provider.SendMessageWithKeyboard(in.ChatID, textParentWelcome(code), s.keyboardBuilder.ParentMenu())
}

// handleChildRole asks for the invite code. The child account is only
// created once a valid code arrives.
func (s *chatbotService) handleChildRole(in *Inbound) error {
	return s.provider.SendMessage(in.ChatID, textAskInviteCode)
}

func (s *chatbotService) handleAddTask(in *Inbound) error {
	prompt, err := s.family.StartAssignTask(in.UserID)
	if err != nil {
		return s.logFamilyError("start assign task", in, err)
	}

	switch prompt.Stage {
	case family.AssignStageNoChildren:
		return s.provider.SendMessageWithKeyboard(in.ChatID, textNoChildren, s.keyboardBuilder.ParentMenu())
	case family.AssignStagePickTask:
		return s.provider.SendMessageWithKeyboard(in.ChatID, textPickTask, s.keyboardBuilder.OptionsKeyboard(prompt.Labels))
	default:
		return s.provider.SendMessageWithKeyboard(in.ChatID, textPickChild, s.keyboardBuilder.OptionsKeyboard(prompt.Labels))
	}
}

func (s *chatbotService) handleHistory(in *Inbound) error {
	entries, err := s.family.History(in.UserID)
	if err != nil {
		return s.logFamilyError("history", in, err)
	}
	if len(entries) == 0 {
		return s.provider.SendMessageWithKeyboard(in.ChatID, textHistoryEmpty, s.keyboardBuilder.ParentMenu())
	}

	lines := []string{textHistoryHeader}
	for _, e := range entries {
		state := "неактивна"
		if e.Active {
			state = "активна"
		}
		lines = append(lines, fmt.Sprintf("• %s — %s", e.Label, state))
	}
	return s.provider.SendMessageWithKeyboard(in.ChatID, strings.Join(lines, "\n"), s.keyboardBuilder.ParentMenu())
}

func (s *chatbotService) handleAddChild(in *Inbound) error {
	code, err := s.family.RotateInvite(in.UserID)
	if err != nil {
		return s.logFamilyError("rotate invite", in, err)
	}
	return s.provider.SendMessageWithKeyboard(in.ChatID, textNewInvite(code), s.keyboardBuilder.ParentMenu())
}

func (s *chatbotService) handleRemoveChildMenu(in *Inbound) error {
	labels, err := s.family.StartRemoveChild(in.UserID)
	if err != nil {
		if errors.Is(err, family.ErrNoChildren) {
			return s.provider.SendMessageWithKeyboard(in.ChatID, textNoChildren, s.keyboardBuilder.ParentMenu())
		}
		return s.logFamilyError("start remove child", in, err)
	}
	return s.provider.SendMessageWithKeyboard(in.ChatID, textPickRemoval, s.keyboardBuilder.OptionsKeyboard(labels))
}

func (s *chatbotService) handleMyTasks(in *Inbound) error {
	entries, err := s.family.MyTasks(in.UserID)
	if err != nil {
		return s.logFamilyError("my tasks", in, err)
	}
	if len(entries) == 0 {
		return s.provider.SendMessageWithKeyboard(in.ChatID, textMyTasksEmpty, s.keyboardBuilder.ChildMenu())
	}

	lines := []string{textMyTasksHeader}
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("• %s (%s)", e.Label, taskStatusLabel(e.Status)))
	}
	return s.provider.SendMessageWithKeyboard(in.ChatID, strings.Join(lines, "\n"), s.keyboardBuilder.ChildMenu())
}

func taskStatusLabel(status common.TaskStatus) string {
	if status == common.TaskStatusDone {
		return "виконана"
	}
	return "активна"
}

// handleChildName stores the display name a freshly linked child sent.
func (s *chatbotService) handleChildName(in *Inbound) error {
	name := strings.TrimSpace(in.Text)
	if _, err := s.family.SetChildName(in.UserID, name); err != nil {
		return s.logFamilyError("set child name", in, err)
	}
	return s.provider.SendMessageWithKeyboard(in.ChatID, textNameSaved, s.keyboardBuilder.ChildMenu())
}

// handleRemovalPick resolves the removal menu reply. An unknown label keeps
// the menu open and re-prompts.
func (s *chatbotService) handleRemovalPick(in *Inbound) error {
	if _, err := s.family.RemoveChild(in.UserID, in.Text); err != nil {
		if errors.Is(err, family.ErrUnknownSelection) {
			return s.provider.SendMessage(in.ChatID, textPickFromList)
		}
		return s.logFamilyError("remove child", in, err)
	}
	return s.provider.SendMessageWithKeyboard(in.ChatID, textChildRemoved, s.keyboardBuilder.ParentMenu())
}

// handleChildPick resolves the assignment child menu and offers the task
// catalog.
func (s *chatbotService) handleChildPick(in *Inbound) error {
	labels, err := s.family.SelectChild(in.UserID, in.Text)
	if err != nil {
		if errors.Is(err, family.ErrUnknownSelection) {
			return s.provider.SendMessage(in.ChatID, textPickFromList)
		}
		return s.logFamilyError("select child", in, err)
	}
	return s.provider.SendMessageWithKeyboard(in.ChatID, textPickTask, s.keyboardBuilder.OptionsKeyboard(labels))
}

func (s *chatbotService) handleTaskLabel(in *Inbound) error {
	if _, err := s.family.AssignTask(in.UserID, in.Text); err != nil {
		return s.logFamilyError("assign task", in, err)
	}
	return s.provider.SendMessageWithKeyboard(in.ChatID, textTaskAssigned(in.Text), s.keyboardBuilder.ParentMenu())
}

func (s *chatbotService) handleInviteCode(in *Inbound) error {
	_, err := s.family.RedeemInvite(in.UserID, in.Text)
	if err != nil {
		switch {
		case errors.Is(err, family.ErrInviteNotFound):
			return s.provider.SendMessage(in.ChatID, textInviteInvalid)
		case errors.Is(err, family.ErrInviteOrphaned):
			return s.provider.SendMessage(in.ChatID, textInviteOrphaned)
		case errors.Is(err, family.ErrRoleConflict):
			s.logger.Warn("Parent tried to redeem an invite",
				zap.String("user_id", in.UserID.String()))
			return nil
		}
		return s.logFamilyError("redeem invite", in, err)
	}
	return s.provider.SendMessage(in.ChatID, textChildJoined)
}

// handlePhoto downloads the proof photo and reports the date-check verdict
// back to the child. The parent is notified through the PhotoVerified event.
func (s *chatbotService) handlePhoto(in *Inbound) error {
	photo, err := s.provider.DownloadFile(in.PhotoFileID)
	if err != nil {
		s.logger.Error("Failed to download photo",
			zap.String("user_id", in.UserID.String()),
			zap.Error(err))
		return err
	}

	verdict, err := s.family.SubmitPhoto(in.UserID, photo)
	if err != nil {
		return s.logFamilyError("submit photo", in, err)
	}

	return s.provider.SendMessageWithKeyboard(in.ChatID,
		textPhotoVerdict(verdict.FromToday, verdict.Info), s.keyboardBuilder.ChildMenu())
}

// logFamilyError swallows expected routing mismatches (wrong role, no
// account) without replying and escalates storage errors.
func (s *chatbotService) logFamilyError(op string, in *Inbound, err error) error {
	switch {
	case errors.Is(err, family.ErrUserNotFound),
		errors.Is(err, family.ErrNotParent),
		errors.Is(err, family.ErrNotChild),
		errors.Is(err, family.ErrNoFlow),
		errors.Is(err, family.ErrUnknownTask):
		s.logger.Warn("Dropping mismatched request",
			zap.String("operation", op),
			zap.String("user_id", in.UserID.String()),
			zap.Error(err))
		return nil
	}

	s.logger.Error("Family operation failed",
		zap.String("operation", op),
		zap.String("user_id", in.UserID.String()),
		zap.Error(err))
	return err
}

// Private Telegram chats share the user's numeric ID as the chat ID, which
// is what lets event handlers message a user directly.

func (s *chatbotService) handleChildLinked(event events.ChildLinked) {
	err := s.provider.SendMessageWithKeyboard(int64(event.ParentID), textChildArrived, s.keyboardBuilder.ParentMenu())
	if err != nil {
		s.logger.Error("Failed to notify parent about new child",
			zap.String("correlation_id", event.CorrelationID),
			zap.Error(err))
	}
}

func (s *chatbotService) handleChildNamed(event events.ChildNamed) {
	if err := s.provider.SendMessage(int64(event.ParentID), textChildNamed(event.Name)); err != nil {
		s.logger.Error("Failed to notify parent about child name",
			zap.String("correlation_id", event.CorrelationID),
			zap.Error(err))
	}
}

func (s *chatbotService) handleTaskAssigned(event events.TaskAssigned) {
	err := s.provider.SendMessageWithKeyboard(int64(event.ChildID), textNewTaskForChild(event.Label), s.keyboardBuilder.ChildMenu())
	if err != nil {
		s.logger.Error("Failed to notify child about new task",
			zap.String("correlation_id", event.CorrelationID),
			zap.Error(err))
	}
}

func (s *chatbotService) handleChildRemoved(event events.ChildRemoved) {
	if err := s.provider.SendMessage(int64(event.ChildID), textRemovedFromFamily); err != nil {
		s.logger.Error("Failed to notify removed child",
			zap.String("correlation_id", event.CorrelationID),
			zap.Error(err))
	}
}

func (s *chatbotService) handlePhotoVerified(event events.PhotoVerified) {
	err := s.provider.SendMessageWithKeyboard(int64(event.ParentID),
		textPhotoReport(event.FromToday, event.Summary), s.keyboardBuilder.ParentMenu())
	if err != nil {
		s.logger.Error("Failed to report photo verdict to parent",
			zap.String("correlation_id", event.CorrelationID),
			zap.Error(err))
	}
}

func (s *chatbotService) handleBillCreated(event events.BillCreated) {
	if err := s.provider.SendMessage(event.ChatID, event.Message); err != nil {
		s.logger.Error("Failed to send bill notification",
			zap.String("correlation_id", event.CorrelationID),
			zap.Error(err))
	}
}
