package chatbot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// KeyboardBuilder assembles the bot's reply keyboards. All menus are
// one-button-per-row except the role picker.
type KeyboardBuilder struct{}

// NewKeyboardBuilder creates a new KeyboardBuilder instance
func NewKeyboardBuilder() *KeyboardBuilder {
	return &KeyboardBuilder{}
}

// RoleKeyboard offers the two roles side by side.
func (kb *KeyboardBuilder) RoleKeyboard() tgbotapi.ReplyKeyboardMarkup {
	markup := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonParentRole),
			tgbotapi.NewKeyboardButton(ButtonChildRole),
		),
	)
	markup.ResizeKeyboard = true
	return markup
}

// ParentMenu is the standing parent menu.
func (kb *KeyboardBuilder) ParentMenu() tgbotapi.ReplyKeyboardMarkup {
	return kb.OptionsKeyboard([]string{
		ButtonAddTask,
		ButtonHistory,
		ButtonAddChild,
		ButtonRemoveChild,
	})
}

// ChildMenu is the standing child menu.
func (kb *KeyboardBuilder) ChildMenu() tgbotapi.ReplyKeyboardMarkup {
	return kb.OptionsKeyboard([]string{ButtonMyTasks})
}

// OptionsKeyboard renders arbitrary labels one per row, preserving order.
func (kb *KeyboardBuilder) OptionsKeyboard(labels []string) tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(labels))
	for _, label := range labels {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(label)))
	}
	markup := tgbotapi.NewReplyKeyboard(rows...)
	markup.ResizeKeyboard = true
	return markup
}
