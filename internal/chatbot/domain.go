package chatbot

import (
	"fmt"

	"chorebot-api/internal/common"
)

// Menu button labels. Reply-keyboard bots route on exact button text, so
// these double as routing constants.
const (
	ButtonParentRole  = "Я батько/мати"
	ButtonChildRole   = "Я дитина"
	ButtonAddTask     = "Додати задачу"
	ButtonHistory     = "Історія"
	ButtonAddChild    = "Додати дитину"
	ButtonRemoveChild = "Видалити дитину"
	ButtonMyTasks     = "Мої задачі"
)

// CommandStart is the only slash command the bot understands.
const CommandStart = "start"

// Inbound is a normalized incoming update: one sender, one text or photo.
type Inbound struct {
	UserID common.UserID
	ChatID int64
	Text   string
	// Command is set (without the slash) when the text is a bot command.
	Command string
	// PhotoFileID references the largest size of an attached photo.
	PhotoFileID string
}

// User-facing message texts, kept together so the dialog copy reads in one
// place.

const (
	textGreeting = "👋 Вас вітає GoalByGoal!\n\nОбери свою роль:"

	textAskInviteCode = "Введіть інвайт-код від батьків, щоб приєднатись до сімейної команди GoalByGoal! (6 символів):"

	textInviteInvalid  = "Інвайт-код невірний. Спробуйте ще раз:"
	textInviteOrphaned = "Помилка: інвайт-код неактуальний або батько не створений."

	textChildJoined  = "🎉 Ви успішно приєдналися до GoalByGoal! Введіть своє ім'я:"
	textNameSaved    = "Ім'я збережено!"
	textChildArrived = "👦👧 Дитина приєдналася до вашої сімʼї в GoalByGoal. Очікуємо її ім'я."

	textNoChildren   = "У вас немає підключених дітей."
	textPickTask     = "Оберіть задачу:"
	textPickChild    = "Оберіть дитину:"
	textPickRemoval  = "Оберіть дитину для видалення:"
	textPickFromList = "Оберіть дитину зі списку"

	textChildRemoved      = "Дитину видалено."
	textRemovedFromFamily = "Вас видалили з сім'ї GoalByGoal."

	textHistoryHeader = "📋 Історія задач:"
	textHistoryEmpty  = "Історія порожня."
	textMyTasksHeader = "📋 Ваші задачі:"
	textMyTasksEmpty  = "Задач поки немає."
)

func textParentWelcome(invite string) string {
	return fmt.Sprintf("👨‍👩‍👧‍👦 Ви — батько/мати у GoalByGoal!\n\n"+
		"Ваш інвайт-код для підключення дитини: %s\n"+
		"Передайте цей код дитині у Telegram або будь-яким зручним способом.\n\n"+
		"Далі оберіть дію ⬇️", invite)
}

func textNewInvite(invite string) string {
	return fmt.Sprintf("Новий інвайт-код для дитини: %s", invite)
}

func textChildNamed(name string) string {
	return fmt.Sprintf("Дитина тепер має ім'я: %s", name)
}

func textTaskAssigned(label string) string {
	return fmt.Sprintf("Задача '%s' додана та активована!", label)
}

func textNewTaskForChild(label string) string {
	return fmt.Sprintf("🆕 Нова задача в GoalByGoal: %s. Надішліть фото виконання.", label)
}

func textPhotoVerdict(fromToday bool, info string) string {
	if fromToday {
		return fmt.Sprintf("✅ Молодець! Фото зроблено сьогодні (%s). Завдання зараховано!", info)
	}
	return fmt.Sprintf("⚠️ Фото зроблено НЕ сьогодні! %s\nБудь ласка, надішли свіже фото.", info)
}

func textPhotoReport(fromToday bool, info string) string {
	return fmt.Sprintf("Дитина відправила фото виконання задачі у GoalByGoal.\n\nРезультат перевірки: %s",
		textPhotoVerdict(fromToday, info))
}
