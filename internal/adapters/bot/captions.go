package bot

import (
	"fmt"
	"strings"

	"vk-concert-bot/internal/domain"
)

// Тексты ответов бота.
const (
	captionStart = "Привет! 👋 Я бот сообщества.\n\n" +
		"Подскажу афишу концертов, расскажу про розыгрыши и приму заявку на саундчек.\n" +
		"Выбирайте действие на клавиатуре ниже."
	captionGoodbye = "Жаль, что уходите. Возвращайтесь — афиша и розыгрыши никуда не денутся! 👋"

	captionChooseAction    = "Выберите действие на клавиатуре 👇"
	captionUnauthorized    = "Эта команда доступна только администраторам сообщества."
	captionKeyboardUpdated = "Клавиатура обновлена."

	captionPosterMenu     = "Афиша 🎸\nВыберите день или всю неделю."
	captionNoConcertsDay  = "В этот день концертов нет 😔"
	captionNoConcertsWeek = "На этой неделе концертов нет 😔"

	captionSubscriptionsMenu = "Подписки 🔔\nНажмите на тему, чтобы включить или отключить её."
	captionSubscribed        = "Подписка включена ✅"
	captionUnsubscribed      = "Подписка отключена ❌"

	captionNoDrawings   = "Сейчас активных розыгрышей нет."
	captionDrawingsMenu = "Розыгрыши 🎁\nВыберите розыгрыш, чтобы узнать подробности."

	captionSoundcheckAsk = "Напишите заявку на саундчек одним сообщением: " +
		"название группы, состав и желаемую дату."
	captionSoundcheckSent  = "Заявка отправлена, мы свяжемся с вами! 🤘"
	captionSoundcheckEmpty = "Заявка пустая. Напишите текст одним сообщением."

	captionAdminMenu = "Админка 🔧\nВыберите раздел."

	captionDrawingAskName = "Введите название розыгрыша (до 40 символов)."
	captionNameTooLong    = "Название длиннее 40 символов. Попробуйте ещё раз."
	captionNameEmpty      = "Название пустое. Попробуйте ещё раз."
	captionDrawingAskPost = "Пришлите ссылку на пост розыгрыша, например vk.com/wall-123_456."
	captionInvalidPost    = "Не удалось распознать ссылку на пост. Попробуйте ещё раз."
	captionDrawingCreated = "Розыгрыш создан ✅"
	captionDrawingRenamed = "Название обновлено ✅"
	captionDrawingRepost  = "Пост обновлён ✅"
	captionDrawingDeleted = "Розыгрыш завершён."

	captionBroadcastAsk   = "Введите текст рассылки одним сообщением."
	captionBroadcastEmpty = "Текст рассылки пустой. Попробуйте ещё раз."
	captionBroadcastDone  = "Рассылка поставлена в очередь."
)

func captionGreeting(firstName string) string {
	if firstName == "" {
		return captionStart
	}
	return fmt.Sprintf("Привет, %s! 👋", firstName) + strings.TrimPrefix(captionStart, "Привет! 👋")
}

func captionDrawing(d domain.Drawing) string {
	lines := []string{
		"🎁 " + d.Name,
		"",
		"Участвуйте в посте по кнопке ниже.",
		fmt.Sprintf("Итоги — %s.", d.ExpiresAt.Format("02.01.2006")),
	}
	return strings.Join(lines, "\n")
}

func captionAdminDrawing(d domain.Drawing) string {
	status := "активен"
	if !d.Active {
		status = "завершён"
	}
	lines := []string{
		"🎁 " + d.Name,
		"Пост: " + d.PostID,
		"Статус: " + status,
		fmt.Sprintf("Истекает: %s", d.ExpiresAt.Format("02.01.2006")),
	}
	return strings.Join(lines, "\n")
}

func captionDrawingConfirm(name, postID string) string {
	lines := []string{
		"Проверьте розыгрыш:",
		"Название: " + name,
		"Пост: " + postID,
		"",
		"Создать?",
	}
	return strings.Join(lines, "\n")
}

func captionBroadcastConfirm(text string, recipients int) string {
	lines := []string{
		fmt.Sprintf("Получателей: %d.", recipients),
		"",
		text,
		"",
		"Отправить?",
	}
	return strings.Join(lines, "\n")
}

func captionStats(stats []domain.ClickStat) string {
	if len(stats) == 0 {
		return "За выбранный период нажатий не было."
	}
	var b strings.Builder
	b.WriteString("Нажатия за последние 7 дней:\n")
	currentDay := ""
	for _, stat := range stats {
		day := stat.Day.Format("02.01")
		if day != currentDay {
			currentDay = day
			b.WriteString("\n" + day + "\n")
		}
		b.WriteString(fmt.Sprintf("• %s — %d\n", stat.Command, stat.Count))
	}
	return strings.TrimSpace(b.String())
}
