package bot

import (
	"fmt"
	"time"

	"vk-concert-bot/internal/adapters/vk"
	"vk-concert-bot/internal/domain"
	"vk-concert-bot/internal/usecase/subscriptions"
)

func backButton(to string) vk.Button {
	return vk.NewButton("⬅️ Назад", vk.ColorSecondary, domain.Payload{Command: domain.CmdBack, To: to})
}

// defaultKeyboard — главное меню. Руководителям добавляется ряд админки.
func defaultKeyboard(isManager, inline bool) []byte {
	rows := [][]vk.Button{
		vk.Row(
			vk.NewButton("🎸 Афиша", vk.ColorPrimary, domain.Payload{Command: domain.CmdPoster}),
			vk.NewButton("🎁 Розыгрыши", vk.ColorPrimary, domain.Payload{Command: domain.CmdDrawings}),
		),
		vk.Row(
			vk.NewButton("🔔 Подписки", vk.ColorSecondary, domain.Payload{Command: domain.CmdSubscriptions}),
			vk.NewButton("🎤 Саундчек", vk.ColorSecondary, domain.Payload{Command: domain.CmdWriteToSoundcheck}),
		),
	}
	if isManager {
		rows = append(rows, vk.Row(
			vk.NewButton("🔧 Админка", vk.ColorNegative, domain.Payload{Command: domain.CmdAdmin}),
		))
	}
	return vk.Keyboard{Inline: inline, Buttons: rows}.Marshal()
}

var shortWeekdays = map[time.Weekday]string{
	time.Monday:    "Пн",
	time.Tuesday:   "Вт",
	time.Wednesday: "Ср",
	time.Thursday:  "Чт",
	time.Friday:    "Пт",
	time.Saturday:  "Сб",
	time.Sunday:    "Вс",
}

// posterKeyboard предлагает ближайшие семь дней и всю неделю.
func posterKeyboard(now time.Time, loc *time.Location, inline bool) []byte {
	local := now.In(loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	var rows [][]vk.Button
	var row []vk.Button
	for i := 0; i < 7; i++ {
		day := dayStart.Add(time.Duration(i) * 24 * time.Hour)
		label := fmt.Sprintf("%s %d", shortWeekdays[day.Weekday()], day.Day())
		switch i {
		case 0:
			label = "Сегодня"
		case 1:
			label = "Завтра"
		}
		row = append(row, vk.NewButton(label, vk.ColorPrimary, domain.Payload{
			Command:  domain.CmdPosterTypeDay,
			DayStart: day.UnixMilli(),
		}))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, vk.Row(vk.NewButton("📅 Вся неделя", vk.ColorSecondary, domain.Payload{
		Command:   domain.CmdPosterTypeWeek,
		WeekStart: dayStart.UnixMilli(),
	})))
	rows = append(rows, vk.Row(backButton("")))
	return vk.Keyboard{Inline: inline, Buttons: rows}.Marshal()
}

var subscriptionButtons = []struct {
	Command string
	Topic   string
	Label   string
}{
	{domain.CmdSubscribePoster, subscriptions.TopicPoster, "Афиша"},
	{domain.CmdSubscribeDrawings, subscriptions.TopicDrawings, "Розыгрыши"},
	{domain.CmdSubscribeSoundcheck, subscriptions.TopicSoundcheck, "Саундчеки"},
}

// subscriptionsKeyboard показывает темы с текущим состоянием подписки.
func subscriptionsKeyboard(user *domain.User, inline bool) []byte {
	var rows [][]vk.Button
	for _, sub := range subscriptionButtons {
		mark := "❌"
		color := vk.ColorSecondary
		if user.Subscribed(sub.Topic) {
			mark = "✅"
			color = vk.ColorPositive
		}
		rows = append(rows, vk.Row(vk.NewButton(
			fmt.Sprintf("%s %s", mark, sub.Label), color,
			domain.Payload{Command: sub.Command},
		)))
	}
	rows = append(rows, vk.Row(backButton("")))
	return vk.Keyboard{Inline: inline, Buttons: rows}.Marshal()
}

// drawingsKeyboard перечисляет активные розыгрыши.
func drawingsKeyboard(list []domain.Drawing, inline bool) []byte {
	var rows [][]vk.Button
	for _, d := range list {
		rows = append(rows, vk.Row(vk.NewButton(d.Name, vk.ColorPrimary, domain.Payload{
			Command:   domain.CmdDrawingsItem,
			DrawingID: d.ID,
		})))
	}
	rows = append(rows, vk.Row(backButton("")))
	return vk.Keyboard{Inline: inline, Buttons: rows}.Marshal()
}

func adminKeyboard(inline bool) []byte {
	rows := [][]vk.Button{
		vk.Row(
			vk.NewButton("🎁 Розыгрыши", vk.ColorPrimary, domain.Payload{Command: domain.CmdAdminDrawings}),
			vk.NewButton("📊 Статистика", vk.ColorPrimary, domain.Payload{Command: domain.CmdAdminStats}),
		),
		vk.Row(vk.NewButton("📣 Рассылка", vk.ColorSecondary, domain.Payload{Command: domain.CmdAdminBroadcast})),
		vk.Row(backButton("")),
	}
	return vk.Keyboard{Inline: inline, Buttons: rows}.Marshal()
}

func adminDrawingsKeyboard(list []domain.Drawing, inline bool) []byte {
	var rows [][]vk.Button
	for _, d := range list {
		rows = append(rows, vk.Row(vk.NewButton(d.Name, vk.ColorPrimary, domain.Payload{
			Command:   domain.CmdAdminDrawingsItem,
			DrawingID: d.ID,
		})))
	}
	rows = append(rows,
		vk.Row(vk.NewButton("➕ Новый розыгрыш", vk.ColorPositive, domain.Payload{Command: domain.CmdAdminDrawingsAdd})),
		vk.Row(backButton(domain.CmdAdmin)),
	)
	return vk.Keyboard{Inline: inline, Buttons: rows}.Marshal()
}

func adminDrawingKeyboard(id int64, inline bool) []byte {
	rows := [][]vk.Button{
		vk.Row(
			vk.NewButton("✏️ Название", vk.ColorSecondary, domain.Payload{Command: domain.CmdAdminDrawingsEditName, DrawingID: id}),
			vk.NewButton("📌 Пост", vk.ColorSecondary, domain.Payload{Command: domain.CmdAdminDrawingsEditPost, DrawingID: id}),
		),
		vk.Row(vk.NewButton("🗑 Завершить", vk.ColorNegative, domain.Payload{Command: domain.CmdAdminDrawingsDelete, DrawingID: id})),
		vk.Row(backButton(domain.CmdAdminDrawings)),
	}
	return vk.Keyboard{Inline: inline, Buttons: rows}.Marshal()
}

// confirmKeyboard — пара «подтвердить/назад» с готовой нагрузкой подтверждения.
func confirmKeyboard(confirm domain.Payload, backTo string, inline bool) []byte {
	rows := [][]vk.Button{
		vk.Row(vk.NewButton("✅ Подтвердить", vk.ColorPositive, confirm)),
		vk.Row(backButton(backTo)),
	}
	return vk.Keyboard{Inline: inline, Buttons: rows}.Marshal()
}
