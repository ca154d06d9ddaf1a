package domain

import (
	"encoding/json"
	"strings"
)

// Команды кнопок и ожидающих состояний. Иерархия в имени — только для
// читаемости, диспетчеризация идёт по полному тегу.
const (
	CmdStart           = "start"
	CmdBack            = "back"
	CmdRefreshKeyboard = "refresh_keyboard"

	CmdPoster         = "poster"
	CmdPosterType     = "poster/type"
	CmdPosterTypeDay  = "poster/type/day"
	CmdPosterTypeWeek = "poster/type/week"

	CmdSubscriptions         = "subscriptions"
	CmdSubscribePoster       = "subscriptions/poster/subscribe"
	CmdSubscribeDrawings     = "subscriptions/drawings/subscribe"
	CmdSubscribeSoundcheck   = "subscriptions/soundcheck/subscribe"
	CmdWriteToSoundcheck     = "write_to_soundcheck"
	CmdWriteToSoundcheckText = "write_to_soundcheck/message"

	CmdDrawings       = "drawings"
	CmdDrawingsItem   = "drawings/drawing"
	CmdDrawingsCancel = "drawings/cancel"

	CmdAdmin = "admin"

	CmdAdminDrawings                = "admin/drawings"
	CmdAdminDrawingsAdd             = "admin/drawings/add"
	CmdAdminDrawingsAddName         = "admin/drawings/add/set_name"
	CmdAdminDrawingsAddNameText     = "admin/drawings/add/set_name/message"
	CmdAdminDrawingsAddPost         = "admin/drawings/add/set_post"
	CmdAdminDrawingsAddPostText     = "admin/drawings/add/set_post/message"
	CmdAdminDrawingsAddConfirm      = "admin/drawings/add/confirmation"
	CmdAdminDrawingsItem            = "admin/drawings/drawing"
	CmdAdminDrawingsEditName        = "admin/drawings/drawing/edit_name"
	CmdAdminDrawingsEditNameText    = "admin/drawings/drawing/edit_name/message"
	CmdAdminDrawingsEditPost        = "admin/drawings/drawing/edit_post"
	CmdAdminDrawingsEditPostText    = "admin/drawings/drawing/edit_post/message"
	CmdAdminDrawingsDelete          = "admin/drawings/drawing/delete"
	CmdAdminDrawingsDeleteConfirm   = "admin/drawings/drawing/delete/confirmation"
	CmdAdminBroadcast               = "admin/broadcast"
	CmdAdminBroadcastText           = "admin/broadcast/set_text/message"
	CmdAdminBroadcastConfirm        = "admin/broadcast/confirmation"
	CmdAdminStats                   = "admin/stats"
)

// Commands перечисляет все объявленные теги. Таблица действий обязана
// покрывать список целиком, это проверяется при старте.
var Commands = []string{
	CmdStart, CmdBack, CmdRefreshKeyboard,
	CmdPoster, CmdPosterType, CmdPosterTypeDay, CmdPosterTypeWeek,
	CmdSubscriptions, CmdSubscribePoster, CmdSubscribeDrawings, CmdSubscribeSoundcheck,
	CmdWriteToSoundcheck, CmdWriteToSoundcheckText,
	CmdDrawings, CmdDrawingsItem, CmdDrawingsCancel,
	CmdAdmin,
	CmdAdminDrawings, CmdAdminDrawingsAdd,
	CmdAdminDrawingsAddName, CmdAdminDrawingsAddNameText,
	CmdAdminDrawingsAddPost, CmdAdminDrawingsAddPostText,
	CmdAdminDrawingsAddConfirm,
	CmdAdminDrawingsItem,
	CmdAdminDrawingsEditName, CmdAdminDrawingsEditNameText,
	CmdAdminDrawingsEditPost, CmdAdminDrawingsEditPostText,
	CmdAdminDrawingsDelete, CmdAdminDrawingsDeleteConfirm,
	CmdAdminBroadcast, CmdAdminBroadcastText, CmdAdminBroadcastConfirm,
	CmdAdminStats,
}

// Payload — распознанная команда кнопки или ожидающее состояние диалога.
// Поля помимо Command заполняются только у соответствующих вариантов.
type Payload struct {
	Command   string `json:"command"`
	DayStart  int64  `json:"dayStart,omitempty"`
	WeekStart int64  `json:"weekStart,omitempty"`
	DrawingID int64  `json:"drawingId,omitempty"`
	Name      string `json:"name,omitempty"`
	PostID    string `json:"postId,omitempty"`
	Text      string `json:"text,omitempty"`
	To        string `json:"to,omitempty"`
}

// DecodePayload разбирает JSON кнопки. Битый JSON или пустая строка —
// это «кнопки не было», а не ошибка.
func DecodePayload(raw string) *Payload {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil
	}
	if p.Command == "" {
		return nil
	}
	return &p
}

// IsAdmin сообщает, относится ли команда к административному пространству.
// Кнопка «назад» с админским назначением тоже требует прав.
func (p Payload) IsAdmin() bool {
	if strings.HasPrefix(p.Command, "admin") {
		return true
	}
	return p.Command == CmdBack && strings.HasPrefix(p.To, "admin")
}

// Collapsed убирает высококардинальные поля перед записью аналитики:
// навигация по дням и неделям учитывается одной командой.
func (p Payload) Collapsed() Payload {
	switch p.Command {
	case CmdPosterTypeDay, CmdPosterTypeWeek:
		return Payload{Command: p.Command}
	default:
		return p
	}
}

// Equal сравнивает команды структурно.
func (p Payload) Equal(other Payload) bool {
	return p == other
}

// AnalyticsExempt перечисляет команды, не попадающие в аналитику нажатий.
func (p Payload) AnalyticsExempt() bool {
	switch p.Command {
	case CmdStart, CmdBack, CmdRefreshKeyboard:
		return true
	}
	if strings.HasPrefix(p.Command, "subscriptions") || strings.HasPrefix(p.Command, "write_to_soundcheck") {
		return true
	}
	if strings.HasPrefix(p.Command, "admin") {
		return true
	}
	return false
}
