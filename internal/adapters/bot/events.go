package bot

import "encoding/json"

// Типы событий Callback API.
const (
	EventConfirmation      = "confirmation"
	EventMessageNew        = "message_new"
	EventGroupJoin         = "group_join"
	EventGroupLeave        = "group_leave"
	EventGroupOfficersEdit = "group_officers_edit"
	EventWallPostNew       = "wall_post_new"
	EventWallRepost        = "wall_repost"
)

// CallbackEvent — конверт события Callback API.
type CallbackEvent struct {
	Type    string          `json:"type"`
	GroupID int64           `json:"group_id"`
	Secret  string          `json:"secret"`
	Object  json.RawMessage `json:"object"`
}

// MessageObject — объект события message_new.
type MessageObject struct {
	Message    Message    `json:"message"`
	ClientInfo ClientInfo `json:"client_info"`
}

// Message — входящее сообщение пользователя.
type Message struct {
	ID      int64  `json:"id"`
	Date    int64  `json:"date"`
	FromID  int64  `json:"from_id"`
	PeerID  int64  `json:"peer_id"`
	Text    string `json:"text"`
	Payload string `json:"payload"`
}

// ClientInfo описывает возможности клиента пользователя.
type ClientInfo struct {
	ButtonActions  []string `json:"button_actions"`
	Keyboard       bool     `json:"keyboard"`
	InlineKeyboard bool     `json:"inline_keyboard"`
}

// GroupMemberObject — объект событий group_join и group_leave.
type GroupMemberObject struct {
	UserID   int64  `json:"user_id"`
	JoinType string `json:"join_type,omitempty"`
	Self     int    `json:"self,omitempty"`
}

// WallPostObject — объект событий wall_post_new и wall_repost.
type WallPostObject struct {
	ID      int64  `json:"id"`
	OwnerID int64  `json:"owner_id"`
	FromID  int64  `json:"from_id"`
	Text    string `json:"text"`
}
