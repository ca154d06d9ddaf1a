package domain

import "time"

// User описывает пользователя сообщества ВКонтакте.
type User struct {
	ID              int64
	VKID            int64
	FirstName       string
	LastName        string
	Sex             int
	BDate           string
	LastMessageDate int64
	State           *Payload
	Subscriptions   []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Subscribed сообщает, подписан ли пользователь на тему.
func (u User) Subscribed(topic string) bool {
	for _, s := range u.Subscriptions {
		if s == topic {
			return true
		}
	}
	return false
}

// Subscribe добавляет тему без дублей.
func (u *User) Subscribe(topic string) {
	if u.Subscribed(topic) {
		return
	}
	u.Subscriptions = append(u.Subscriptions, topic)
}

// Unsubscribe удаляет тему из подписок.
func (u *User) Unsubscribe(topic string) {
	out := u.Subscriptions[:0]
	for _, s := range u.Subscriptions {
		if s != topic {
			out = append(out, s)
		}
	}
	u.Subscriptions = out
}

// Click фиксирует нажатие кнопки пользователем.
type Click struct {
	ID        int64
	VKID      int64
	Payload   Payload
	CreatedAt time.Time
}

// ClickStat — суточный агрегат нажатий по команде.
type ClickStat struct {
	Day     time.Time
	Command string
	Count   int64
}

// Drawing описывает розыгрыш сообщества.
type Drawing struct {
	ID        int64
	Name      string
	PostID    string
	Active    bool
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Concert — событие афиши из календаря. В БД не сохраняется.
type Concert struct {
	Title    string
	Place    string
	StartsAt time.Time
	Price    string
	URL      string
}
