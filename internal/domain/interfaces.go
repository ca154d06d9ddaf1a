package domain

import (
	"context"
	"time"
)

// UserRepo управляет пользователями.
type UserRepo interface {
	GetByVKID(ctx context.Context, vkID int64) (*User, error)
	CreateUser(ctx context.Context, user *User) error
	SaveUser(ctx context.Context, user *User) error
	ListSubscribed(ctx context.Context, topic string) ([]User, error)
}

// ClickRepo управляет аналитикой нажатий.
type ClickRepo interface {
	ListRecent(ctx context.Context, vkID int64, since time.Time) ([]Click, error)
	Insert(ctx context.Context, vkID int64, payload Payload) error
	RollupDay(ctx context.Context, day time.Time) error
	PruneBefore(ctx context.Context, horizon time.Time) (int64, error)
	ListStats(ctx context.Context, from, to time.Time) ([]ClickStat, error)
}

// DrawingRepo управляет розыгрышами.
type DrawingRepo interface {
	ListActive(ctx context.Context) ([]Drawing, error)
	GetByID(ctx context.Context, id int64) (*Drawing, error)
	CreateDrawing(ctx context.Context, drawing *Drawing) error
	SaveDrawing(ctx context.Context, drawing *Drawing) error
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// OutgoingMessage описывает исходящее сообщение сообщества.
type OutgoingMessage struct {
	Text              string
	Keyboard          []byte
	Attachments       []string
	ForwardedMessages []int64
}

// Messenger отправляет сообщения пользователям. Разбиение на пачки и
// соблюдение лимитов API — забота реализации.
type Messenger interface {
	Send(ctx context.Context, peerIDs []int64, msg OutgoingMessage) error
}

// ManagerSource возвращает актуальный список руководителей сообщества.
type ManagerSource interface {
	ManagerIDs(ctx context.Context) ([]int64, error)
}

// ConcertSource отдаёт события афиши за интервал.
type ConcertSource interface {
	ConcertsBetween(ctx context.Context, from, to time.Time) ([]Concert, error)
}
