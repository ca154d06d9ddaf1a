package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"vk-concert-bot/internal/domain"
)

// Темы подписок сообщества.
const (
	TopicPoster     = "poster"
	TopicDrawings   = "drawings"
	TopicSoundcheck = "soundcheck"
)

// ErrUnknownTopic возвращается для нераспознанной темы подписки.
var ErrUnknownTopic = errors.New("неизвестная тема подписки")

var topics = map[string]struct{}{
	TopicPoster:     {},
	TopicDrawings:   {},
	TopicSoundcheck: {},
}

// Service управляет подписками и рассылками по ним.
type Service struct {
	users domain.UserRepo
	queue domain.BroadcastQueue
}

// NewService создаёт сервис подписок.
func NewService(users domain.UserRepo, queue domain.BroadcastQueue) *Service {
	return &Service{users: users, queue: queue}
}

// Toggle переключает подписку пользователя на тему. Возвращает true, если
// после переключения подписка включена. Запись пользователя сохраняет
// вызывающая сторона.
func Toggle(user *domain.User, topic string) (bool, error) {
	if _, ok := topics[topic]; !ok {
		return false, ErrUnknownTopic
	}
	if user.Subscribed(topic) {
		user.Unsubscribe(topic)
		return false, nil
	}
	user.Subscribe(topic)
	return true, nil
}

// Broadcast ставит рассылку подписчикам темы в очередь.
func (s *Service) Broadcast(ctx context.Context, topic, text string, keyboard []byte, cause domain.BroadcastCause) (int, error) {
	return s.broadcast(ctx, topic, text, keyboard, nil, cause)
}

// BroadcastWithAttachments ставит рассылку с вложениями.
func (s *Service) BroadcastWithAttachments(ctx context.Context, topic, text string, attachments []string, cause domain.BroadcastCause) (int, error) {
	return s.broadcast(ctx, topic, text, nil, attachments, cause)
}

func (s *Service) broadcast(ctx context.Context, topic, text string, keyboard []byte, attachments []string, cause domain.BroadcastCause) (int, error) {
	if _, ok := topics[topic]; !ok {
		return 0, ErrUnknownTopic
	}
	users, err := s.users.ListSubscribed(ctx, topic)
	if err != nil {
		return 0, fmt.Errorf("выборка подписчиков: %w", err)
	}
	if len(users) == 0 {
		return 0, nil
	}
	recipients := make([]int64, 0, len(users))
	for _, user := range users {
		recipients = append(recipients, user.VKID)
	}
	job := domain.BroadcastJob{
		ID:          uuid.NewString(),
		Topic:       topic,
		Recipients:  recipients,
		Text:        text,
		Keyboard:    keyboard,
		Attachments: attachments,
		RequestedAt: time.Now().UTC(),
		Cause:       cause,
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		return 0, fmt.Errorf("постановка рассылки: %w", err)
	}
	return len(recipients), nil
}
