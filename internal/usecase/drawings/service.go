package drawings

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"vk-concert-bot/internal/domain"
)

// MaxNameLength ограничивает длину названия розыгрыша.
const MaxNameLength = 40

var (
	// ErrNameTooLong возвращается для слишком длинного названия.
	ErrNameTooLong = errors.New("название розыгрыша длиннее 40 символов")
	// ErrNameEmpty возвращается для пустого названия.
	ErrNameEmpty = errors.New("название розыгрыша пустое")
	// ErrInvalidPost возвращается для некорректной ссылки на пост.
	ErrInvalidPost = errors.New("некорректная ссылка на пост")
	// ErrNotFound возвращается, если розыгрыш не найден.
	ErrNotFound = errors.New("розыгрыш не найден")
)

var postIDRegex = regexp.MustCompile(`^-?\d+_\d+$`)

// Service управляет розыгрышами сообщества.
type Service struct {
	repo domain.DrawingRepo
}

// NewService создаёт сервис розыгрышей.
func NewService(repo domain.DrawingRepo) *Service {
	return &Service{repo: repo}
}

// ValidateName проверяет название розыгрыша.
func ValidateName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", ErrNameEmpty
	}
	if len([]rune(trimmed)) > MaxNameLength {
		return "", ErrNameTooLong
	}
	return trimmed, nil
}

// ParsePostID выделяет идентификатор поста из текста или ссылки вида
// vk.com/wall-123_456.
func ParsePostID(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if idx := strings.LastIndex(trimmed, "wall"); idx >= 0 {
		trimmed = trimmed[idx+len("wall"):]
	}
	if !postIDRegex.MatchString(trimmed) {
		return "", ErrInvalidPost
	}
	return trimmed, nil
}

// ListActive возвращает действующие розыгрыши.
func (s *Service) ListActive(ctx context.Context) ([]domain.Drawing, error) {
	return s.repo.ListActive(ctx)
}

// Get возвращает розыгрыш по идентификатору.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Drawing, error) {
	drawing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("получение розыгрыша: %w", err)
	}
	if drawing == nil {
		return nil, ErrNotFound
	}
	return drawing, nil
}

// Create заводит новый розыгрыш.
func (s *Service) Create(ctx context.Context, name, postID string, expiresAt time.Time) (*domain.Drawing, error) {
	validName, err := ValidateName(name)
	if err != nil {
		return nil, err
	}
	drawing := &domain.Drawing{
		Name:      validName,
		PostID:    postID,
		Active:    true,
		ExpiresAt: expiresAt,
	}
	if err := s.repo.CreateDrawing(ctx, drawing); err != nil {
		return nil, fmt.Errorf("создание розыгрыша: %w", err)
	}
	return drawing, nil
}

// Rename меняет название розыгрыша.
func (s *Service) Rename(ctx context.Context, id int64, name string) (*domain.Drawing, error) {
	validName, err := ValidateName(name)
	if err != nil {
		return nil, err
	}
	drawing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	drawing.Name = validName
	if err := s.repo.SaveDrawing(ctx, drawing); err != nil {
		return nil, fmt.Errorf("сохранение розыгрыша: %w", err)
	}
	return drawing, nil
}

// SetPost меняет пост розыгрыша.
func (s *Service) SetPost(ctx context.Context, id int64, postID string) (*domain.Drawing, error) {
	drawing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	drawing.PostID = postID
	if err := s.repo.SaveDrawing(ctx, drawing); err != nil {
		return nil, fmt.Errorf("сохранение розыгрыша: %w", err)
	}
	return drawing, nil
}

// Delete мягко удаляет розыгрыш: запись остаётся для истории.
func (s *Service) Delete(ctx context.Context, id int64) error {
	drawing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	drawing.Active = false
	if err := s.repo.SaveDrawing(ctx, drawing); err != nil {
		return fmt.Errorf("сохранение розыгрыша: %w", err)
	}
	return nil
}

// DeactivateExpired гасит просроченные розыгрыши.
func (s *Service) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	return s.repo.DeactivateExpired(ctx, now)
}
