package poster

import (
	"context"
	"fmt"
	"time"

	"vk-concert-bot/internal/domain"
)

// Service отвечает за афишу концертов.
type Service struct {
	source domain.ConcertSource
	loc    *time.Location
}

// NewService создаёт сервис афиши.
func NewService(source domain.ConcertSource, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{source: source, loc: loc}
}

// Location возвращает часовой пояс афиши.
func (s *Service) Location() *time.Location {
	return s.loc
}

// DayListing возвращает афишу на день, начинающийся с dayStart.
func (s *Service) DayListing(ctx context.Context, dayStart time.Time) (string, error) {
	from := dayStart.In(s.loc)
	to := from.Add(24 * time.Hour)
	concerts, err := s.source.ConcertsBetween(ctx, from, to)
	if err != nil {
		return "", fmt.Errorf("получение афиши: %w", err)
	}
	return FormatConcerts(concerts, s.loc), nil
}

// WeekListing возвращает афишу на неделю, начинающуюся с weekStart.
func (s *Service) WeekListing(ctx context.Context, weekStart time.Time) (string, error) {
	from := weekStart.In(s.loc)
	to := from.Add(7 * 24 * time.Hour)
	concerts, err := s.source.ConcertsBetween(ctx, from, to)
	if err != nil {
		return "", fmt.Errorf("получение афиши: %w", err)
	}
	return FormatConcerts(concerts, s.loc), nil
}
