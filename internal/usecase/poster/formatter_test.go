package poster

import (
	"strings"
	"testing"
	"time"

	"vk-concert-bot/internal/domain"
)

func TestFormatConcertsGroupsByDay(t *testing.T) {
	loc := time.UTC
	monday := time.Date(2026, time.September, 7, 20, 0, 0, 0, loc)
	concerts := []domain.Concert{
		{Title: "Группа Б", Place: "Клуб", StartsAt: monday.Add(26 * time.Hour)},
		{Title: "Группа А", StartsAt: monday, Price: "от 1000 ₽"},
		{Title: "Группа В", StartsAt: monday.Add(2 * time.Hour)},
	}

	text := FormatConcerts(concerts, loc)
	sections := strings.Split(text, "\n\n")
	if len(sections) != 2 {
		t.Fatalf("ожидали 2 дня, получили %d", len(sections))
	}
	if !strings.HasPrefix(sections[0], "📅 Понедельник, 7 сентября") {
		t.Fatalf("неожиданный заголовок дня: %q", sections[0])
	}
	if !strings.Contains(sections[0], "20:00 — Группа А") {
		t.Fatalf("концерты должны идти по времени: %q", sections[0])
	}
	if !strings.Contains(sections[0], "💰 от 1000 ₽") {
		t.Fatal("цена должна попадать в афишу")
	}
	if !strings.Contains(sections[1], "Группа Б") || !strings.Contains(sections[1], "(Клуб)") {
		t.Fatalf("второй день собран неверно: %q", sections[1])
	}
}

func TestFormatConcertsEmpty(t *testing.T) {
	if text := FormatConcerts(nil, time.UTC); text != "" {
		t.Fatalf("пустая афиша должна давать пустую строку, получили %q", text)
	}
}
