package poster

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"vk-concert-bot/internal/domain"
)

var weekdays = map[time.Weekday]string{
	time.Monday:    "Понедельник",
	time.Tuesday:   "Вторник",
	time.Wednesday: "Среда",
	time.Thursday:  "Четверг",
	time.Friday:    "Пятница",
	time.Saturday:  "Суббота",
	time.Sunday:    "Воскресенье",
}

var months = map[time.Month]string{
	time.January:   "января",
	time.February:  "февраля",
	time.March:     "марта",
	time.April:     "апреля",
	time.May:       "мая",
	time.June:      "июня",
	time.July:      "июля",
	time.August:    "августа",
	time.September: "сентября",
	time.October:   "октября",
	time.November:  "ноября",
	time.December:  "декабря",
}

// FormatConcerts строит текст афиши, сгруппированный по дням. Дни разделены
// пустой строкой, внутри дня — заголовок с датой и по записи на концерт.
func FormatConcerts(concerts []domain.Concert, loc *time.Location) string {
	if len(concerts) == 0 {
		return ""
	}

	sorted := make([]domain.Concert, len(concerts))
	copy(sorted, concerts)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartsAt.Before(sorted[j].StartsAt)
	})

	var (
		sections   []string
		currentDay string
		block      []string
	)
	flush := func() {
		if len(block) > 0 {
			sections = append(sections, strings.Join(block, "\n"))
			block = nil
		}
	}
	for _, concert := range sorted {
		local := concert.StartsAt.In(loc)
		day := dayHeader(local)
		if day != currentDay {
			flush()
			currentDay = day
			block = append(block, "📅 "+day)
		}
		block = append(block, formatConcert(concert, local))
	}
	flush()

	return strings.Join(sections, "\n\n")
}

func dayHeader(t time.Time) string {
	return fmt.Sprintf("%s, %d %s", weekdays[t.Weekday()], t.Day(), months[t.Month()])
}

func formatConcert(c domain.Concert, local time.Time) string {
	line := fmt.Sprintf("%s — %s", local.Format("15:04"), c.Title)
	if c.Place != "" {
		line += fmt.Sprintf(" (%s)", c.Place)
	}
	if c.Price != "" {
		line += "\n💰 " + c.Price
	}
	if c.URL != "" {
		line += "\n🔗 " + c.URL
	}
	return line
}
