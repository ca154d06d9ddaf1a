package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vk-concert-bot/internal/domain"
	"vk-concert-bot/internal/infra/metrics"
)

const baseURL = "https://www.googleapis.com/calendar/v3"

// Client читает события афиши из Google Calendar.
type Client struct {
	http       *http.Client
	calendarID string
	apiKey     string
}

// NewClient создаёт клиент календаря.
func NewClient(calendarID, apiKey string) *Client {
	return &Client{
		http:       &http.Client{Timeout: 10 * time.Second},
		calendarID: calendarID,
		apiKey:     apiKey,
	}
}

type eventTime struct {
	DateTime string `json:"dateTime"`
	Date     string `json:"date"`
}

type event struct {
	Summary     string    `json:"summary"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	HTMLLink    string    `json:"htmlLink"`
	Start       eventTime `json:"start"`
}

type eventList struct {
	Items []event `json:"items"`
}

// ConcertsBetween реализует domain.ConcertSource.
func (c *Client) ConcertsBetween(ctx context.Context, from, to time.Time) ([]domain.Concert, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("timeMin", from.Format(time.RFC3339))
	params.Set("timeMax", to.Format(time.RFC3339))
	params.Set("singleEvents", "true")
	params.Set("orderBy", "startTime")

	endpoint := fmt.Sprintf("%s/calendars/%s/events?%s", baseURL, url.PathEscape(c.calendarID), params.Encode())
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.http.Do(req)
	metrics.ObserveNetworkRequest("calendar", "events_list", start, err)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("calendar: status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var list eventList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}

	concerts := make([]domain.Concert, 0, len(list.Items))
	for _, item := range list.Items {
		startsAt, ok := parseEventStart(item.Start)
		if !ok {
			continue
		}
		concerts = append(concerts, domain.Concert{
			Title:    strings.TrimSpace(item.Summary),
			Place:    strings.TrimSpace(item.Location),
			StartsAt: startsAt,
			Price:    firstLine(item.Description),
			URL:      item.HTMLLink,
		})
	}
	return concerts, nil
}

func parseEventStart(t eventTime) (time.Time, bool) {
	if t.DateTime != "" {
		parsed, err := time.Parse(time.RFC3339, t.DateTime)
		if err == nil {
			return parsed, true
		}
	}
	if t.Date != "" {
		parsed, err := time.Parse("2006-01-02", t.Date)
		if err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
