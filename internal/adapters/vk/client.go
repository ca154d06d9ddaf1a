package vk

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"vk-concert-bot/internal/domain"
	"vk-concert-bot/internal/infra/metrics"
)

const apiBaseURL = "https://api.vk.com/method/"

// Client — клиент VK API для сообщений и сведений о сообществе.
type Client struct {
	http      *http.Client
	log       zerolog.Logger
	token     string
	groupID   int64
	version   string
	chunkSize int
	delay     time.Duration
}

// Config задаёт параметры клиента.
type Config struct {
	Token      string
	GroupID    int64
	APIVersion string
	ChunkSize  int
	ChunkDelay time.Duration
}

// NewClient создаёт клиент VK API.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	chunk := cfg.ChunkSize
	if chunk <= 0 {
		chunk = 50
	}
	delay := cfg.ChunkDelay
	if delay <= 0 {
		delay = time.Second
	}
	version := cfg.APIVersion
	if version == "" {
		version = "5.131"
	}
	return &Client{
		http:      &http.Client{Timeout: 10 * time.Second},
		log:       logger,
		token:     cfg.Token,
		groupID:   cfg.GroupID,
		version:   version,
		chunkSize: chunk,
		delay:     delay,
	}
}

type apiError struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_msg"`
}

type apiEnvelope struct {
	Error    *apiError       `json:"error"`
	Response json.RawMessage `json:"response"`
}

func (c *Client) call(ctx context.Context, method string, params url.Values) (json.RawMessage, error) {
	params.Set("access_token", c.token)
	params.Set("v", c.version)

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiBaseURL+method, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.http.Do(req)
	metrics.ObserveNetworkRequest("vk", method, start, err)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if envelope.Error != nil {
		return nil, fmt.Errorf("vk api %s: код %d: %s", method, envelope.Error.Code, envelope.Error.Message)
	}
	return envelope.Response, nil
}

// Send реализует domain.Messenger: рассылает сообщение пачками, выдерживая
// паузу между пачками, чтобы не упереться в лимиты API.
func (c *Client) Send(ctx context.Context, peerIDs []int64, msg domain.OutgoingMessage) error {
	for offset := 0; offset < len(peerIDs); offset += c.chunkSize {
		end := offset + c.chunkSize
		if end > len(peerIDs) {
			end = len(peerIDs)
		}
		if err := c.sendChunk(ctx, peerIDs[offset:end], msg); err != nil {
			metrics.SendErrorsTotal.Inc()
			return err
		}
		metrics.BroadcastChunksTotal.Inc()
		if end < len(peerIDs) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.delay):
			}
		}
	}
	return nil
}

func (c *Client) sendChunk(ctx context.Context, peerIDs []int64, msg domain.OutgoingMessage) error {
	params := url.Values{}
	params.Set("random_id", strconv.FormatInt(rand.Int63(), 10))
	params.Set("message", msg.Text)
	if len(peerIDs) == 1 {
		params.Set("peer_id", strconv.FormatInt(peerIDs[0], 10))
	} else {
		ids := make([]string, 0, len(peerIDs))
		for _, id := range peerIDs {
			ids = append(ids, strconv.FormatInt(id, 10))
		}
		params.Set("user_ids", strings.Join(ids, ","))
	}
	if len(msg.Keyboard) > 0 {
		params.Set("keyboard", string(msg.Keyboard))
	}
	if len(msg.Attachments) > 0 {
		params.Set("attachment", strings.Join(msg.Attachments, ","))
	}
	if len(msg.ForwardedMessages) > 0 {
		ids := make([]string, 0, len(msg.ForwardedMessages))
		for _, id := range msg.ForwardedMessages {
			ids = append(ids, strconv.FormatInt(id, 10))
		}
		params.Set("forward_messages", strings.Join(ids, ","))
	}
	_, err := c.call(ctx, "messages.send", params)
	return err
}

// ManagerIDs реализует domain.ManagerSource через groups.getMembers.
func (c *Client) ManagerIDs(ctx context.Context) ([]int64, error) {
	params := url.Values{}
	params.Set("group_id", strconv.FormatInt(c.groupID, 10))
	params.Set("filter", "managers")
	raw, err := c.call(ctx, "groups.getMembers", params)
	if err != nil {
		return nil, err
	}
	var response struct {
		Items []struct {
			ID int64 `json:"id"`
		} `json:"items"`
	}
	if err := json.Unmarshal(raw, &response); err != nil {
		return nil, fmt.Errorf("decode managers: %w", err)
	}
	ids := make([]int64, 0, len(response.Items))
	for _, item := range response.Items {
		ids = append(ids, item.ID)
	}
	return ids, nil
}

// Profile — анкетные данные пользователя из users.get.
type Profile struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Sex       int    `json:"sex"`
	BDate     string `json:"bdate"`
}

// GetProfiles запрашивает анкетные данные пользователей.
func (c *Client) GetProfiles(ctx context.Context, vkIDs []int64) ([]Profile, error) {
	if len(vkIDs) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(vkIDs))
	for _, id := range vkIDs {
		ids = append(ids, strconv.FormatInt(id, 10))
	}
	params := url.Values{}
	params.Set("user_ids", strings.Join(ids, ","))
	params.Set("fields", "sex,bdate")
	raw, err := c.call(ctx, "users.get", params)
	if err != nil {
		return nil, err
	}
	var profiles []Profile
	if err := json.Unmarshal(raw, &profiles); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	return profiles, nil
}
