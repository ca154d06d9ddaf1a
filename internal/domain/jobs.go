package domain

import (
	"context"
	"time"
)

// BroadcastCause описывает источник рассылки.
type BroadcastCause string

const (
	// BroadcastCauseDigest — ежедневная афиша по расписанию.
	BroadcastCauseDigest BroadcastCause = "digest"
	// BroadcastCauseWallPost — новый пост на стене сообщества.
	BroadcastCauseWallPost BroadcastCause = "wall_post"
	// BroadcastCauseManual — рассылка, запущенная администратором.
	BroadcastCauseManual BroadcastCause = "manual"
)

// BroadcastJob содержит задачу рассылки подписчикам.
type BroadcastJob struct {
	ID          string         `json:"job_id"`
	Topic       string         `json:"topic"`
	Recipients  []int64        `json:"recipients"`
	Text        string         `json:"text"`
	Keyboard    []byte         `json:"keyboard,omitempty"`
	Attachments []string       `json:"attachments,omitempty"`
	RequestedAt time.Time      `json:"requested_at"`
	Cause       BroadcastCause `json:"cause"`
}

// BroadcastQueue описывает очередь задач рассылки.
type BroadcastQueue interface {
	Enqueue(ctx context.Context, job BroadcastJob) error
	Pop(ctx context.Context) (BroadcastJob, error)
}
