package bot

import (
	"context"
	"fmt"
	"sync"

	"vk-concert-bot/internal/domain"
)

// ManagerSet хранит снимок идентификаторов руководителей сообщества.
// Снимок обновляется по событию group_officers_edit и по таймеру,
// чтение — синхронное из диспетчера.
type ManagerSet struct {
	source domain.ManagerSource

	mu  sync.RWMutex
	ids map[int64]struct{}
}

// NewManagerSet создаёт пустой снимок.
func NewManagerSet(source domain.ManagerSource) *ManagerSet {
	return &ManagerSet{source: source, ids: make(map[int64]struct{})}
}

// Refresh перечитывает список руководителей и подменяет снимок целиком.
func (m *ManagerSet) Refresh(ctx context.Context) error {
	ids, err := m.source.ManagerIDs(ctx)
	if err != nil {
		return fmt.Errorf("получение руководителей: %w", err)
	}
	next := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		next[id] = struct{}{}
	}
	m.mu.Lock()
	m.ids = next
	m.mu.Unlock()
	return nil
}

// IsManager сообщает, входит ли пользователь в текущий снимок.
func (m *ManagerSet) IsManager(vkID int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.ids[vkID]
	return ok
}

// IDs возвращает копию текущего снимка.
func (m *ManagerSet) IDs() []int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]int64, 0, len(m.ids))
	for id := range m.ids {
		ids = append(ids, id)
	}
	return ids
}
