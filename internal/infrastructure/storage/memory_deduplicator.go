package storage

import (
	"context"
	"sync"
	"time"

	"yolo-bot/internal/domain/port"
)

// MemoryDeduplicator помнит id обновлений Telegram в течение ttl
type MemoryDeduplicator struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[int]time.Time
	now  func() time.Time
}

// NewMemoryDeduplicator создаёт дедупликатор в памяти процесса
func NewMemoryDeduplicator(ttl time.Duration) *MemoryDeduplicator {
	return &MemoryDeduplicator{
		ttl:  ttl,
		seen: make(map[int]time.Time),
		now:  time.Now,
	}
}

// FirstSeen отмечает обновление и сообщает, встречалось ли оно раньше
func (d *MemoryDeduplicator) FirstSeen(ctx context.Context, updateID int) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for id, expires := range d.seen {
		if now.After(expires) {
			delete(d.seen, id)
		}
	}

	if _, exists := d.seen[updateID]; exists {
		return false, nil
	}
	d.seen[updateID] = now.Add(d.ttl)
	return true, nil
}

var _ port.UpdateDeduplicator = (*MemoryDeduplicator)(nil)
