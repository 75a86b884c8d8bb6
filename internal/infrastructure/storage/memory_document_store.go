package storage

import (
	"context"
	"strconv"
	"sync"

	"yolo-bot/internal/domain/entity"
	"yolo-bot/internal/domain/port"
)

// MemoryDocumentStore in-memory хранилище итогов предсказаний
type MemoryDocumentStore struct {
	mu        sync.RWMutex
	documents []entity.PredictionSummary
}

// NewMemoryDocumentStore создаёт пустое хранилище
func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{}
}

// InsertOne добавляет документ и выдаёт ему порядковый id
func (s *MemoryDocumentStore) InsertOne(ctx context.Context, summary *entity.PredictionSummary) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strconv.Itoa(len(s.documents) + 1)
	doc := *summary
	doc.ID = id
	doc.Labels = append([]entity.DetectionLabel(nil), summary.Labels...)
	s.documents = append(s.documents, doc)

	return id, nil
}

// Documents возвращает копию всех сохранённых документов
func (s *MemoryDocumentStore) Documents() []entity.PredictionSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]entity.PredictionSummary(nil), s.documents...)
}

// Проверка реализации интерфейса
var _ port.DocumentStore = (*MemoryDocumentStore)(nil)
