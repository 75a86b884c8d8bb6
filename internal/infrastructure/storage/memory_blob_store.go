package storage

import (
	"context"
	"fmt"
	"os"
	"sync"

	"yolo-bot/internal/domain/entity"
	"yolo-bot/internal/domain/port"
)

// MemoryBlobStore in-memory блоб-хранилище
type MemoryBlobStore struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string][]byte
	puts    []string
}

// NewMemoryBlobStore создаёт пустое хранилище
func NewMemoryBlobStore(bucket string) *MemoryBlobStore {
	return &MemoryBlobStore{
		bucket:  bucket,
		objects: make(map[string][]byte),
	}
}

// Put сохраняет копию данных под ключом
func (s *MemoryBlobStore) Put(ctx context.Context, key string, data []byte) error {
	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	s.objects[key] = buf
	s.puts = append(s.puts, key)
	s.mu.Unlock()

	return nil
}

// PutFile читает локальный файл и сохраняет его под ключом
func (s *MemoryBlobStore) PutFile(ctx context.Context, key, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return s.Put(ctx, key, data)
}

// Download пишет объект в локальный файл
func (s *MemoryBlobStore) Download(ctx context.Context, key, dst string) error {
	s.mu.RLock()
	data, exists := s.objects[key]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %s", entity.ErrBlobNotFound, key)
	}

	return os.WriteFile(dst, data, 0o644)
}

// Bucket возвращает имя бакета
func (s *MemoryBlobStore) Bucket() string {
	return s.bucket
}

// Object возвращает сохранённый объект
func (s *MemoryBlobStore) Object(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, exists := s.objects[key]
	return data, exists
}

// Puts возвращает ключи всех операций записи в порядке их выполнения
func (s *MemoryBlobStore) Puts() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]string(nil), s.puts...)
}

// Проверка реализации интерфейса
var _ port.BlobStore = (*MemoryBlobStore)(nil)
