package port

import (
	"context"

	"yolo-bot/internal/domain/entity"
)

// BlobStore интерфейс объектного хранилища
type BlobStore interface {
	// Put кладёт байты под ключ
	Put(ctx context.Context, key string, data []byte) error

	// PutFile кладёт содержимое локального файла под ключ
	PutFile(ctx context.Context, key, path string) error

	// Download скачивает объект в локальный файл dst
	Download(ctx context.Context, key, dst string) error

	// Bucket имя бакета, для логов
	Bucket() string
}

// DocumentStore интерфейс хранилища документов
type DocumentStore interface {
	// InsertOne сохраняет итог предсказания и возвращает выданный хранилищем id
	InsertOne(ctx context.Context, summary *entity.PredictionSummary) (string, error)
}
