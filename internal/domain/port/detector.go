package port

import (
	"context"

	"yolo-bot/internal/domain/entity"
)

// ModelRuntime интерфейс модели детекции
type ModelRuntime interface {
	// Detect запускает модель на файле и пишет размеченное изображение
	// и файл разметки в каталог Project/Name
	Detect(ctx context.Context, params entity.DetectParams) error
}

// DetectionClient интерфейс клиента сервиса детекции
type DetectionClient interface {
	// Predict запрашивает детекцию для изображения по ключу в блоб-хранилище.
	// Ошибки не возвращаются: они сворачиваются в исход Failure.
	Predict(ctx context.Context, blobKey string) entity.DetectionOutcome
}
