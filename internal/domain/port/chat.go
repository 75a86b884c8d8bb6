package port

import (
	"context"

	"yolo-bot/internal/domain/entity"
)

// ChatTransport интерфейс транспорта чата
type ChatTransport interface {
	// SendText отправляет сообщение в чат. При replyTo == 0 без цитирования.
	SendText(ctx context.Context, chatID int64, text string, replyTo int) error

	// DownloadFile скачивает файл по его идентификатору
	DownloadFile(ctx context.Context, fileID string) (*entity.RemoteFile, error)
}

// EventHandler обработчик входящих событий чата
type EventHandler interface {
	Handle(ctx context.Context, event entity.ChatEvent)
}

// UpdateDeduplicator отбрасывает повторные доставки одного и того же обновления
type UpdateDeduplicator interface {
	// FirstSeen возвращает true, если обновление с таким id пришло впервые
	FirstSeen(ctx context.Context, updateID int) (bool, error)
}
