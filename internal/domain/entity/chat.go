package entity

// EventKind тип входящего сообщения чата
type EventKind string

const (
	EventText  EventKind = "text"  // Текстовое (или любое не-фото) сообщение
	EventPhoto EventKind = "photo" // Сообщение с фотографией
)

// PhotoVariant один из размеров присланной фотографии
type PhotoVariant struct {
	FileID   string // Идентификатор файла в Telegram
	FileSize int    // Размер файла в байтах (может быть 0)
	Width    int
	Height   int
}

// ChatEvent входящее сообщение чата. Живёт ровно один прогон конвейера.
type ChatEvent struct {
	ChatID    int64
	MessageID int
	Text      string
	Photos    []PhotoVariant
}

// Kind определяет, является ли сообщение фотографией.
func (e ChatEvent) Kind() EventKind {
	if len(e.Photos) > 0 {
		return EventPhoto
	}
	return EventText
}

// LargestPhoto возвращает вариант с максимальным разрешением.
// При равенстве площади побеждает больший файл, затем более поздний вариант.
func (e ChatEvent) LargestPhoto() (PhotoVariant, bool) {
	if len(e.Photos) == 0 {
		return PhotoVariant{}, false
	}

	best := e.Photos[0]
	for _, p := range e.Photos[1:] {
		area, bestArea := p.Width*p.Height, best.Width*best.Height
		if area > bestArea || (area == bestArea && p.FileSize >= best.FileSize) {
			best = p
		}
	}
	return best, true
}

// RemoteFile файл, скачанный через транспорт чата
type RemoteFile struct {
	Path string // Путь файла на стороне Telegram, например photos/file_1.jpg
	Data []byte
}
