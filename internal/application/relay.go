package app

import (
	"context"
	"fmt"
	"path"

	"go.uber.org/zap"

	"yolo-bot/internal/domain/entity"
	"yolo-bot/internal/domain/port"
)

const (
	msgSendPhoto       = "Please send me a photo."
	msgProcessing      = "Processing your photo..."
	msgDetectedHeader  = "Detected objects:\n"
	msgNoObjects       = "No objects detected in the image."
	msgDetectionIssue  = "Sorry, there was an issue processing the image."
	msgProcessingError = "An error occurred while processing your photo."
)

// PredictionsPrefix пространство ключей для загруженных фотографий
const PredictionsPrefix = "predictions"

// RelayService ведёт фото из чата через хранилище в сервис детекции и отвечает пользователю.
type RelayService struct {
	chat     port.ChatTransport
	blobs    port.BlobStore
	detector port.DetectionClient
	log      *zap.SugaredLogger
}

// NewRelayService создаёт сервис обработки входящих событий чата.
func NewRelayService(chat port.ChatTransport, blobs port.BlobStore, detector port.DetectionClient, log *zap.SugaredLogger) *RelayService {
	return &RelayService{
		chat:     chat,
		blobs:    blobs,
		detector: detector,
		log:      log,
	}
}

// Handle обрабатывает одно событие. Пользователь всегда получает ответ,
// ошибки наружу не выходят.
func (s *RelayService) Handle(ctx context.Context, event entity.ChatEvent) {
	log := s.log.With("chat_id", event.ChatID, "message_id", event.MessageID)
	log.Infow("incoming message", "kind", event.Kind(), "photos", len(event.Photos))

	defer func() {
		if r := recover(); r != nil {
			log.Errorw("panic while handling message", "panic", r)
			s.reply(ctx, log, event.ChatID, msgProcessingError, event.MessageID)
		}
	}()

	if event.Kind() != entity.EventPhoto {
		s.reply(ctx, log, event.ChatID, msgSendPhoto, 0)
		return
	}

	s.reply(ctx, log, event.ChatID, msgProcessing, 0)

	text, err := s.processPhoto(ctx, log, event)
	if err != nil {
		log.Errorw("error processing photo message", "error", err)
		text = msgProcessingError
	}
	s.reply(ctx, log, event.ChatID, text, event.MessageID)
}

func (s *RelayService) processPhoto(ctx context.Context, log *zap.SugaredLogger, event entity.ChatEvent) (string, error) {
	photo, _ := event.LargestPhoto()

	file, err := s.chat.DownloadFile(ctx, photo.FileID)
	if err != nil {
		return "", fmt.Errorf("%w: download %s: %w", entity.ErrTransport, photo.FileID, err)
	}
	log.Infow("photo downloaded", "file_id", photo.FileID, "path", file.Path, "bytes", len(file.Data))

	key, err := s.uploadPhoto(ctx, log, file)
	if err != nil {
		return "", err
	}

	log.Infow("sending image for prediction", "key", key)
	outcome := s.detector.Predict(ctx, key)

	return renderOutcome(log, outcome), nil
}

// uploadPhoto кладёт фото в хранилище под predictions/<имя файла>.
func (s *RelayService) uploadPhoto(ctx context.Context, log *zap.SugaredLogger, file *entity.RemoteFile) (string, error) {
	key, err := BlobKey(file.Path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", entity.ErrTransport, err)
	}

	if err := s.blobs.Put(ctx, key, file.Data); err != nil {
		log.Errorw("failed to upload photo", "key", key, "bucket", s.blobs.Bucket(), "error", err)
		return "", fmt.Errorf("%w: put %s: %w", entity.ErrStorage, key, err)
	}
	log.Infow("photo uploaded", "key", key, "bucket", s.blobs.Bucket())

	return key, nil
}

func (s *RelayService) reply(ctx context.Context, log *zap.SugaredLogger, chatID int64, text string, replyTo int) {
	if err := s.chat.SendText(ctx, chatID, text, replyTo); err != nil {
		log.Errorw("error sending message", "error", err)
	}
}

// BlobKey строит ключ хранилища из пути скачанного файла.
func BlobKey(filePath string) (string, error) {
	name := path.Base(filePath)
	if filePath == "" || name == "." || name == "/" || name == ".." {
		return "", fmt.Errorf("%w: file path %q has no file name", entity.ErrInvalidKey, filePath)
	}
	return PredictionsPrefix + "/" + name, nil
}

func renderOutcome(log *zap.SugaredLogger, outcome entity.DetectionOutcome) string {
	switch outcome.Status {
	case entity.OutcomeFailure:
		log.Warnw("no prediction result was found", "reason", outcome.Reason)
		return msgDetectionIssue
	case entity.OutcomeNotFound:
		log.Infow("prediction has no result", "reason", outcome.Reason)
		return msgNoObjects
	}

	if !outcome.HasLabels() {
		return msgNoObjects
	}

	log.Infow("prediction result", "prediction_id", outcome.Summary.PredictionID, "labels", len(outcome.Summary.Labels))
	return msgDetectedHeader + entity.FormatCounts(entity.CountByClass(outcome.Summary.Labels))
}
