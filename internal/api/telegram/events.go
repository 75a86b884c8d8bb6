package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"yolo-bot/internal/domain/entity"
	"yolo-bot/internal/domain/port"
)

// EventFromUpdate переводит обновление Telegram в событие чата.
// Обновления без сообщения (правки, колбэки) пропускаются.
func EventFromUpdate(update tgbotapi.Update) (entity.ChatEvent, bool) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return entity.ChatEvent{}, false
	}

	event := entity.ChatEvent{
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
		Text:      msg.Text,
	}
	for _, p := range msg.Photo {
		event.Photos = append(event.Photos, entity.PhotoVariant{
			FileID:   p.FileID,
			FileSize: p.FileSize,
			Width:    p.Width,
			Height:   p.Height,
		})
	}
	return event, true
}

// dispatch общий путь для webhook и polling
func dispatch(ctx context.Context, log *zap.SugaredLogger, update tgbotapi.Update, handler port.EventHandler, dedup port.UpdateDeduplicator) {
	if dedup != nil {
		first, err := dedup.FirstSeen(ctx, update.UpdateID)
		if err != nil {
			// без дедупликации лучше, чем без ответа
			log.Warnw("update dedup failed", "update_id", update.UpdateID, "error", err)
		} else if !first {
			log.Infow("duplicate update dropped", "update_id", update.UpdateID)
			return
		}
	}

	event, ok := EventFromUpdate(update)
	if !ok {
		log.Debugw("update without message skipped", "update_id", update.UpdateID)
		return
	}
	handler.Handle(ctx, event)
}
