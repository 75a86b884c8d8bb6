package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"yolo-bot/internal/domain/entity"
	"yolo-bot/internal/domain/port"
)

// Config параметры подключения к Bot API
type Config struct {
	Token        string
	APIEndpoint  string // По умолчанию tgbotapi.APIEndpoint
	FileEndpoint string // По умолчанию tgbotapi.FileEndpoint
}

// Bot представляет Telegram-бота
type Bot struct {
	api          *tgbotapi.BotAPI
	client       *http.Client
	fileEndpoint string
	log          *zap.SugaredLogger
}

// NewBot создаёт нового бота. Проверяет токен запросом getMe.
func NewBot(cfg Config, log *zap.SugaredLogger) (*Bot, error) {
	if cfg.APIEndpoint == "" {
		cfg.APIEndpoint = tgbotapi.APIEndpoint
	}
	if cfg.FileEndpoint == "" {
		cfg.FileEndpoint = tgbotapi.FileEndpoint
	}

	client := &http.Client{}
	api, err := tgbotapi.NewBotAPIWithClient(cfg.Token, cfg.APIEndpoint, client)
	if err != nil {
		return nil, err
	}

	log.Infow("authorized on account", "username", api.Self.UserName, "id", api.Self.ID)

	return &Bot{
		api:          api,
		client:       client,
		fileEndpoint: cfg.FileEndpoint,
		log:          log,
	}, nil
}

// Token токен бота, он же секретный путь webhook
func (b *Bot) Token() string {
	return b.api.Token
}

// SendText отправляет текстовое сообщение
func (b *Bot) SendText(ctx context.Context, chatID int64, text string, replyTo int) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if replyTo != 0 {
		msg.ReplyToMessageID = replyTo
	}
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// DownloadFile скачивает файл из Telegram
func (b *Bot) DownloadFile(ctx context.Context, fileID string) (*entity.RemoteFile, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	fileURL := fmt.Sprintf(b.fileEndpoint, b.api.Token, file.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return &entity.RemoteFile{Path: file.FilePath, Data: data}, nil
}

// WebhookURL адрес, на который Telegram будет слать обновления
func WebhookURL(appURL, token string) string {
	return strings.TrimRight(appURL, "/") + "/" + token + "/"
}

// RegisterWebhook сбрасывает текущий webhook и ставит новый на appURL.
func (b *Bot) RegisterWebhook(appURL string) error {
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}

	wh, err := tgbotapi.NewWebhook(WebhookURL(appURL, b.api.Token))
	if err != nil {
		return fmt.Errorf("build webhook: %w", err)
	}
	if _, err := b.api.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}

	b.log.Infow("webhook registered", "url", strings.TrimRight(appURL, "/")+"/<token>/")
	return nil
}

// Poll запускает основной цикл long polling и блокируется до отмены ctx.
func (b *Bot) Poll(ctx context.Context, handler port.EventHandler, dedup port.UpdateDeduplicator) error {
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	b.log.Infow("polling for updates")
	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			dispatch(ctx, b.log, update, handler, dedup)
		}
	}
}

var _ port.ChatTransport = (*Bot)(nil)
