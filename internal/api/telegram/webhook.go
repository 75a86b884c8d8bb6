package telegram

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"yolo-bot/internal/domain/port"
)

// Webhook принимает обновления от Telegram
type Webhook struct {
	token   string
	handler port.EventHandler
	dedup   port.UpdateDeduplicator
	log     *zap.SugaredLogger
}

// NewWebhook создаёт обработчик webhook. token используется как секретный путь.
func NewWebhook(token string, handler port.EventHandler, dedup port.UpdateDeduplicator, log *zap.SugaredLogger) *Webhook {
	return &Webhook{
		token:   token,
		handler: handler,
		dedup:   dedup,
		log:     log,
	}
}

func (w *Webhook) RegisterRoutes(e *echo.Echo) {
	e.GET("/", w.Index)
	// токен в пути проверяется в обработчике, в логах остаётся только шаблон маршрута
	e.POST("/:token/", w.Update)
}

func (w *Webhook) Index(c echo.Context) error {
	return c.String(http.StatusOK, "Ok")
}

// Update обрабатывает одно обновление. Telegram всегда получает 200 Ok,
// иначе он будет повторять доставку.
func (w *Webhook) Update(c echo.Context) error {
	if subtle.ConstantTimeCompare([]byte(c.Param("token")), []byte(w.token)) != 1 {
		return echo.ErrNotFound
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(c.Request().Body).Decode(&update); err != nil {
		w.log.Warnw("failed to decode update", "error", err)
		return c.String(http.StatusOK, "Ok")
	}

	// обрыв соединения Telegram не должен прерывать детекцию
	ctx := context.WithoutCancel(c.Request().Context())
	dispatch(ctx, w.log, update, w.handler, w.dedup)

	return c.String(http.StatusOK, "Ok")
}
