package predict

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"yolo-bot/internal/domain/entity"
)

// Predictor прогоняет детекцию для изображения из хранилища
type Predictor interface {
	Predict(ctx context.Context, blobKey string) (*entity.PredictionSummary, error)
}

type Handler struct {
	predictor Predictor
	log       *zap.SugaredLogger
}

func NewHandler(predictor Predictor, log *zap.SugaredLogger) *Handler {
	return &Handler{
		predictor: predictor,
		log:       log,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/predict", h.Predict)
	e.GET("/health", h.Health)
}

// Predict POST /predict?imgName=<ключ в хранилище>
func (h *Handler) Predict(c echo.Context) error {
	key := c.QueryParam("imgName")
	if key == "" {
		return c.String(http.StatusBadRequest, "imgName is required")
	}

	// обрыв соединения или таймаут клиента не прерывают начатую детекцию
	ctx := context.WithoutCancel(c.Request().Context())
	summary, err := h.predictor.Predict(ctx, key)
	if err != nil {
		return c.String(statusFor(err), err.Error())
	}

	return c.JSON(http.StatusOK, summary)
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrInvalidKey):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrResultNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
