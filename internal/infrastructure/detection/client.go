package detection

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"yolo-bot/internal/domain/entity"
	"yolo-bot/internal/domain/port"
)

const maxBodySize = 4 << 20

// Config параметры клиента сервиса детекции
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client ходит в сервис детекции по HTTP
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        *zap.SugaredLogger
}

// NewClient создаёт клиента. Таймаут по умолчанию 2 минуты: модель работает долго,
// но висеть вечно запрос не должен.
func NewClient(cfg Config, log *zap.SugaredLogger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		log:        log,
	}
}

// Predict запрашивает детекцию. Сетевые ошибки, таймаут и не-2xx ответы
// сворачиваются в Failure, 404 в NotFound.
func (c *Client) Predict(ctx context.Context, blobKey string) entity.DetectionOutcome {
	endpoint := c.baseURL + "/predict?" + url.Values{"imgName": {blobKey}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return c.failure(blobKey, fmt.Errorf("create request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.failure(blobKey, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return c.failure(blobKey, fmt.Errorf("read response: %w", err))
	}
	c.log.Infow("response from detector", "key", blobKey, "status", resp.StatusCode, "bytes", len(body))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return entity.NotFound(strings.TrimSpace(string(body)))
	case resp.StatusCode != http.StatusOK:
		return c.failure(blobKey, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var summary entity.PredictionSummary
	if err := json.Unmarshal(body, &summary); err != nil {
		return c.failure(blobKey, fmt.Errorf("decode response: %w", err))
	}

	return entity.Success(&summary)
}

func (c *Client) failure(blobKey string, err error) entity.DetectionOutcome {
	err = fmt.Errorf("%w: %w", entity.ErrInferenceUnavailable, err)
	c.log.Errorw("failed to send to detector", "key", blobKey, "error", err)
	return entity.Failure(err.Error())
}

var _ port.DetectionClient = (*Client)(nil)
