package vision

import (
	"fmt"

	"go.uber.org/zap"

	"yolo-bot/internal/domain/entity"
	"yolo-bot/internal/domain/port"
)

// Виды рантайма модели
const (
	RuntimeExec = "exec"
	RuntimeGoCV = "gocv"
)

// RuntimeConfig настройки выбора рантайма
type RuntimeConfig struct {
	Kind   string
	Python string
	Dir    string
	ONNX   string
}

// NewRuntime собирает рантайм по cfg.Kind.
func NewRuntime(cfg RuntimeConfig, classes entity.ClassTable, log *zap.SugaredLogger) (port.ModelRuntime, error) {
	switch cfg.Kind {
	case "", RuntimeExec:
		return NewExecRuntime(cfg.Python, cfg.Dir, log), nil
	case RuntimeGoCV:
		detector, err := NewONNXDetector(cfg.ONNX, classes)
		if err != nil {
			return nil, fmt.Errorf("onnx runtime: %w", err)
		}
		return detector, nil
	default:
		return nil, fmt.Errorf("unknown model runtime %q", cfg.Kind)
	}
}
