//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"

	"yolo-bot/internal/domain/entity"
)

// ErrGoCVDisabled сборка без тега gocv
var ErrGoCVDisabled = errors.New("gocv build tag is not enabled")

// ONNXDetector заглушка (без OpenCV).
type ONNXDetector struct {
	ModelPath string
}

// NewONNXDetector возвращает ошибку, если сборка без тега gocv.
func NewONNXDetector(modelPath string, classes entity.ClassTable) (*ONNXDetector, error) {
	_ = classes
	return nil, ErrGoCVDisabled
}

// Detect возвращает ошибку, если сборка без тега gocv.
func (d *ONNXDetector) Detect(ctx context.Context, params entity.DetectParams) error {
	_ = ctx
	_ = params
	return ErrGoCVDisabled
}

// Close ничего не делает.
func (d *ONNXDetector) Close() error {
	return nil
}
