package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Workspace рабочий каталог одного запроса детекции: <root>/<prediction id>.
type Workspace struct {
	dir string
}

// AcquireWorkspace создаёт каталог запроса. Повторный вызов безопасен.
// Путь всегда абсолютный: модель запускается из своего каталога.
func AcquireWorkspace(root, predictionID string) (*Workspace, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve staging dir %s: %w", root, err)
	}

	ws := &Workspace{dir: filepath.Join(absRoot, predictionID)}
	if err := os.MkdirAll(ws.OutputDir(), 0o755); err != nil {
		return nil, fmt.Errorf("create workspace %s: %w", ws.dir, err)
	}
	return ws, nil
}

// Dir корень рабочего каталога
func (w *Workspace) Dir() string {
	return w.dir
}

// Path путь к файлу внутри рабочего каталога
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// OutputDir каталог, куда модель пишет результаты
func (w *Workspace) OutputDir() string {
	return filepath.Join(w.dir, "runs")
}

// Release удаляет рабочий каталог со всем содержимым
func (w *Workspace) Release() error {
	return os.RemoveAll(w.dir)
}
