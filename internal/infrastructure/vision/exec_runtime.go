package vision

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"go.uber.org/zap"

	"yolo-bot/internal/domain/entity"
)

// ExecRuntime запускает detect.py из репозитория yolov5 отдельным процессом.
type ExecRuntime struct {
	Python string // Интерпретатор, по умолчанию python
	Script string // Путь к detect.py относительно Dir
	Dir    string // Каталог репозитория yolov5

	log *zap.SugaredLogger
}

// NewExecRuntime создаёт рантайм. Пустые поля заменяются значениями по умолчанию.
func NewExecRuntime(python, dir string, log *zap.SugaredLogger) *ExecRuntime {
	if python == "" {
		python = "python"
	}
	return &ExecRuntime{
		Python: python,
		Script: "detect.py",
		Dir:    dir,
		log:    log,
	}
}

// Args аргументы командной строки detect.py
func (r *ExecRuntime) Args(params entity.DetectParams) []string {
	args := []string{
		r.Script,
		"--weights", params.Weights,
		"--data", params.Data,
		"--source", params.Source,
		"--project", params.Project,
		"--name", params.Name,
	}
	if params.SaveTxt {
		args = append(args, "--save-txt")
	}
	// каталог запроса уже создан, yolov5 иначе добавит суффикс к имени
	return append(args, "--exist-ok")
}

// Detect блокируется до завершения процесса. Отмена ctx убивает процесс.
func (r *ExecRuntime) Detect(ctx context.Context, params entity.DetectParams) error {
	cmd := exec.CommandContext(ctx, r.Python, r.Args(params)...)
	cmd.Dir = r.Dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	r.log.Debugw("running model", "cmd", cmd.String())
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w: %s", r.Script, err, lastLine(stderr.Bytes()))
	}
	return nil
}

func lastLine(out []byte) string {
	out = bytes.TrimRight(out, "\n")
	if i := bytes.LastIndexByte(out, '\n'); i >= 0 {
		out = out[i+1:]
	}
	return string(out)
}
