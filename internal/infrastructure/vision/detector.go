//go:build gocv
// +build gocv

package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gocv.io/x/gocv"

	"yolo-bot/internal/domain/entity"
)

// ONNXDetector прогоняет YOLOv5, экспортированную в ONNX, через OpenCV DNN.
// Результаты пишутся в том же виде, что и у detect.py: изображение с рамками
// и labels/<stem>.txt.
type ONNXDetector struct {
	ModelPath           string
	InputSize           int
	ConfidenceThreshold float32
	ScoreThreshold      float32
	NMSThreshold        float32

	classes entity.ClassTable
	net     gocv.Net
	// gocv.Net не потокобезопасен
	mu sync.Mutex
}

// NewONNXDetector загружает сеть из onnx-файла.
func NewONNXDetector(modelPath string, classes entity.ClassTable) (*ONNXDetector, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file: %w", err)
	}

	net := gocv.ReadNetFromONNX(modelPath)
	if net.Empty() {
		return nil, errors.New("failed to load network")
	}
	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, fmt.Errorf("set backend: %w", err)
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, fmt.Errorf("set target: %w", err)
	}

	return &ONNXDetector{
		ModelPath:           modelPath,
		InputSize:           640,
		ConfidenceThreshold: 0.25,
		ScoreThreshold:      0.25,
		NMSThreshold:        0.45,
		classes:             classes,
		net:                 net,
	}, nil
}

type detection struct {
	classID int
	score   float32
	box     image.Rectangle
	// нормированные cx, cy, w, h
	norm [4]float64
}

// Detect запускает сеть на params.Source.
func (d *ONNXDetector) Detect(ctx context.Context, params entity.DetectParams) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	mat := gocv.IMRead(params.Source, gocv.IMReadColor)
	if mat.Empty() {
		return fmt.Errorf("failed to read image %s", params.Source)
	}
	defer mat.Close()

	detections, err := d.forward(mat)
	if err != nil {
		return err
	}

	outDir := filepath.Join(params.Project, params.Name)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	name := filepath.Base(params.Source)
	d.draw(&mat, detections)
	if ok := gocv.IMWrite(filepath.Join(outDir, name), mat); !ok {
		return fmt.Errorf("failed to write annotated image")
	}

	if !params.SaveTxt || len(detections) == 0 {
		return nil
	}
	return writeLabels(filepath.Join(outDir, "labels", strings.TrimSuffix(name, filepath.Ext(name))+".txt"), detections)
}

func (d *ONNXDetector) forward(mat gocv.Mat) ([]detection, error) {
	size := d.InputSize
	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(size, size), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.mu.Lock()
	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	d.mu.Unlock()
	defer output.Close()

	// Выход YOLOv5: [1, N, 5+classes]: cx, cy, w, h, objectness, scores...
	dims := output.Size()
	if len(dims) != 3 || dims[2] <= 5 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}
	rows, stride := dims[1], dims[2]

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}

	xFactor := float64(mat.Cols()) / float64(size)
	yFactor := float64(mat.Rows()) / float64(size)

	var (
		candidates []detection
		boxes      []image.Rectangle
		scores     []float32
	)
	for i := 0; i < rows; i++ {
		row := data[i*stride : (i+1)*stride]
		objectness := row[4]
		if objectness < d.ConfidenceThreshold {
			continue
		}

		classID, best := 0, float32(0)
		for c, s := range row[5:] {
			if s > best {
				classID, best = c, s
			}
		}
		score := objectness * best
		if score < d.ScoreThreshold {
			continue
		}

		cx, cy, w, h := float64(row[0]), float64(row[1]), float64(row[2]), float64(row[3])
		left := int((cx - w/2) * xFactor)
		top := int((cy - h/2) * yFactor)
		box := image.Rect(left, top, left+int(w*xFactor), top+int(h*yFactor))

		candidates = append(candidates, detection{
			classID: classID,
			score:   score,
			box:     box,
			norm:    [4]float64{cx / float64(size), cy / float64(size), w / float64(size), h / float64(size)},
		})
		boxes = append(boxes, box)
		scores = append(scores, score)
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	indices := gocv.NMSBoxes(boxes, scores, d.ScoreThreshold, d.NMSThreshold)
	result := make([]detection, 0, len(indices))
	for _, idx := range indices {
		result = append(result, candidates[idx])
	}
	return result, nil
}

// draw рисует рамки и подписи классов
func (d *ONNXDetector) draw(mat *gocv.Mat, detections []detection) {
	red := color.RGBA{R: 255, A: 255}
	for _, det := range detections {
		gocv.Rectangle(mat, det.box, red, 2)

		name, ok := d.classes.Name(det.classID)
		if !ok {
			name = fmt.Sprintf("class%d", det.classID)
		}
		label := fmt.Sprintf("%s %.2f", name, det.score)
		gocv.PutText(mat, label, image.Pt(det.box.Min.X, det.box.Min.Y-5), gocv.FontHersheySimplex, 0.5, red, 1)
	}
}

// Close освобождает сеть
func (d *ONNXDetector) Close() error {
	return d.net.Close()
}

func writeLabels(path string, detections []detection) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	var b strings.Builder
	for _, det := range detections {
		fmt.Fprintf(&b, "%d %g %g %g %g\n", det.classID, det.norm[0], det.norm[1], det.norm[2], det.norm[3])
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
