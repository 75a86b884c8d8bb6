package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"yolo-bot/internal/domain/entity"
	"yolo-bot/internal/domain/port"
)

// PredictionConfig параметры сервиса детекции
type PredictionConfig struct {
	StagingDir string // Корень рабочих каталогов запросов
	Weights    string // Веса модели
	Data       string // yaml с именами классов
}

// PredictionService скачивает изображение, прогоняет модель, сохраняет результат.
type PredictionService struct {
	cfg     PredictionConfig
	blobs   port.BlobStore
	docs    port.DocumentStore
	model   port.ModelRuntime
	classes entity.ClassTable
	log     *zap.SugaredLogger

	newID func() string
	now   func() time.Time
}

// NewPredictionService создаёт сервис детекции.
func NewPredictionService(cfg PredictionConfig, blobs port.BlobStore, docs port.DocumentStore, model port.ModelRuntime, classes entity.ClassTable, log *zap.SugaredLogger) *PredictionService {
	return &PredictionService{
		cfg:     cfg,
		blobs:   blobs,
		docs:    docs,
		model:   model,
		classes: classes,
		log:     log,
		newID:   uuid.NewString,
		now:     time.Now,
	}
}

// Predict обрабатывает одно изображение из хранилища и возвращает итог.
// Ошибки классифицируются через errors.Is по сентинелам из entity.
func (s *PredictionService) Predict(ctx context.Context, blobKey string) (*entity.PredictionSummary, error) {
	// id появляется до любого I/O, чтобы по нему связывались логи, ключи и документ
	id := s.newID()
	run := &predictionRun{
		id:    id,
		stage: entity.StageReceived,
		log:   s.log.With("prediction_id", id),
	}
	run.log.Infow("start processing", "key", blobKey)

	summary, err := s.predict(ctx, run, blobKey)
	if err != nil {
		run.fail(err)
		return nil, err
	}

	run.enter(entity.StageResponded)
	return summary, nil
}

func (s *PredictionService) predict(ctx context.Context, run *predictionRun, blobKey string) (*entity.PredictionSummary, error) {
	name := path.Base(blobKey)
	if blobKey == "" || name == "." || name == "/" || name == ".." {
		return nil, fmt.Errorf("%w: %q", entity.ErrInvalidKey, blobKey)
	}

	ws, err := AcquireWorkspace(s.cfg.StagingDir, run.id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrStorage, err)
	}
	defer func() {
		if err := ws.Release(); err != nil {
			run.log.Warnw("failed to remove workspace", "dir", ws.Dir(), "error", err)
		}
	}()

	original := ws.Path(name)

	run.enter(entity.StageDownloading)
	if err := s.blobs.Download(ctx, blobKey, original); err != nil {
		run.log.Errorw("error downloading image", "key", blobKey, "bucket", s.blobs.Bucket(), "error", err)
		return nil, fmt.Errorf("%w: download %s: %w", entity.ErrStorage, blobKey, err)
	}
	run.log.Infow("image downloaded", "key", blobKey, "path", original)

	run.enter(entity.StageDetecting)
	err = s.model.Detect(ctx, entity.DetectParams{
		Weights: s.cfg.Weights,
		Data:    s.cfg.Data,
		Source:  original,
		Project: ws.OutputDir(),
		Name:    run.id,
		SaveTxt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrInference, err)
	}
	run.log.Infow("detection done", "path", original)

	resultDir := filepath.Join(ws.OutputDir(), run.id)
	predictedPath := filepath.Join(resultDir, name)
	labelsPath := filepath.Join(resultDir, "labels", strings.TrimSuffix(name, filepath.Ext(name))+".txt")
	predictedKey := path.Join(PredictionsPrefix, run.id, name)

	run.enter(entity.StageUploading)
	if err := s.uploadPredicted(ctx, run, predictedKey, predictedPath); err != nil {
		return nil, err
	}

	run.enter(entity.StageParsing)
	labels, err := readLabels(labelsPath, s.classes)
	if err != nil {
		return nil, err
	}
	run.log.Infow("prediction summary", "labels", labels)

	run.enter(entity.StagePersisting)
	summary := &entity.PredictionSummary{
		PredictionID:     run.id,
		OriginalImgPath:  blobKey,
		PredictedImgPath: predictedKey,
		Labels:           labels,
		Time:             float64(s.now().UnixMicro()) / 1e6,
	}

	docID, err := s.docs.InsertOne(ctx, summary)
	if err != nil {
		run.log.Errorw("error inserting prediction summary", "error", err)
		return nil, fmt.Errorf("%w: %w", entity.ErrPersistence, err)
	}
	summary.ID = docID

	return summary, nil
}

// uploadPredicted кладёт размеченное изображение под ключ, уникальный для запроса.
func (s *PredictionService) uploadPredicted(ctx context.Context, run *predictionRun, key, localPath string) error {
	if _, err := os.Stat(localPath); errors.Is(err, fs.ErrNotExist) {
		run.log.Warnw("predicted image was not produced", "path", localPath)
		return fmt.Errorf("%w: predicted image not found", entity.ErrResultNotFound)
	}

	if err := s.blobs.PutFile(ctx, key, localPath); err != nil {
		run.log.Errorw("error uploading predicted image", "key", key, "bucket", s.blobs.Bucket(), "error", err)
		return fmt.Errorf("%w: upload %s: %w", entity.ErrStorage, key, err)
	}
	run.log.Infow("predicted image uploaded", "key", key, "bucket", s.blobs.Bucket())

	return nil
}

func readLabels(labelsPath string, classes entity.ClassTable) ([]entity.DetectionLabel, error) {
	f, err := os.Open(labelsPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: no label file", entity.ErrResultNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open labels: %w", entity.ErrMalformedLabel, err)
	}
	defer f.Close()

	return entity.ParseLabels(f, classes)
}

// predictionRun ведёт этапы одного запроса и пишет их в лог.
type predictionRun struct {
	id    string
	stage entity.PredictionStage
	log   *zap.SugaredLogger
}

// enter переводит запрос на следующий этап. Из конечного этапа выхода нет.
func (r *predictionRun) enter(stage entity.PredictionStage) {
	if r.stage.Terminal() {
		r.log.Warnw("stage change after completion ignored", "stage", r.stage, "to", stage)
		return
	}
	r.log.Debugw("stage changed", "from", r.stage, "to", stage)
	r.stage = stage
}

func (r *predictionRun) fail(err error) {
	if r.stage.Terminal() {
		r.log.Warnw("failure after completion ignored", "stage", r.stage, "error", err)
		return
	}
	if errors.Is(err, entity.ErrResultNotFound) {
		r.log.Infow("prediction result not found", "stage", r.stage, "reason", err)
	} else {
		r.log.Errorw("prediction failed", "stage", r.stage, "error", err)
	}
	r.stage = entity.StageFailed
}
