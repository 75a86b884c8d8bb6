package container

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"yolo-bot/config"
	"yolo-bot/internal/api/predict"
	app "yolo-bot/internal/application"
	"yolo-bot/internal/domain/entity"
	"yolo-bot/internal/domain/port"
	"yolo-bot/internal/infrastructure/mongodb"
	"yolo-bot/internal/infrastructure/sqlite"
	"yolo-bot/internal/infrastructure/storage"
	"yolo-bot/internal/infrastructure/vision"
	"yolo-bot/internal/server"
)

func provideDetectorLogger(cfg *config.Detector) (*zap.SugaredLogger, error) {
	return newLogger(cfg.Log)
}

func provideDetectorBlobStore(cfg *config.Detector) (port.BlobStore, error) {
	return newBlobStore(cfg.S3)
}

func provideDocumentStore(lc fx.Lifecycle, cfg *config.Detector, log *zap.SugaredLogger) (port.DocumentStore, error) {
	switch cfg.DocStore {
	case config.DocStoreMemory:
		log.Warnw("document store in memory, summaries are lost on restart", "driver", cfg.DocStore)
		return storage.NewMemoryDocumentStore(), nil

	case config.DocStoreSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return store.Close()
			},
		})
		log.Infow("document store", "driver", cfg.DocStore, "path", cfg.SQLitePath)
		return store, nil

	default:
		store, err := mongodb.Connect(context.Background(), mongodb.Config{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
		})
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return store.Close(ctx)
			},
		})
		log.Infow("document store", "driver", cfg.DocStore, "database", cfg.MongoDatabase, "collection", cfg.MongoCollection)
		return store, nil
	}
}

// dataPath путь к yaml датасета. Относительный путь считается от каталога yolov5.
func dataPath(cfg *config.Detector) string {
	if filepath.IsAbs(cfg.Data) {
		return cfg.Data
	}
	return filepath.Join(cfg.YoloDir, cfg.Data)
}

func provideClassTable(cfg *config.Detector, log *zap.SugaredLogger) (entity.ClassTable, error) {
	classes, err := vision.LoadClassTable(dataPath(cfg))
	if err != nil {
		return nil, err
	}
	log.Infow("class names loaded", "classes", len(classes))
	return classes, nil
}

func provideModelRuntime(lc fx.Lifecycle, cfg *config.Detector, classes entity.ClassTable, log *zap.SugaredLogger) (port.ModelRuntime, error) {
	runtime, err := vision.NewRuntime(vision.RuntimeConfig{
		Kind:   cfg.ModelRuntime,
		Python: cfg.PythonBin,
		Dir:    cfg.YoloDir,
		ONNX:   cfg.ONNX,
	}, classes, log)
	if err != nil {
		return nil, fmt.Errorf("model runtime: %w", err)
	}

	if closer, ok := runtime.(io.Closer); ok {
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return closer.Close()
			},
		})
	}
	return runtime, nil
}

func providePredictionService(cfg *config.Detector, blobs port.BlobStore, docs port.DocumentStore, model port.ModelRuntime, classes entity.ClassTable, log *zap.SugaredLogger) *app.PredictionService {
	return app.NewPredictionService(app.PredictionConfig{
		StagingDir: cfg.StagingDir,
		Weights:    cfg.Weights,
		Data:       cfg.Data,
	}, blobs, docs, model, classes, log)
}

func providePredictHandler(service *app.PredictionService, log *zap.SugaredLogger) *predict.Handler {
	return predict.NewHandler(service, log)
}

// StartDetector регистрирует маршруты и поднимает HTTP сервер
func StartDetector(lc fx.Lifecycle, cfg *config.Detector, e *echo.Echo, h *predict.Handler, log *zap.SugaredLogger) {
	h.RegisterRoutes(e)
	server.Start(lc, e, cfg.Addr, log)
}

// DetectorModule процесс сервиса детекции
var DetectorModule = fx.Options(
	fx.Provide(
		config.LoadDetector,
		provideDetectorLogger,
		provideDetectorBlobStore,
		provideDocumentStore,
		provideClassTable,
		provideModelRuntime,
		providePredictionService,
		providePredictHandler,
		server.NewEcho,
	),
	fx.Invoke(syncLogger, StartDetector),
)
