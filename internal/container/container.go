package container

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"yolo-bot/config"
	"yolo-bot/internal/domain/port"
	"yolo-bot/internal/infrastructure/blobstore"
	"yolo-bot/internal/logger"
)

// WithLogger направляет события fx в zap
func WithLogger() fx.Option {
	return fx.WithLogger(func(log *zap.SugaredLogger) fxevent.Logger {
		return &fxevent.ZapLogger{Logger: log.Desugar()}
	})
}

func newLogger(cfg config.Log) (*zap.SugaredLogger, error) {
	return logger.New(cfg.Level, cfg.Format)
}

func newBlobStore(cfg config.S3) (port.BlobStore, error) {
	client, err := blobstore.NewS3Client(context.Background(), blobstore.Config{
		Bucket:          cfg.Bucket,
		Region:          cfg.Region,
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}
	return blobstore.NewS3Store(client, cfg.Bucket), nil
}

func syncLogger(lc fx.Lifecycle, log *zap.SugaredLogger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = log.Sync()
			return nil
		},
	})
}
