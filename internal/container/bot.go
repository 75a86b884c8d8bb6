package container

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"yolo-bot/config"
	"yolo-bot/internal/api/telegram"
	app "yolo-bot/internal/application"
	"yolo-bot/internal/domain/port"
	"yolo-bot/internal/infrastructure/dedup"
	"yolo-bot/internal/infrastructure/detection"
	"yolo-bot/internal/infrastructure/storage"
	"yolo-bot/internal/server"
)

func provideBotLogger(cfg *config.Bot) (*zap.SugaredLogger, error) {
	return newLogger(cfg.Log)
}

func provideBotBlobStore(cfg *config.Bot) (port.BlobStore, error) {
	return newBlobStore(cfg.S3)
}

func provideTelegramBot(cfg *config.Bot, log *zap.SugaredLogger) (*telegram.Bot, error) {
	return telegram.NewBot(telegram.Config{Token: cfg.TelegramToken}, log)
}

func provideChatTransport(bot *telegram.Bot) port.ChatTransport {
	return bot
}

func provideDetectionClient(cfg *config.Bot, log *zap.SugaredLogger) port.DetectionClient {
	return detection.NewClient(detection.Config{
		BaseURL: cfg.DetectorURL,
		Timeout: cfg.DetectorTimeout,
	}, log)
}

// provideDeduplicator без REDIS_ADDR помнит обновления в памяти процесса
func provideDeduplicator(lc fx.Lifecycle, cfg *config.Bot, log *zap.SugaredLogger) port.UpdateDeduplicator {
	if cfg.RedisAddr == "" {
		log.Infow("update dedup in memory", "ttl", cfg.DedupTTL)
		return storage.NewMemoryDeduplicator(cfg.DedupTTL)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	log.Infow("update dedup in redis", "addr", cfg.RedisAddr, "ttl", cfg.DedupTTL)
	return dedup.NewRedisDeduplicator(client, cfg.DedupTTL)
}

func provideEventHandler(relay *app.RelayService) port.EventHandler {
	return relay
}

// StartBot в webhook-режиме поднимает HTTP сервер, иначе запускает long polling.
func StartBot(lc fx.Lifecycle, shutdowner fx.Shutdowner, cfg *config.Bot, bot *telegram.Bot, e *echo.Echo, handler port.EventHandler, deduplicator port.UpdateDeduplicator, log *zap.SugaredLogger) {
	if cfg.TelegramAppURL != "" {
		telegram.NewWebhook(bot.Token(), handler, deduplicator, log).RegisterRoutes(e)
		server.Start(lc, e, cfg.Addr, log)
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return bot.RegisterWebhook(cfg.TelegramAppURL)
			},
		})
		return
	}

	startPolling(lc, shutdowner, bot, handler, deduplicator, log)
}

type poller interface {
	Poll(ctx context.Context, handler port.EventHandler, dedup port.UpdateDeduplicator) error
}

// startPolling крутит long polling до остановки приложения.
// Если polling упал сам, приложение завершается с кодом 1.
func startPolling(lc fx.Lifecycle, shutdowner fx.Shutdowner, p poller, handler port.EventHandler, deduplicator port.UpdateDeduplicator, log *zap.SugaredLogger) {
	var (
		cancel context.CancelFunc
		done   = make(chan struct{})
	)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			var ctx context.Context
			ctx, cancel = context.WithCancel(context.Background())
			go func() {
				defer close(done)
				if err := p.Poll(ctx, handler, deduplicator); err != nil {
					log.Errorw("polling stopped", "error", err)
					if err := shutdowner.Shutdown(fx.ExitCode(1)); err != nil {
						log.Errorw("failed to shut down", "error", err)
					}
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-ctx.Done():
			}
			return nil
		},
	})
}

// BotModule процесс Telegram-бота
var BotModule = fx.Options(
	fx.Provide(
		config.LoadBot,
		provideBotLogger,
		provideBotBlobStore,
		provideTelegramBot,
		provideChatTransport,
		provideDetectionClient,
		provideDeduplicator,
		app.NewRelayService,
		provideEventHandler,
		server.NewEcho,
	),
	fx.Invoke(syncLogger, StartBot),
)
