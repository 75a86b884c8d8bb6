package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewEcho создаёт echo с логом запросов и восстановлением после паники.
func NewEcho(log *zap.SugaredLogger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURIPath: true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			// шаблон маршрута вместо пути: путь webhook содержит токен бота
			path := v.URIPath
			if route := c.Path(); route != "" {
				path = route
			}
			if v.Error != nil {
				log.Warnw("request", "method", v.Method, "path", path, "status", v.Status, "latency", v.Latency, "error", v.Error)
				return nil
			}
			log.Infow("request", "method", v.Method, "path", path, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	return e
}

// Start поднимает сервер при старте приложения и гасит при остановке.
func Start(lc fx.Lifecycle, e *echo.Echo, addr string, log *zap.SugaredLogger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Infow("http server started", "addr", addr)
				if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatalw("http server failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return e.Shutdown(ctx)
		},
	})
}
