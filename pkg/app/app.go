// Package app 组装查询服务：存储、中间件、路由和 HTTP 服务器.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yeisme/certvault/pkg/configs"
	"github.com/yeisme/certvault/pkg/internal/router"
	"github.com/yeisme/certvault/pkg/internal/service"
	"github.com/yeisme/certvault/pkg/internal/storage"
	"github.com/yeisme/certvault/pkg/log"
	"github.com/yeisme/certvault/pkg/metrics"
	"github.com/yeisme/certvault/pkg/middleware"
)

type App struct {
	Engine  *gin.Engine
	config  *configs.AppConfig
	manager *storage.Manager
	server  *http.Server
}

// NewApp 建立共享存储连接并注册全部路由. 连接失败直接返回错误，调用方应退出.
func NewApp(ctx context.Context, config *configs.AppConfig) (*App, error) {
	if err := metrics.InitMetrics(config.Metrics); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	manager, err := storage.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	service.SetupBreaker(config.CircuitBreaker)

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	engine.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware(),
		middleware.GinLoggerMiddleware(),
		middleware.CORSMiddleware(),
		// PDF 已经压缩过
		gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedExtensions([]string{".pdf"})),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.RateLimitMiddleware(config.RateLimit),
		middleware.StorageMiddleware(manager),
	)

	metrics.Register(config.Metrics, engine)
	router.Register(engine, config)

	return &App{
		Engine:  engine,
		config:  config,
		manager: manager,
		server: &http.Server{
			Addr:              config.Server.Addr(),
			Handler:           engine,
			ReadHeaderTimeout: config.Server.GetTimeoutDuration(),
		},
	}, nil
}

// Run 启动服务并阻塞，收到 SIGINT/SIGTERM 或 ctx 结束后优雅关闭.
func (a *App) Run(ctx context.Context) error {
	l := log.Logger()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	configs.WatchConfig(func(c *configs.AppConfig) {
		service.SetupBreaker(c.CircuitBreaker)
		l.Info().Msg("config reloaded")
	})

	errCh := make(chan error, 1)

	go func() {
		l.Info().Str("addr", a.server.Addr).Msg("certificate query server listening")

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	var runErr error

	select {
	case err := <-errCh:
		runErr = err
	case <-ctx.Done():
		l.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.GetTimeoutDuration())
		defer cancel()

		runErr = a.server.Shutdown(shutdownCtx)
	}

	if err := a.manager.Close(); err != nil {
		l.Error().Err(err).Msg("close storage failed")
	}

	return runErr
}
