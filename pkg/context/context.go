// Package context 在请求的 context 上挂载共享存储和带请求信息的 logger.
//
// 查询服务启动时只建立一次存储连接，StorageMiddleware 把同一个 *storage.Manager
// 放进每个请求的 context；处理器与 service 通过这里的访问函数取用.
package context

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/certvault/pkg/internal/storage"
	nlog "github.com/yeisme/certvault/pkg/log"
)

type ContextKey string

const (
	StorageManagerKey ContextKey = "storageManager"
	LoggerKey         ContextKey = "logger"
)

// WithStorageManager 将 Manager 存储到 context 中.
func WithStorageManager(ctx context.Context, mgr *storage.Manager) context.Context {
	return context.WithValue(ctx, StorageManagerKey, mgr)
}

// GetManager 从 context 中获取 Manager，未注入时返回 nil.
func GetManager(ctx context.Context) *storage.Manager {
	if mgr, ok := ctx.Value(StorageManagerKey).(*storage.Manager); ok {
		return mgr
	}

	return nil
}

// GetStore 返回证书记录存储.
func GetStore(ctx context.Context) storage.CertificateStore {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.Store
	}

	return nil
}

// GetFileStore 返回证书文件存储.
func GetFileStore(ctx context.Context) storage.FileStore {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.Files
	}

	return nil
}

// WithLogger 把请求级 logger 存入 context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// Logger 返回请求级 logger；没有时退回全局 logger，并附带当前 span 的 trace 信息.
func Logger(ctx context.Context) zerolog.Logger {
	logger, ok := ctx.Value(LoggerKey).(zerolog.Logger)
	if !ok {
		logger = *nlog.Logger()
	}

	return WithTraceContext(ctx, logger)
}

// WithTraceContext 创建带有追踪上下文的logger.
func WithTraceContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		return logger.With().
			Str("trace_id", span.SpanContext().TraceID().String()).
			Str("span_id", span.SpanContext().SpanID().String()).
			Logger()
	}

	return logger
}
