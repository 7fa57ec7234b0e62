// Package middleware 提供查询服务使用的 gin 中间件.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	ctxPkg "github.com/yeisme/certvault/pkg/context"
	"github.com/yeisme/certvault/pkg/log"
	"github.com/yeisme/certvault/pkg/metrics"
)

// RequestIDHeader 请求 ID 头.
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// RequestIDMiddleware 复用客户端传入的请求 ID，没有则生成一个，并回写到响应头.
// 同时在请求 context 中放入带 request_id 字段的 logger.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}

		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)

		logger := log.Logger().With().Str("request_id", id).Logger()
		c.Request = c.Request.WithContext(ctxPkg.WithLogger(c.Request.Context(), logger))

		c.Next()
	}
}

// GetRequestID 返回当前请求 ID.
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// PrometheusMiddleware 创建Gin的Prometheus中间件.
// endpoint 使用路由模板，未匹配路由的静态文件统一记为 "static"，避免标签基数失控.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "static"
		}

		metrics.ObserveRequest(c.Request.Method, endpoint, c.Writer.Status(), time.Since(start))
	}
}
