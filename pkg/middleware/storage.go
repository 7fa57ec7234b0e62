package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/certvault/pkg/context"
	"github.com/yeisme/certvault/pkg/internal/storage"
)

// StorageMiddleware 把启动时建立的存储注入每个请求的 context，所有请求共享同一连接.
func StorageMiddleware(manager *storage.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.WithStorageManager(c.Request.Context(), manager)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
