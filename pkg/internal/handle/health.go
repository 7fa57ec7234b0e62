package handle

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/certvault/pkg/context"
	"github.com/yeisme/certvault/pkg/internal/types"
)

const timeout = 2 * time.Second

type checker interface {
	HealthCheck(ctx context.Context) error
}

func health(c *gin.Context, component string, target checker) {
	if target == nil {
		c.JSON(http.StatusServiceUnavailable, types.HealthResponse{Component: component, Status: "unhealthy", Error: component + " not initialized"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	if err := target.HealthCheck(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, types.HealthResponse{Component: component, Status: "unhealthy", Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, types.HealthResponse{Component: component, Status: "ok"})
}

// HealthDB 证书记录存储健康检查.
//
//	@Summary	存储健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	types.HealthResponse
//	@Failure	503	{object}	types.HealthResponse
//	@Router		/api/v1/health/db [get]
func HealthDB(c *gin.Context) {
	health(c, "db", ctxPkg.GetStore(c.Request.Context()))
}

// HealthFiles 证书文件存储健康检查.
//
//	@Summary	文件存储健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	types.HealthResponse
//	@Failure	503	{object}	types.HealthResponse
//	@Router		/api/v1/health/files [get]
func HealthFiles(c *gin.Context) {
	health(c, "files", ctxPkg.GetFileStore(c.Request.Context()))
}
