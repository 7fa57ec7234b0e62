package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/certvault/pkg/internal/handle"
)

// RegisterHealthCheckRoute 注册健康检查路由.
func RegisterHealthCheckRoute(g *gin.RouterGroup) {
	healthRoutes := g.Group("/health")
	{
		healthRoutes.GET("/db", handle.HealthDB)
		healthRoutes.GET("/files", handle.HealthFiles)
	}
}
