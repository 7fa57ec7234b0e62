// Package router 把查询服务的路径绑定到 pkg/internal/handle 提供的处理器.
package router

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/certvault/pkg/configs"
	"github.com/yeisme/certvault/pkg/internal/handle"
)

// Register 绑定全部路由：
//
//	GET /                      -> 落地页
//	GET /all-certificates      -> 全部证书记录
//	GET <prefix>/:file         -> 证书 PDF
//	GET /api/v1/health/*       -> 健康检查
//	其它 GET 路径               -> public 目录下的静态文件
func Register(r *gin.Engine, cfg *configs.AppConfig) {
	publicDir := cfg.Server.PublicDir

	r.GET("/", handle.Index(publicDir))
	r.HEAD("/", handle.Index(publicDir))
	r.GET("/all-certificates", handle.ListCertificates)

	prefix := cfg.Generator.PublicPrefix
	if prefix == "" {
		prefix = configs.DefaultPublicPrefix
	}

	r.GET(path.Join("/", prefix, ":file"), handle.GetCertificateFile)

	RegisterHealthCheckRoute(r.Group("/api/v1"))
	RegisterSwaggerRoute(r, cfg.Server)

	r.NoRoute(handle.Static(publicDir))
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"message": "method not allowed"})
	})
}
