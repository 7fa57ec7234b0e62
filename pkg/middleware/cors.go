package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSMiddleware CORS中间件，查询服务只读，只放行 GET/HEAD.
func CORSMiddleware() gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "HEAD", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "If-None-Match", RequestIDHeader}
	config.ExposeHeaders = []string{"ETag", RequestIDHeader}
	config.AllowFiles = true

	return cors.New(config)
}
