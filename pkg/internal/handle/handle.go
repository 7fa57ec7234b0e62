// Package handle 提供查询服务的 HTTP 处理器.
package handle

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/certvault/pkg/internal/types"
)

// writeJSONWithETag 输出 JSON 并带上 xxhash ETag，If-None-Match 命中时返回 304.
func writeJSONWithETag(c *gin.Context, status int, body []byte) {
	etag := fmt.Sprintf("\"%x\"", xxhash.Sum64(body))
	c.Header("ETag", etag)

	if match := c.GetHeader("If-None-Match"); match != "" && etagMatches(match, etag) {
		c.Status(http.StatusNotModified)

		return
	}

	c.Data(status, "application/json; charset=utf-8", body)
}

func etagMatches(header, etag string) bool {
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if part == "*" || strings.TrimPrefix(part, "W/") == etag {
			return true
		}
	}

	return false
}

func message(c *gin.Context, status int, msg string) {
	c.JSON(status, types.MessageResponse{Message: msg})
}
