package handle

import (
	"net/http"
	"path"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/certvault/pkg/internal/types"
)

// Static 在 publicDir 下查找请求路径对应的文件，用作 NoRoute 处理器.
// 目录只在包含 index.html 时返回；非 GET/HEAD 或文件不存在时返回 404 JSON.
func Static(publicDir string) gin.HandlerFunc {
	fsys := gin.Dir(publicDir, false)
	fileServer := http.FileServer(fsys)

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			message(c, http.StatusNotFound, types.MsgNotFound)

			return
		}

		if !servable(fsys, path.Clean("/"+c.Request.URL.Path)) {
			message(c, http.StatusNotFound, types.MsgNotFound)

			return
		}

		fileServer.ServeHTTP(c.Writer, c.Request)
	}
}

func servable(fsys http.FileSystem, name string) bool {
	f, err := fsys.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false
	}

	if !info.IsDir() {
		return true
	}

	index, err := fsys.Open(path.Join(name, "index.html"))
	if err != nil {
		return false
	}

	_ = index.Close()

	return true
}

// Index 返回落地页.
func Index(publicDir string) gin.HandlerFunc {
	index := filepath.Join(publicDir, "index.html")

	return func(c *gin.Context) {
		c.File(index)
	}
}
