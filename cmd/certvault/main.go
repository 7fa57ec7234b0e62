// Package main 启动应用程序
package main

import (
	"os"

	"github.com/yeisme/certvault/pkg/cmd"
)

//	@title			CertVault API
//	@version		1.0
//	@description	CertVault 为名单批量生成 PDF 证书，并通过 HTTP 提供证书记录查询与文件下载。

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

//	@contact.name	yeisme
//	@contact.email	yefun2004@gmail.com.

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
