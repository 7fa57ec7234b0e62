// Package slug 把参与者姓名规范化为文件名与 URL 安全的片段，并推导证书文件名与访问路径.
//
// 规则：转小写，空格替换为 "-"，再删除所有 [a-z0-9-] 之外的字符.
// 全部由标点组成的姓名会得到空 slug，因而共享文件名 sertifikat-.pdf，
// 不同姓名也可能得到同一个 slug，这里不做去重.
package slug

import (
	"path"
	"strings"
)

const (
	// FilePrefix 证书文件名前缀.
	FilePrefix = "sertifikat-"
	// FileExt 证书文件扩展名.
	FileExt = ".pdf"
)

// Make 返回 name 的 slug，纯函数.
func Make(name string) string {
	lower := strings.ReplaceAll(strings.ToLower(name), " ", "-")

	var b strings.Builder

	b.Grow(len(lower))

	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}

	return b.String()
}

// FileName 返回 name 对应的证书文件名 sertifikat-<slug>.pdf.
func FileName(name string) string {
	return FilePrefix + Make(name) + FileExt
}

// PublicPath 返回证书的对外访问路径，例如 /certificates/sertifikat-ayu-latifah.pdf.
func PublicPath(prefix, file string) string {
	if prefix == "" {
		prefix = "/"
	}

	return path.Join("/", prefix, file)
}

// IsCertificateFile 判断 file 是否符合证书文件命名，用于拒绝路径穿越等非法请求.
func IsCertificateFile(file string) bool {
	if !strings.HasPrefix(file, FilePrefix) || !strings.HasSuffix(file, FileExt) {
		return false
	}

	body := strings.TrimSuffix(strings.TrimPrefix(file, FilePrefix), FileExt)

	return Make(body) == body
}
