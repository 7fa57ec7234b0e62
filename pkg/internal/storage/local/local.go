// Package local 把证书 PDF 写入本地目录，通常位于静态目录之下.
package local

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/yeisme/certvault/pkg/configs"
)

// Dir 本地目录文件存储.
type Dir struct {
	root string
}

// New 创建目录（如不存在）.
func New(cfg *configs.LocalConfig) (*Dir, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", cfg.Dir, err)
	}

	return &Dir{root: cfg.Dir}, nil
}

// Root 返回根目录.
func (d *Dir) Root() string { return d.root }

// Put 覆盖写入 name；先写临时文件再 rename，读者不会看到半个文件.
func (d *Dir) Put(_ context.Context, name string, data []byte) error {
	target, err := d.path(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(d.root, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("write %s: %w", name, err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("close %s: %w", name, err)
	}

	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("chmod %s: %w", name, err)
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("rename %s: %w", name, err)
	}

	return nil
}

// Open 打开 name，不存在时返回的错误满足 errors.Is(err, fs.ErrNotExist).
func (d *Dir) Open(_ context.Context, name string) (io.ReadCloser, int64, error) {
	p, err := d.path(name)
	if err != nil {
		return nil, 0, err
	}

	f, err := os.Open(p)
	if err != nil {
		return nil, 0, err
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()

		return nil, 0, err
	}

	if info.IsDir() {
		_ = f.Close()

		return nil, 0, &fs.PathError{Op: "open", Path: p, Err: fs.ErrNotExist}
	}

	return f, info.Size(), nil
}

// HealthCheck 确认目录存在且可访问.
func (d *Dir) HealthCheck(_ context.Context) error {
	info, err := os.Stat(d.root)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", d.root)
	}

	return nil
}

// path 只接受单层文件名.
func (d *Dir) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid file name %q", name)
	}

	return filepath.Join(d.root, name), nil
}
