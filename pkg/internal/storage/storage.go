// Package storage 聚合证书记录存储、证书文件存储与可选的查询缓存.
//
// Example:
//
//	mgr, err := storage.New(ctx, configs.GetConfig())
//	if err != nil {
//	    // 处理错误
//	}
//	defer mgr.Close()
//
//	cert, err := mgr.Store.UpsertCertificate(ctx, "Ahmad Fauzi", "/certificates/sertifikat-ahmad-fauzi.pdf")
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/yeisme/certvault/pkg/cache"
	"github.com/yeisme/certvault/pkg/configs"
	"github.com/yeisme/certvault/pkg/internal/model"
	dbc "github.com/yeisme/certvault/pkg/internal/storage/db"
	"github.com/yeisme/certvault/pkg/internal/storage/kv"
	"github.com/yeisme/certvault/pkg/internal/storage/local"
	mongoc "github.com/yeisme/certvault/pkg/internal/storage/mongo"
	s3c "github.com/yeisme/certvault/pkg/internal/storage/s3"
	nlog "github.com/yeisme/certvault/pkg/log"
)

// CertificateStore 证书记录存储.
type CertificateStore interface {
	// UpsertCertificate 按 name 创建或更新记录.
	UpsertCertificate(ctx context.Context, name, filePath string) (*model.Certificate, error)
	// FindAllCertificates 返回全部记录，顺序不保证.
	FindAllCertificates(ctx context.Context) ([]model.Certificate, error)
	HealthCheck(ctx context.Context) error
	Close() error
}

// FileStore 证书 PDF 存储. Open 找不到文件时返回 fs.ErrNotExist.
type FileStore interface {
	Put(ctx context.Context, name string, data []byte) error
	Open(ctx context.Context, name string) (io.ReadCloser, int64, error)
	HealthCheck(ctx context.Context) error
}

var (
	_ CertificateStore = (*dbc.Client)(nil)
	_ CertificateStore = (*mongoc.Client)(nil)
	_ FileStore        = (*local.Dir)(nil)
	_ FileStore        = (*s3c.Client)(nil)
)

// Manager 聚合所有存储资源. Cache 为 nil 表示未启用缓存.
type Manager struct {
	Store    CertificateStore
	Files    FileStore
	Cache    *cache.Cache
	CacheTTL time.Duration

	closeOnce sync.Once
	closeErr  error
}

type options struct {
	withCache bool
}

// Option 配置 New.
type Option func(*options)

// WithoutCache 即使配置开启也不创建查询缓存，generate 命令使用.
func WithoutCache() Option {
	return func(o *options) { o.withCache = false }
}

// New 按配置打开文档存储、文件存储，cache.enabled 时附加查询缓存.
// 任一步失败都会关闭已打开的资源.
func New(ctx context.Context, cfg *configs.AppConfig, opts ...Option) (*Manager, error) {
	o := options{withCache: cfg.Cache.Enabled}
	for _, opt := range opts {
		opt(&o)
	}

	store, err := NewCertificateStore(ctx, &cfg.DB, cfg.Metrics.Enabled)
	if err != nil {
		return nil, err
	}

	m := &Manager{Store: store}

	if m.Files, err = NewFileStore(ctx, &cfg.Files); err != nil {
		_ = m.Close()

		return nil, err
	}

	if o.withCache {
		kvStore, err := kv.NewFromConfig(ctx, &cfg.Cache)
		if err != nil {
			_ = m.Close()

			return nil, fmt.Errorf("init cache: %w", err)
		}

		m.Cache = cache.NewCache(kvStore)
		m.CacheTTL = cfg.Cache.TTL
	}

	nlog.Logger().Info().
		Str("db", cfg.DB.GetDBType()).
		Str("files", string(cfg.Files.Type)).
		Bool("cache", m.Cache != nil).
		Msg("storage manager initialized")

	return m, nil
}

// NewCertificateStore 根据 db.type 选择 MongoDB 或 gorm 后端.
func NewCertificateStore(ctx context.Context, cfg *configs.DBConfig, metrics bool) (CertificateStore, error) {
	if cfg.IsDocumentStore() {
		return mongoc.New(ctx, cfg)
	}

	return dbc.New(ctx, cfg, dbc.Options{Metrics: metrics})
}

// NewFileStore 根据 files.type 选择本地目录或对象存储.
func NewFileStore(ctx context.Context, cfg *configs.FilesConfig) (FileStore, error) {
	switch cfg.Type {
	case configs.FilesS3:
		return s3c.New(ctx, &cfg.S3)
	case configs.FilesLocal, "":
		return local.New(&cfg.Local)
	default:
		return nil, fmt.Errorf("unsupported files type: %s", cfg.Type)
	}
}

// Close 关闭所有资源，只执行一次，重复调用返回首次结果.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		var errs []error

		if m.Store != nil {
			if err := m.Store.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close store: %w", err))
			}
		}

		if m.Cache != nil {
			if err := m.Cache.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close cache: %w", err))
			}
		}

		m.closeErr = errors.Join(errs...)
	})

	return m.closeErr
}
