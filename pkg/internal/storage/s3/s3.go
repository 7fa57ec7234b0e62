// Package s3 把证书 PDF 写入 MinIO / S3 兼容的对象存储.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"path"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yeisme/certvault/pkg/configs"
	nlog "github.com/yeisme/certvault/pkg/log"
)

const contentTypePDF = "application/pdf"

// Client 包装 MinIO 客户端.
type Client struct {
	*minio.Client
	bucket string
	prefix string
}

// New 初始化 MinIO 客户端，若 bucket 不存在则创建.
func New(ctx context.Context, cfg *configs.S3Config) (*Client, error) {
	endpoint := cfg.Endpoint
	secure := cfg.UseSSL
	// 允许用户传完整 schema endpoint（http:// 或 https://）
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		if u.Scheme == "https" {
			secure = true
		}
	}

	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	cli.SetAppInfo("certvault", configs.AppVersion)

	exists, err := cli.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.BucketName, err)
	}

	if !exists {
		if err := cli.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.BucketName, err)
		}

		nlog.Logger().Info().Str("bucket", cfg.BucketName).Msg("bucket created")
	}

	nlog.Logger().Info().Str("endpoint", cfg.Endpoint).Str("bucket", cfg.BucketName).Msg("s3 connected")

	return &Client{Client: cli, bucket: cfg.BucketName, prefix: cfg.Prefix}, nil
}

// Key 返回 name 对应的对象键.
func (c *Client) Key(name string) string {
	if c.prefix == "" {
		return name
	}

	return path.Join(c.prefix, name)
}

// Put 覆盖写入对象.
func (c *Client) Put(ctx context.Context, name string, data []byte) error {
	_, err := c.PutObject(ctx, c.bucket, c.Key(name), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentTypePDF,
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", c.Key(name), err)
	}

	return nil
}

// Open 读取对象，不存在时返回的错误满足 errors.Is(err, fs.ErrNotExist).
func (c *Client) Open(ctx context.Context, name string) (io.ReadCloser, int64, error) {
	obj, err := c.GetObject(ctx, c.bucket, c.Key(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, fmt.Errorf("get object %s: %w", c.Key(name), err)
	}

	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()

		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, 0, &fs.PathError{Op: "open", Path: c.Key(name), Err: fs.ErrNotExist}
		}

		return nil, 0, fmt.Errorf("stat object %s: %w", c.Key(name), err)
	}

	return obj, info.Size, nil
}

// HealthCheck 确认 bucket 可访问.
func (c *Client) HealthCheck(ctx context.Context) error {
	ok, err := c.BucketExists(ctx, c.bucket)
	if err != nil {
		return err
	}

	if !ok {
		return fmt.Errorf("bucket %s not found", c.bucket)
	}

	return nil
}
