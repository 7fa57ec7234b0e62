package configs

import (
	"fmt"

	"github.com/spf13/viper"
)

// FilesType 证书文件存储类型.
type FilesType string

const (
	FilesLocal FilesType = "local"
	FilesS3    FilesType = "s3"
)

const (
	DefaultFilesType         = FilesLocal            // 默认写入本地目录
	DefaultLocalDir          = "public/certificates" // 默认输出目录，位于静态目录之下
	DefaultS3Endpoint        = "localhost:9000"      // 默认S3端点
	DefaultS3AccessKeyID     = "minioadmin"          // 默认访问密钥ID
	DefaultS3SecretAccessKey = "minioadmin"          // 默认秘密访问密钥
	DefaultS3UseSSL          = false                 // 默认是否使用SSL
	DefaultS3BucketName      = "certificates"        // 默认存储桶名称
	DefaultS3Region          = "us-east-1"           // 默认区域
)

// FilesConfig 渲染后证书 PDF 的存储配置.
type FilesConfig struct {
	Type  FilesType   `mapstructure:"type"  rule:"oneof=local s3"`
	Local LocalConfig `mapstructure:"local"`
	S3    S3Config    `mapstructure:"s3"`
}

// LocalConfig 本地目录存储配置.
type LocalConfig struct {
	Dir string `mapstructure:"dir" rule:"required"`
}

// S3Config MinIO S3存储配置.
type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
	Region          string `mapstructure:"region"`
	Prefix          string `mapstructure:"prefix"` // 对象键前缀，例如 certificates/
}

// GetEndpointURL 获取完整的端点URL.
func (c *S3Config) GetEndpointURL() string {
	scheme := "http"
	if c.UseSSL {
		scheme = "https"
	}

	return fmt.Sprintf("%s://%s", scheme, c.Endpoint)
}

// setDefaults 设置文件存储配置的默认值.
func (c *FilesConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("files.type", DefaultFilesType)
	v.SetDefault("files.local.dir", DefaultLocalDir)
	v.SetDefault("files.s3.endpoint", DefaultS3Endpoint)
	v.SetDefault("files.s3.access_key_id", DefaultS3AccessKeyID)
	v.SetDefault("files.s3.secret_access_key", DefaultS3SecretAccessKey)
	v.SetDefault("files.s3.use_ssl", DefaultS3UseSSL)
	v.SetDefault("files.s3.bucket_name", DefaultS3BucketName)
	v.SetDefault("files.s3.region", DefaultS3Region)
	v.SetDefault("files.s3.prefix", "")
}
