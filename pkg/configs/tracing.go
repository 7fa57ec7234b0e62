package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultTracingExporter = "otlp-http"             // 默认导出器
	DefaultTracingEndpoint = "http://localhost:4318" // OTLP HTTP 默认端点
	DefaultMaxBatchSize    = 512                     // 单批导出的最大 span 数
	DefaultMaxQueueSize    = 2048                    // 等待导出的最大 span 数
)

// TracingConfig OpenTelemetry 追踪配置，默认关闭.
// generate 与 serve 共用：generate 为每个名字的渲染和 upsert 记录 span，serve 为每个请求记录 span.
type TracingConfig struct {
	Enabled        bool              `mapstructure:"enabled"`
	ServiceName    string            `mapstructure:"service_name"    rule:"required_if=Enabled true"`
	ServiceVersion string            `mapstructure:"service_version"`
	ExporterType   string            `mapstructure:"exporter_type"   rule:"oneof=otlp-http otlp-grpc zipkin"`
	Endpoint       string            `mapstructure:"endpoint"        rule:"required_if=Enabled true"`
	Insecure       bool              `mapstructure:"insecure"` // otlp-grpc 不使用 TLS
	SampleRate     float64           `mapstructure:"sample_rate"     rule:"gte=0,lte=1"`
	BatchTimeout   time.Duration     `mapstructure:"batch_timeout"   rule:"gte=0"`
	MaxBatchSize   int               `mapstructure:"max_batch_size"  rule:"gt=0"`
	MaxQueueSize   int               `mapstructure:"max_queue_size"  rule:"gtefield=MaxBatchSize"`
	ResourceLabels map[string]string `mapstructure:"resource_labels"` // 附加到 resource 的标签，例如 deployment.environment
}

// setDefaults 设置Tracing配置的默认值.
func (c *TracingConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "certvault")
	v.SetDefault("tracing.service_version", AppVersion)
	v.SetDefault("tracing.exporter_type", DefaultTracingExporter)
	v.SetDefault("tracing.endpoint", DefaultTracingEndpoint)
	v.SetDefault("tracing.insecure", true)
	v.SetDefault("tracing.sample_rate", 1.0)
	v.SetDefault("tracing.batch_timeout", "5s")
	v.SetDefault("tracing.max_batch_size", DefaultMaxBatchSize)
	v.SetDefault("tracing.max_queue_size", DefaultMaxQueueSize)
}
