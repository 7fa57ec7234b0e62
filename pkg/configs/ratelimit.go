package configs

import "github.com/spf13/viper"

// RateLimitConfig 查询服务的速率限制配置，默认关闭.
// Key 选择限流维度：global（全局共用一个桶）、ip（按客户端IP）、header:Header-Name（按请求头，缺失时回退到IP）.
type RateLimitConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	RPS     float64  `mapstructure:"rps"     rule:"required_if=Enabled true,gte=0"`
	Burst   int      `mapstructure:"burst"   rule:"required_if=Enabled true,gte=0"`
	Key     string   `mapstructure:"key"     rule:"omitempty,ratelimit_key"`
	Exempt  []string `mapstructure:"exempt"` // 不限流的路径前缀，例如健康检查
}

func (c *RateLimitConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.rps", 50.0)
	v.SetDefault("rate_limit.burst", 100)
	v.SetDefault("rate_limit.key", "ip")
	v.SetDefault("rate_limit.exempt", []string{"/api/v1/health", "/metrics"})
}
