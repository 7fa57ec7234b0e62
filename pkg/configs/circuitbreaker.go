package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultCBFailureRate       = 0.5 // 失败比例达到该值时打开
	DefaultCBMinRequests       = 20  // 统计窗口内至少这么多次查询才判断
	DefaultCBIntervalSeconds   = 60
	DefaultCBTimeoutSeconds    = 30
	DefaultCBMaxRequestsInHalf = 5
)

// CircuitBreakerConfig 保护 /all-certificates 的存储查询，默认关闭.
// 打开后查询直接失败（仍是 500），不会重试；TimeoutSeconds 后进入半开状态试探.
type CircuitBreakerConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	FailureRate       float64 `mapstructure:"failure_rate"         rule:"gt=0,lte=1"`
	MinRequests       uint32  `mapstructure:"min_requests"         rule:"gte=1"`
	IntervalSeconds   int     `mapstructure:"interval_seconds"     rule:"gte=0"` // 0 表示闭合状态下从不清零计数
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"      rule:"gte=1"`
	MaxRequestsInHalf uint32  `mapstructure:"max_requests_in_half" rule:"gte=1"`
}

// Interval 统计窗口.
func (c *CircuitBreakerConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Timeout 打开状态持续时间.
func (c *CircuitBreakerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c *CircuitBreakerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("circuit_breaker.enabled", false)
	v.SetDefault("circuit_breaker.failure_rate", DefaultCBFailureRate)
	v.SetDefault("circuit_breaker.min_requests", DefaultCBMinRequests)
	v.SetDefault("circuit_breaker.interval_seconds", DefaultCBIntervalSeconds)
	v.SetDefault("circuit_breaker.timeout_seconds", DefaultCBTimeoutSeconds)
	v.SetDefault("circuit_breaker.max_requests_in_half", DefaultCBMaxRequestsInHalf)
}
