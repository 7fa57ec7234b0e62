package configs

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultHost         = "0.0.0.0" // 监听地址
	DefaultPublicDir    = "public"  // 静态文件目录
	DefaultReloadConfig = false     // 是否启用配置热重载
	DefaultDebug        = false     // 是否启用调试模式
	DefaultTimeout      = 30        // 超时时间，单位秒
)

type (
	// ServerConfig 服务器配置.
	// Port 没有默认值，必须通过配置文件或 PORT / CERTVAULT_SERVER_PORT 提供.
	ServerConfig struct {
		Port         int    `mapstructure:"port"          rule:"required,min=1,max=65535"`
		Host         string `mapstructure:"host"          rule:"omitempty,ip"`
		PublicDir    string `mapstructure:"public_dir"    rule:"required"`
		ReloadConfig bool   `mapstructure:"reload_config"`
		Debug        bool   `mapstructure:"debug"`
		Timeout      int    `mapstructure:"timeout"       rule:"min=1,max=300"`
	}
)

// GetTimeoutDuration 返回超时时间作为time.Duration.
func (s *ServerConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}

// Addr 返回监听地址.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// setDefaults 设置服务器配置的默认值.
func (s *ServerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", DefaultHost)
	v.SetDefault("server.public_dir", DefaultPublicDir)
	v.SetDefault("server.reload_config", DefaultReloadConfig)
	v.SetDefault("server.debug", DefaultDebug)
	v.SetDefault("server.timeout", DefaultTimeout)
}
