// Package configs 管理应用程序配置，包括数据库、文件存储、生成器和服务器的配置信息.
// configs 包支持多种配置格式（YAML、JSON、TOML、dotenv），并可选启用热重载.
//
// Example:
//
//	err := configs.InitConfig("./")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	config := configs.GetConfig()
//	if err := config.ValidateServe(); err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(config.Server.Port)
//
// 环境变量使用 CERTVAULT_ 前缀，键中的 "." 替换为 "_"，例如 CERTVAULT_DB_URI.
// 兼容旧部署：MONGO_URI 映射到 db.uri，PORT 映射到 server.port.
package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀.
const EnvPrefix = "CERTVAULT"

type (
	// AppConfig 全局应用程序配置.
	AppConfig struct {
		DB             DBConfig             `mapstructure:"db"`              // DBConfig 文档存储配置
		Files          FilesConfig          `mapstructure:"files"`           // FilesConfig 证书文件存储配置
		Cache          CacheConfig          `mapstructure:"cache"`           // CacheConfig 查询缓存配置
		Server         ServerConfig         `mapstructure:"server"`          // ServerConfig 查询服务配置
		Generator      GeneratorConfig      `mapstructure:"generator"`       // GeneratorConfig 批量生成器配置
		Log            LogConfig            `mapstructure:"log"`             // LogConfig 日志相关配置
		Metrics        MetricsConfig        `mapstructure:"metrics"`         // MetricsConfig 监控配置
		Tracing        TracingConfig        `mapstructure:"tracing"`         // TracingConfig 追踪配置
		RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`      // RateLimitConfig 限流配置
		CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"` // CircuitBreakerConfig 熔断配置
	}
)

var (
	// globalConfig 全局配置实例.
	globalConfig AppConfig
	// appViper 全局 Viper 实例.
	appViper *viper.Viper
)

// envAliases 旧版部署直接使用的环境变量.
var envAliases = map[string][]string{
	"db.uri":      {EnvPrefix + "_DB_URI", "MONGO_URI"},
	"server.port": {EnvPrefix + "_SERVER_PORT", "PORT"},
}

// InitConfig 加载应用程序配置，支持多种格式(yaml、json、toml、dotenv).
// path 可以是配置文件，也可以是目录；找不到配置文件时只使用默认值和环境变量.
func InitConfig(path string) error {
	// 工作目录下的 .env 先注入进程环境，已存在的环境变量不会被覆盖
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	v, err := load(path)
	if err != nil {
		return err
	}

	appViper = v

	// 解析到全局配置
	if err := appViper.Unmarshal(&globalConfig); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return nil
}

// Load 从 path 读取配置但不修改全局实例，便于测试与一次性命令.
func Load(path string) (*AppConfig, error) {
	v, err := load(path)
	if err != nil {
		return nil, err
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func load(path string) (*viper.Viper, error) {
	v := viper.New()
	// 设置默认值
	setAllDefaults(v)

	if path == "" {
		path = "."
	}

	// 检查path是否是文件
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		// 是文件，使用SetConfigFile，Viper会自动检测类型
		v.SetConfigFile(path)
	} else {
		// 是目录，设置配置名和路径
		v.SetConfigName("config")
		v.AddConfigPath(path)
		v.AddConfigPath(filepath.Join(path, "configs"))

		exts := []string{"yaml", "yml", "json", "toml"}

		for _, ext := range exts {
			cfg := filepath.Join(path, "config."+ext)
			if _, err := os.Stat(cfg); err == nil {
				v.SetConfigFile(cfg)

				break
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, envs := range envAliases {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	// 读取配置，没有配置文件时不视为错误
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return v, nil
}

// setAllDefaults 设置所有配置的默认值.
func setAllDefaults(v *viper.Viper) {
	var (
		dbConfig             DBConfig
		filesConfig          FilesConfig
		cacheConfig          CacheConfig
		serverConfig         ServerConfig
		generatorConfig      GeneratorConfig
		logConfig            LogConfig
		metricsConfig        MetricsConfig
		tracingConfig        TracingConfig
		rateLimitConfig      RateLimitConfig
		circuitBreakerConfig CircuitBreakerConfig
	)

	dbConfig.setDefaults(v)
	filesConfig.setDefaults(v)
	cacheConfig.setDefaults(v)
	serverConfig.setDefaults(v)
	generatorConfig.setDefaults(v)
	logConfig.setDefaults(v)
	metricsConfig.setDefaults(v)
	tracingConfig.setDefaults(v)
	rateLimitConfig.setDefaults(v)
	circuitBreakerConfig.setDefaults(v)
}

// WatchConfig 在 server.reload_config 开启时监听配置文件变化并重新解析到全局配置.
func WatchConfig(onChange func(*AppConfig)) {
	if appViper == nil || !globalConfig.Server.ReloadConfig || appViper.ConfigFileUsed() == "" {
		return
	}

	appViper.OnConfigChange(func(e fsnotify.Event) {
		fmt.Println("Config file changed:", e.Name)

		if err := appViper.Unmarshal(&globalConfig); err != nil {
			fmt.Printf("Error reloading config: %v\n", err)

			return
		}

		if onChange != nil {
			onChange(&globalConfig)
		}
	})
	appViper.WatchConfig()
}

// GetConfig 返回全局配置实例.
func GetConfig() *AppConfig {
	return &globalConfig
}

// GetViper 返回全局 Viper 实例，未初始化时为 nil.
func GetViper() *viper.Viper {
	return appViper
}
