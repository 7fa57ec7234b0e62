package configs

import (
	"time"

	"github.com/spf13/viper"
)

// CacheConfig 查询结果缓存配置，默认关闭.
type CacheConfig struct {
	Enabled bool           `mapstructure:"enabled"`
	Type    string         `mapstructure:"type"    rule:"oneof=memory redis badger"`
	TTL     time.Duration  `mapstructure:"ttl"     rule:"gte=0"`
	Redis   RedisKVConfig  `mapstructure:"redis"`
	Badger  BadgerKVConfig `mapstructure:"badger"`
}

// BadgerKVConfig 嵌入式 Badger 配置，Dir 为空时只在内存中运行.
type BadgerKVConfig struct {
	Dir        string        `mapstructure:"dir"`
	GCInterval time.Duration `mapstructure:"gc_interval" rule:"gte=0"` // value log GC 周期，0 表示不做
}

// RedisKVConfig Redis KV 配置.
type RedisKVConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"           rule:"min=0,max=15"`
	Prefix      string        `mapstructure:"prefix"`       // 键前缀，多个实例共用一个 Redis 时区分命名空间
	DialTimeout time.Duration `mapstructure:"dial_timeout" rule:"gte=0"`
}

// setDefaults 设置缓存配置的默认值.
func (c *CacheConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "5s")

	// Redis 默认值
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.prefix", "certvault:")
	v.SetDefault("cache.redis.dial_timeout", "3s")

	v.SetDefault("cache.badger.dir", "")
	v.SetDefault("cache.badger.gc_interval", "10m")
}
