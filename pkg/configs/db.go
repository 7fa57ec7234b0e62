package configs

import (
	"strings"

	"github.com/spf13/viper"
)

type (
	DBType string
)

const (
	// PostgreSQL 协议.
	PostgreSQL DBType = "postgresql"
	Postgres   DBType = "postgre"
	Pg         DBType = "pg"

	// MySQL 协议.
	MySQL   DBType = "mysql"
	MariaDB DBType = "mariadb"
	// SQLite 协议.
	SQLite DBType = "sqlite"
	// MongoDB 文档存储.
	MongoDB DBType = "mongo"
)

const (
	DefaultDatabaseType       = SQLite         // 默认存储类型
	DefaultDatabaseName       = "certvault"    // 默认数据库名称（MongoDB 时为 database）
	DefaultCollection         = "certificates" // 默认集合/表名称
	DefaultMaxOpenConns       = 0              // 默认不限制打开连接数
	DefaultMaxIdleConns       = 5              // 默认最大空闲连接数
	DefaultConnectTimeoutSecs = 10             // 默认连接超时（秒）
)

// DBConfig 文档存储配置.
// URI 为连接字符串：SQL 类型为 DSN，MongoDB 为 mongodb:// URI.
type DBConfig struct {
	Type           DBType `mapstructure:"type"             rule:"oneof=postgresql postgre pg mysql mariadb sqlite mongo"`
	URI            string `mapstructure:"uri"              rule:"required"`
	Database       string `mapstructure:"database"`
	Collection     string `mapstructure:"collection"       rule:"required"`
	MaxOpenConns   int    `mapstructure:"max_open_conns"   rule:"min=0"`
	MaxIdleConns   int    `mapstructure:"max_idle_conns"   rule:"min=0"`
	ConnectTimeout int    `mapstructure:"connect_timeout"  rule:"min=1,max=300"`
	Debug          bool   `mapstructure:"debug"`
}

// GetDBType 返回存储类型的可读名称.
func (c *DBConfig) GetDBType() string {
	switch c.Type {
	case PostgreSQL, Postgres, Pg:
		return "PostgreSQL"
	case MySQL, MariaDB:
		return "MySQL"
	case SQLite:
		return "SQLite"
	case MongoDB:
		return "MongoDB"
	default:
		return "Unknown"
	}
}

// IsDocumentStore 是否使用 MongoDB 后端.
func (c *DBConfig) IsDocumentStore() bool {
	return c.Type == MongoDB
}

// RedactedURI 返回去掉密码的连接字符串，用于日志.
func (c *DBConfig) RedactedURI() string {
	uri := c.URI

	at := strings.LastIndex(uri, "@")
	if at < 0 {
		return uri
	}

	scheme := strings.Index(uri, "://")
	start := 0

	if scheme >= 0 {
		start = scheme + len("://")
	}

	colon := strings.Index(uri[start:at], ":")
	if colon < 0 {
		return uri
	}

	return uri[:start+colon+1] + "***" + uri[at:]
}

// setDefaults 设置数据库配置的默认值.
func (c *DBConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("db.type", DefaultDatabaseType)
	v.SetDefault("db.database", DefaultDatabaseName)
	v.SetDefault("db.collection", DefaultCollection)
	v.SetDefault("db.max_open_conns", DefaultMaxOpenConns)
	v.SetDefault("db.max_idle_conns", DefaultMaxIdleConns)
	v.SetDefault("db.connect_timeout", DefaultConnectTimeoutSecs)
	v.SetDefault("db.debug", false)
}
