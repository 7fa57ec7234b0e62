// Package db 基于 gorm 的证书记录存储，支持 SQLite、MySQL 与 PostgreSQL.
package db

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
	gormPrometheus "gorm.io/plugin/prometheus"

	"github.com/yeisme/certvault/pkg/configs"
	"github.com/yeisme/certvault/pkg/internal/model"
	nlog "github.com/yeisme/certvault/pkg/log"
)

// DialectorFactory 定义创建 dialector 的函数类型.
type DialectorFactory func(dsn string) gorm.Dialector

// dialectorFactories 存储数据库类型到 dialector 工厂的映射.
var dialectorFactories = map[configs.DBType]DialectorFactory{}

// RegisterDialectorFactory 注册数据库 dialector 工厂函数.
func RegisterDialectorFactory(dbType configs.DBType, factory DialectorFactory) {
	dialectorFactories[dbType] = factory
}

// GetRegisteredDBTypes 返回已注册的数据库类型列表（已排序）.
func GetRegisteredDBTypes() []configs.DBType {
	types := make([]configs.DBType, 0, len(dialectorFactories))
	for dbType := range dialectorFactories {
		types = append(types, dbType)
	}

	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return types
}

// Options 控制可选插件.
type Options struct {
	Metrics bool // 注册 gorm prometheus 插件
}

// Client 包装 GORM DB 客户端，所有查询落在 table 上.
type Client struct {
	*gorm.DB
	table string
}

// New 打开连接、验证连通性并迁移证书表.
// 迁移只在构造时执行一次.
func New(ctx context.Context, cfg *configs.DBConfig, opts Options) (*Client, error) {
	factory, exists := dialectorFactories[cfg.Type]
	if !exists {
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	level := logger.Warn
	if cfg.Debug {
		level = logger.Info
	}

	// 配置 GORM 日志
	gormLogger := logger.New(
		nlog.Logger(),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(factory(cfg.URI), &gorm.Config{
		Logger:      gormLogger,
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// 获取底层 SQL DB 以配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)

	pingCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.ConnectTimeout)*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()

		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		_ = sqlDB.Close()

		return nil, fmt.Errorf("failed to register GORM tracing plugin: %w", err)
	}

	client := &Client{DB: db, table: cfg.Collection}

	if opts.Metrics {
		if err := client.RegisterGORMMetrics(cfg.Database); err != nil {
			_ = sqlDB.Close()

			return nil, err
		}
	}

	if err := client.migrate(ctx); err != nil {
		_ = sqlDB.Close()

		return nil, err
	}

	nlog.Logger().Info().
		Str("type", cfg.GetDBType()).
		Str("uri", cfg.RedactedURI()).
		Str("table", cfg.Collection).
		Msg("database connected")

	return client, nil
}

func (c *Client) migrate(ctx context.Context) error {
	if err := c.WithContext(ctx).Table(c.table).AutoMigrate(&model.Certificate{}); err != nil {
		return fmt.Errorf("failed to migrate %s: %w", c.table, err)
	}

	return nil
}

// UpsertCertificate 按 name 查找记录：存在则更新 filePath 与 updatedAt，不存在则创建.
func (c *Client) UpsertCertificate(ctx context.Context, name, filePath string) (*model.Certificate, error) {
	var cert model.Certificate

	err := c.WithContext(ctx).Table(c.table).
		Where(map[string]any{"name": name}).
		Assign(map[string]any{"file_path": filePath}).
		FirstOrCreate(&cert).Error
	if err != nil {
		return nil, fmt.Errorf("upsert certificate %q: %w", name, err)
	}

	return &cert, nil
}

// FindAllCertificates 返回全部记录，不过滤不排序.
func (c *Client) FindAllCertificates(ctx context.Context) ([]model.Certificate, error) {
	var certs []model.Certificate
	if err := c.WithContext(ctx).Table(c.table).Find(&certs).Error; err != nil {
		return nil, fmt.Errorf("find certificates: %w", err)
	}

	return certs, nil
}

// HealthCheck 检查数据库连通性.
func (c *Client) HealthCheck(ctx context.Context) error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}

// Close 关闭底层连接池.
func (c *Client) Close() error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

const defaultGORMMetricsRefreshInterval = 15 // 秒

// RegisterGORMMetrics 注册GORM指标到默认注册表.
func (c *Client) RegisterGORMMetrics(dbName string) error {
	promConfig := gormPrometheus.Config{
		DBName:          dbName,
		RefreshInterval: defaultGORMMetricsRefreshInterval,
		StartServer:     false, // 由 /metrics 统一暴露
	}

	if err := c.Use(gormPrometheus.New(promConfig)); err != nil {
		return fmt.Errorf("failed to register GORM prometheus plugin: %w", err)
	}

	return nil
}
