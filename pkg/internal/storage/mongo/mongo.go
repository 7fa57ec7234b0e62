// Package mongo 基于 MongoDB 的证书记录存储.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/yeisme/certvault/pkg/configs"
	"github.com/yeisme/certvault/pkg/internal/model"
	nlog "github.com/yeisme/certvault/pkg/log"
)

// Client 包装 mongo.Client 及证书集合.
type Client struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// New 连接 MongoDB 并确认可用.
// name 字段只建普通索引，由 upsert 保证按名字去重.
func New(ctx context.Context, cfg *configs.DBConfig) (*Client, error) {
	timeout := time.Duration(cfg.ConnectTimeout) * time.Second

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName("certvault").
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	if cfg.MaxOpenConns > 0 {
		opts.SetMaxPoolSize(uint64(cfg.MaxOpenConns))
	}

	cli, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := cli.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())

		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	coll := cli.Database(cfg.Database).Collection(cfg.Collection)

	if _, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "name", Value: 1}}}); err != nil {
		_ = cli.Disconnect(context.Background())

		return nil, fmt.Errorf("failed to create name index: %w", err)
	}

	nlog.Logger().Info().
		Str("uri", cfg.RedactedURI()).
		Str("database", cfg.Database).
		Str("collection", cfg.Collection).
		Msg("mongodb connected")

	return &Client{client: cli, collection: coll}, nil
}

// UpsertCertificate 按 name 更新 filePath；不存在时插入并写入 _id 与 createdAt.
func (c *Client) UpsertCertificate(ctx context.Context, name, filePath string) (*model.Certificate, error) {
	now := time.Now().UTC()

	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "filePath", Value: filePath},
			{Key: "updatedAt", Value: now},
		}},
		{Key: "$setOnInsert", Value: bson.D{
			{Key: "_id", Value: model.NewID(now)},
			{Key: "createdAt", Value: now},
		}},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var cert model.Certificate
	if err := c.collection.FindOneAndUpdate(ctx, bson.D{{Key: "name", Value: name}}, update, opts).Decode(&cert); err != nil {
		return nil, fmt.Errorf("upsert certificate %q: %w", name, err)
	}

	return &cert, nil
}

// FindAllCertificates 返回集合中全部记录，不过滤不排序.
func (c *Client) FindAllCertificates(ctx context.Context) ([]model.Certificate, error) {
	cursor, err := c.collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("find certificates: %w", err)
	}

	certs := []model.Certificate{}
	if err := cursor.All(ctx, &certs); err != nil {
		return nil, fmt.Errorf("decode certificates: %w", err)
	}

	return certs, nil
}

// HealthCheck ping 主节点.
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

// Close 断开连接.
func (c *Client) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return c.client.Disconnect(ctx)
}
