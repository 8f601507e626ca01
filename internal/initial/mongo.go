package initial

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"MediaHub/internal/config"
	"MediaHub/pkg/zlog"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func mongoClientOptions(conf config.MongoConfig) (*options.ClientOptions, error) {
	uri := strings.TrimSpace(conf.Uri)
	if uri == "" {
		return nil, errors.New("mongo uri is required")
	}
	// 优先使用完整 URI（可含参数 ?authSource=admin 等）
	opts := options.Client().ApplyURI(uri)
	if conf.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(uint64(conf.MaxPoolSize))
	}
	if conf.ConnectTimeoutSecs > 0 {
		opts.SetConnectTimeout(time.Duration(conf.ConnectTimeoutSecs) * time.Second)
		opts.SetServerSelectionTimeout(time.Duration(conf.ConnectTimeoutSecs) * time.Second)
	}
	// 单独配置的用户名密码覆盖 URI 中的认证
	if conf.Username != "" {
		opts.SetAuth(options.Credential{
			Username:   conf.Username,
			Password:   conf.Password,
			AuthSource: conf.AuthSource,
		})
	}
	return opts, nil
}

// NewMongoClient 连接并 ping，失败时按 maxRetry 重试
func NewMongoClient(ctx context.Context, conf config.MongoConfig) (*mongo.Client, *mongo.Database, error) {
	opts, err := mongoClientOptions(conf)
	if err != nil {
		return nil, nil, err
	}
	retry := conf.MaxRetry
	if retry <= 0 {
		retry = 1
	}

	var cli *mongo.Client
	for i := 0; i < retry; i++ {
		cli, err = connectMongo(ctx, opts)
		if err == nil {
			break
		}
		zlog.Warn("mongo connect failed", zap.Int("attempt", i+1), zap.Error(err))
		if ctx.Err() != nil {
			break
		}
		time.Sleep(time.Second / 2)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}

	dbName := strings.TrimSpace(conf.Database)
	if dbName == "" {
		dbName = "mediahub"
	}
	return cli, cli.Database(dbName), nil
}

func connectMongo(ctx context.Context, opts *options.ClientOptions) (*mongo.Client, error) {
	cli, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := cli.Ping(ctx, nil); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, err
	}
	return cli, nil
}
