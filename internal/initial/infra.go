package initial

import (
	"context"
	"fmt"
	"time"

	"MediaHub/internal/config"
	"MediaHub/internal/modules/chat/infrastructure/hotstore"
	"MediaHub/internal/modules/push/domain"
	"MediaHub/pkg/zlog"

	goredis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Infra 进程持有的外部连接
type Infra struct {
	DB          *gorm.DB
	Redis       *goredis.Client
	MongoClient *mongo.Client
	Mongo       *mongo.Database
	Multicaster domain.Multicaster
}

type SetupOptions struct {
	Migrate bool
	// WithPush 归档命令行不需要推送网关
	WithPush bool
}

func Setup(ctx context.Context, conf *config.Config, opt SetupOptions) (*Infra, error) {
	infra := &Infra{}

	db, err := NewGormDB(conf, opt.Migrate)
	if err != nil {
		return nil, err
	}
	infra.DB = db

	infra.Redis = NewRedisClient(conf.RedisConfig)

	mctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	cli, mdb, err := NewMongoClient(mctx, conf.MongoConfig)
	if err != nil {
		infra.Close()
		return nil, err
	}
	infra.MongoClient = cli
	infra.Mongo = mdb
	if err := hotstore.EnsureIndexes(mctx, mdb, conf.MongoConfig.MessageCollection); err != nil {
		zlog.Warn("ensure mongo indexes failed", zap.Error(err))
	}

	if opt.WithPush {
		mc, err := NewMulticaster(ctx, conf.PushConfig)
		if err != nil {
			infra.Close()
			return nil, fmt.Errorf("init push gateway: %w", err)
		}
		infra.Multicaster = mc
	}
	return infra, nil
}

// Close 释放所有连接，可重复调用
func (i *Infra) Close() {
	if i == nil {
		return
	}
	if i.MongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := i.MongoClient.Disconnect(ctx); err != nil {
			zlog.Warn("mongo disconnect failed", zap.Error(err))
		}
		cancel()
		i.MongoClient = nil
	}
	if i.Redis != nil {
		_ = i.Redis.Close()
		i.Redis = nil
	}
	if i.DB != nil {
		if sqlDB, err := i.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
		i.DB = nil
	}
}
