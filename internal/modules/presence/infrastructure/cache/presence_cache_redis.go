package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"MediaHub/internal/modules/presence/domain/entity"
	"MediaHub/internal/modules/presence/domain/repository"

	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "presence:"

type redisPresenceCache struct {
	client *goredis.Client
}

func NewRedisPresenceCache(client *goredis.Client) repository.PresenceCache {
	return &redisPresenceCache{client: client}
}

func presenceKey(userID int64) string {
	return keyPrefix + strconv.FormatInt(userID, 10)
}

func (c *redisPresenceCache) Set(ctx context.Context, p *entity.UserPresence, ttl time.Duration) error {
	if c.client == nil {
		return errors.New("redis client is nil")
	}
	key := presenceKey(p.UserId)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key,
		"screen", p.Screen,
		"context_id", p.ContextId,
		"updated_at", p.UpdatedAt.UnixMilli(),
	)
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	} else {
		pipe.Persist(ctx, key)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (c *redisPresenceCache) Get(ctx context.Context, userID int64) (*entity.UserPresence, error) {
	if c.client == nil {
		return nil, errors.New("redis client is nil")
	}
	vals, err := c.client.HGetAll(ctx, presenceKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, nil
	}
	ms, err := strconv.ParseInt(vals["updated_at"], 10, 64)
	if err != nil {
		return nil, nil
	}
	return &entity.UserPresence{
		UserId:    userID,
		Screen:    vals["screen"],
		ContextId: vals["context_id"],
		UpdatedAt: time.UnixMilli(ms),
	}, nil
}

func (c *redisPresenceCache) Delete(ctx context.Context, userID int64) error {
	if c.client == nil {
		return errors.New("redis client is nil")
	}
	return c.client.Del(ctx, presenceKey(userID)).Err()
}
