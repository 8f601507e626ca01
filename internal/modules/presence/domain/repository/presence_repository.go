package repository

import (
	"context"
	"time"

	"MediaHub/internal/modules/presence/domain/entity"
)

type PresenceRepository interface {
	Upsert(ctx context.Context, p *entity.UserPresence) error
	// GetByUserID 不存在时返回 nil, nil
	GetByUserID(ctx context.Context, userID int64) (*entity.UserPresence, error)
}

// PresenceCache 可选的读穿缓存，未命中返回 nil, nil
type PresenceCache interface {
	Set(ctx context.Context, p *entity.UserPresence, ttl time.Duration) error
	Get(ctx context.Context, userID int64) (*entity.UserPresence, error)
	Delete(ctx context.Context, userID int64) error
}
