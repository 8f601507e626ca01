package service

import (
	"context"
	"strings"
	"time"

	"MediaHub/internal/modules/presence/domain/entity"
	"MediaHub/internal/modules/presence/domain/repository"
	"MediaHub/pkg/xerr"
	"MediaHub/pkg/zlog"

	"go.uber.org/zap"
)

// PresenceTracker 记录用户当前所在页面，供推送抑制判断
type PresenceTracker interface {
	SetPresence(ctx context.Context, userID int64, screen string, contextID string) error
	// IsOnScreen screen 与 contextID 需同时精确匹配；无记录或记录过期均为 false
	IsOnScreen(ctx context.Context, userID int64, screen string, contextID string) (bool, error)
	GetPresence(ctx context.Context, userID int64) (*entity.UserPresence, error)
}

type presenceTrackerImpl struct {
	repo       repository.PresenceRepository
	cache      repository.PresenceCache
	staleAfter time.Duration
	now        func() time.Time
}

// NewPresenceTracker cache 可为 nil；staleAfter <= 0 表示记录永不过期
func NewPresenceTracker(repo repository.PresenceRepository, cache repository.PresenceCache, staleAfter time.Duration) PresenceTracker {
	return &presenceTrackerImpl{
		repo:       repo,
		cache:      cache,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

func (s *presenceTrackerImpl) SetPresence(ctx context.Context, userID int64, screen string, contextID string) error {
	if userID <= 0 {
		return xerr.New(xerr.BadRequest, xerr.ErrParam.Message)
	}
	p := &entity.UserPresence{
		UserId:    userID,
		Screen:    strings.TrimSpace(screen),
		ContextId: strings.TrimSpace(contextID),
		UpdatedAt: s.now(),
	}
	// 先失效缓存，保证后续读取不会命中旧记录
	s.invalidate(ctx, userID)
	if err := s.repo.Upsert(ctx, p); err != nil {
		zlog.Error("upsert presence failed", zap.Int64("user_id", userID), zap.Error(err))
		return xerr.ErrServerError
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, p, s.staleAfter); err != nil {
			zlog.Warn("cache presence failed", zap.Int64("user_id", userID), zap.Error(err))
			s.invalidate(ctx, userID)
		}
	}
	return nil
}

func (s *presenceTrackerImpl) invalidate(ctx context.Context, userID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, userID); err != nil {
		zlog.Warn("invalidate presence cache failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}

func (s *presenceTrackerImpl) GetPresence(ctx context.Context, userID int64) (*entity.UserPresence, error) {
	if s.cache != nil {
		p, err := s.cache.Get(ctx, userID)
		if err != nil {
			zlog.Warn("read presence cache failed, fallback to db", zap.Int64("user_id", userID), zap.Error(err))
		} else if p != nil {
			return p, nil
		}
	}
	return s.repo.GetByUserID(ctx, userID)
}

func (s *presenceTrackerImpl) IsOnScreen(ctx context.Context, userID int64, screen string, contextID string) (bool, error) {
	if userID <= 0 || screen == "" {
		return false, nil
	}
	p, err := s.GetPresence(ctx, userID)
	if err != nil {
		return false, err
	}
	if p == nil {
		return false, nil
	}
	if s.staleAfter > 0 && s.now().Sub(p.UpdatedAt) > s.staleAfter {
		return false, nil
	}
	return p.Screen == screen && p.ContextId == contextID, nil
}
