package service

import (
	"context"
	"time"

	notificationRespond "MediaHub/internal/modules/notification/application/dto/respond"
	"MediaHub/internal/modules/notification/domain/repository"
	"MediaHub/pkg/xerr"
	"MediaHub/pkg/zlog"

	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type NotificationHistory interface {
	List(ctx context.Context, userID int64, unreadOnly bool, page, pageSize int) (*notificationRespond.NotificationListRespond, error)
	UnreadCount(ctx context.Context, userID int64) (int64, error)
	MarkRead(ctx context.Context, userID int64, ids []int64) (int64, error)
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
}

type notificationHistoryImpl struct {
	repo repository.UserNotificationRepository
	now  func() time.Time
}

func NewNotificationHistory(repo repository.UserNotificationRepository) NotificationHistory {
	return &notificationHistoryImpl{repo: repo, now: time.Now}
}

func (s *notificationHistoryImpl) List(ctx context.Context, userID int64, unreadOnly bool, page, pageSize int) (*notificationRespond.NotificationListRespond, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	list, total, err := s.repo.ListByRecipient(ctx, userID, unreadOnly, (page-1)*pageSize, pageSize)
	if err != nil {
		zlog.Error("list notifications failed", zap.Int64("user_id", userID), zap.Error(err))
		return nil, xerr.ErrServerError
	}

	items := make([]notificationRespond.NotificationItem, 0, len(list))
	for _, n := range list {
		items = append(items, ToNotificationItem(n))
	}
	return &notificationRespond.NotificationListRespond{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func (s *notificationHistoryImpl) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	n, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		zlog.Error("count unread notifications failed", zap.Int64("user_id", userID), zap.Error(err))
		return 0, xerr.ErrServerError
	}
	return n, nil
}

func (s *notificationHistoryImpl) MarkRead(ctx context.Context, userID int64, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, xerr.ErrParam
	}
	n, err := s.repo.MarkRead(ctx, userID, ids, s.now())
	if err != nil {
		zlog.Error("mark notifications read failed", zap.Int64("user_id", userID), zap.Error(err))
		return 0, xerr.ErrServerError
	}
	return n, nil
}

func (s *notificationHistoryImpl) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, userID, s.now())
	if err != nil {
		zlog.Error("mark all notifications read failed", zap.Int64("user_id", userID), zap.Error(err))
		return 0, xerr.ErrServerError
	}
	return n, nil
}
