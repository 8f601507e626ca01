package repository

import (
	"context"
	"time"

	"MediaHub/internal/modules/notification/domain/entity"
)

// CoalesceKey 同一收件人、同一类型、同一会话/直播的未读通知视为可合并
type CoalesceKey struct {
	RecipientUserId  int64
	NotificationType string
	ChatDocId        string
	LiveStreamId     int64
}

type UserNotificationRepository interface {
	Create(ctx context.Context, n *entity.UserNotification) error

	// FindUnread 不存在时返回 nil, nil
	FindUnread(ctx context.Context, key CoalesceKey) (*entity.UserNotification, error)

	// Coalesce 覆盖标题/正文/数据并累加 message_count
	Coalesce(ctx context.Context, id int64, title, body, dataJson string, incr int) error

	ListByRecipient(ctx context.Context, recipientID int64, unreadOnly bool, offset, limit int) ([]entity.UserNotification, int64, error)
	CountUnread(ctx context.Context, recipientID int64) (int64, error)

	// MarkRead 只影响属于该收件人且未读的记录
	MarkRead(ctx context.Context, recipientID int64, ids []int64, at time.Time) (int64, error)
	MarkAllRead(ctx context.Context, recipientID int64, at time.Time) (int64, error)
}

type PushLogRepository interface {
	Create(ctx context.Context, log *entity.PushNotificationLog) error
	UpdateResult(ctx context.Context, id int64, res PushLogResult) error
}

// PushLogResult 一次发送结束后回写的统计
type PushLogResult struct {
	TokenCount   int
	Success      int
	Failure      int
	Status       string
	ErrorSummary string
}
