package persistence

import (
	"context"
	"errors"
	"time"

	"MediaHub/internal/modules/notification/domain/entity"
	"MediaHub/internal/modules/notification/domain/repository"

	"gorm.io/gorm"
)

type userNotificationRepositoryImpl struct {
	db *gorm.DB
}

func NewUserNotificationRepository(db *gorm.DB) repository.UserNotificationRepository {
	return &userNotificationRepositoryImpl{db: db}
}

func (r *userNotificationRepositoryImpl) Create(ctx context.Context, n *entity.UserNotification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *userNotificationRepositoryImpl) FindUnread(ctx context.Context, key repository.CoalesceKey) (*entity.UserNotification, error) {
	q := r.db.WithContext(ctx).
		Where("recipient_user_id = ? AND notification_type = ? AND read_at IS NULL", key.RecipientUserId, key.NotificationType)
	switch {
	case key.ChatDocId != "":
		q = q.Where("chat_doc_id = ?", key.ChatDocId)
	case key.LiveStreamId > 0:
		q = q.Where("live_stream_id = ?", key.LiveStreamId)
	default:
		return nil, nil
	}

	var n entity.UserNotification
	if err := q.Order("id DESC").First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

func (r *userNotificationRepositoryImpl) Coalesce(ctx context.Context, id int64, title, body, dataJson string, incr int) error {
	if incr < 1 {
		incr = 1
	}
	return r.db.WithContext(ctx).
		Model(&entity.UserNotification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"title":         title,
			"body":          body,
			"data_json":     dataJson,
			"message_count": gorm.Expr("message_count + ?", incr),
			"updated_at":    time.Now(),
		}).Error
}

func (r *userNotificationRepositoryImpl) ListByRecipient(ctx context.Context, recipientID int64, unreadOnly bool, offset, limit int) ([]entity.UserNotification, int64, error) {
	q := r.db.WithContext(ctx).Model(&entity.UserNotification{}).Where("recipient_user_id = ?", recipientID)
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []entity.UserNotification
	err := q.Order("id DESC").Offset(offset).Limit(limit).Find(&out).Error
	return out, total, err
}

func (r *userNotificationRepositoryImpl) CountUnread(ctx context.Context, recipientID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&entity.UserNotification{}).
		Where("recipient_user_id = ? AND read_at IS NULL", recipientID).
		Count(&n).Error
	return n, err
}

func (r *userNotificationRepositoryImpl) MarkRead(ctx context.Context, recipientID int64, ids []int64, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&entity.UserNotification{}).
		Where("recipient_user_id = ? AND id IN ? AND read_at IS NULL", recipientID, ids).
		Update("read_at", at)
	return res.RowsAffected, res.Error
}

func (r *userNotificationRepositoryImpl) MarkAllRead(ctx context.Context, recipientID int64, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&entity.UserNotification{}).
		Where("recipient_user_id = ? AND read_at IS NULL", recipientID).
		Update("read_at", at)
	return res.RowsAffected, res.Error
}
