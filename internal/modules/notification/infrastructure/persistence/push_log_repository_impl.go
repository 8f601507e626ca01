package persistence

import (
	"context"
	"time"

	"MediaHub/internal/modules/notification/domain/entity"
	"MediaHub/internal/modules/notification/domain/repository"

	"gorm.io/gorm"
)

type pushLogRepositoryImpl struct {
	db *gorm.DB
}

func NewPushLogRepository(db *gorm.DB) repository.PushLogRepository {
	return &pushLogRepositoryImpl{db: db}
}

func (r *pushLogRepositoryImpl) Create(ctx context.Context, log *entity.PushNotificationLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *pushLogRepositoryImpl) UpdateResult(ctx context.Context, id int64, res repository.PushLogResult) error {
	return r.db.WithContext(ctx).
		Model(&entity.PushNotificationLog{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"token_count":   res.TokenCount,
			"success_count": res.Success,
			"failure_count": res.Failure,
			"status":        res.Status,
			"error_summary": res.ErrorSummary,
			"updated_at":    time.Now(),
		}).Error
}
