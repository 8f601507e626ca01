package persistence

import (
	"context"

	"MediaHub/internal/modules/chat/domain/entity"
	"MediaHub/internal/modules/chat/domain/repository"
	"MediaHub/pkg/util"

	"gorm.io/gorm"
)

type chatArchiveRepositoryImpl struct {
	db *gorm.DB
}

func NewChatArchiveRepository(db *gorm.DB) repository.ChatArchiveRepository {
	return &chatArchiveRepositoryImpl{db: db}
}

func (r *chatArchiveRepositoryImpl) Insert(ctx context.Context, msg *entity.ChatMessage) error {
	err := r.db.WithContext(ctx).Create(msg).Error
	if err != nil && util.IsDuplicateKey(err) {
		return repository.ErrAlreadyArchived
	}
	return err
}

func (r *chatArchiveRepositoryImpl) ListByThread(ctx context.Context, chatDocID string, beforeID int64, limit int) ([]entity.ChatMessage, error) {
	q := r.db.WithContext(ctx).Where("chat_doc_id = ?", chatDocID)
	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}
	var out []entity.ChatMessage
	err := q.Order("id DESC").Limit(limit).Find(&out).Error
	return out, err
}
