package persistence

import (
	"context"
	"errors"

	"MediaHub/internal/modules/presence/domain/entity"
	"MediaHub/internal/modules/presence/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type presenceRepositoryImpl struct {
	db *gorm.DB
}

func NewPresenceRepository(db *gorm.DB) repository.PresenceRepository {
	return &presenceRepositoryImpl{db: db}
}

// Upsert 以 user_id 为冲突键，后写覆盖
func (r *presenceRepositoryImpl) Upsert(ctx context.Context, p *entity.UserPresence) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"screen", "context_id", "updated_at"}),
	}).Create(p).Error
}

func (r *presenceRepositoryImpl) GetByUserID(ctx context.Context, userID int64) (*entity.UserPresence, error) {
	var p entity.UserPresence
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}
