package persistence

import (
	"context"
	"errors"

	"MediaHub/internal/modules/device/domain/entity"
	"MediaHub/internal/modules/device/domain/repository"

	"gorm.io/gorm"
)

type userDeviceRepositoryImpl struct {
	db *gorm.DB
}

func NewUserDeviceRepository(db *gorm.DB) repository.UserDeviceRepository {
	return &userDeviceRepositoryImpl{db: db}
}

func (r *userDeviceRepositoryImpl) Get(ctx context.Context, userID int64, deviceID string) (*entity.UserDevice, error) {
	var b entity.UserDevice
	err := r.db.WithContext(ctx).Where("user_id = ? AND device_id = ?", userID, deviceID).First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (r *userDeviceRepositoryImpl) Create(ctx context.Context, binding *entity.UserDevice) error {
	return r.db.WithContext(ctx).Create(binding).Error
}

func (r *userDeviceRepositoryImpl) Save(ctx context.Context, binding *entity.UserDevice) error {
	return r.db.WithContext(ctx).Save(binding).Error
}

func (r *userDeviceRepositoryImpl) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&entity.UserDevice{}, id).Error
}

func (r *userDeviceRepositoryImpl) DeactivateByDevice(ctx context.Context, deviceID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&entity.UserDevice{}).
		Where("device_id = ? AND is_active = ?", deviceID, true).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

func (r *userDeviceRepositoryImpl) Deactivate(ctx context.Context, userID int64, deviceID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&entity.UserDevice{}).
		Where("user_id = ? AND device_id = ? AND is_active = ?", userID, deviceID, true).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

func (r *userDeviceRepositoryImpl) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entity.UserDevice{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (r *userDeviceRepositoryImpl) OldestByUser(ctx context.Context, userID int64) (*entity.UserDevice, error) {
	var b entity.UserDevice
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_seen_at ASC").
		Order("id ASC").
		First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (r *userDeviceRepositoryImpl) ListActiveByUsers(ctx context.Context, userIDs []int64) ([]entity.UserDevice, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var out []entity.UserDevice
	err := r.db.WithContext(ctx).
		Where("user_id IN ? AND is_active = ? AND fcm_token IS NOT NULL AND fcm_token <> ''", userIDs, true).
		Order("last_seen_at DESC").
		Find(&out).Error
	return out, err
}

func (r *userDeviceRepositoryImpl) ListByUser(ctx context.Context, userID int64) ([]entity.UserDevice, error) {
	var out []entity.UserDevice
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("last_seen_at DESC").Find(&out).Error
	return out, err
}
