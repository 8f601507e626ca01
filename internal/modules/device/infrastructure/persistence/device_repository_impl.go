package persistence

import (
	"context"
	"errors"

	"MediaHub/internal/modules/device/domain/entity"
	"MediaHub/internal/modules/device/domain/repository"

	"gorm.io/gorm"
)

type deviceRepositoryImpl struct {
	db *gorm.DB
}

func NewDeviceRepository(db *gorm.DB) repository.DeviceRepository {
	return &deviceRepositoryImpl{db: db}
}

func (r *deviceRepositoryImpl) GetByDeviceID(ctx context.Context, deviceID string) (*entity.Device, error) {
	var d entity.Device
	err := r.db.WithContext(ctx).Where("device_id = ?", deviceID).First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (r *deviceRepositoryImpl) Create(ctx context.Context, device *entity.Device) error {
	return r.db.WithContext(ctx).Create(device).Error
}

func (r *deviceRepositoryImpl) UpdateName(ctx context.Context, deviceID string, name string) error {
	return r.db.WithContext(ctx).
		Model(&entity.Device{}).
		Where("device_id = ?", deviceID).
		Update("device_name", name).Error
}
