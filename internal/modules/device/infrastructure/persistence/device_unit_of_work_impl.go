package persistence

import (
	"context"

	"MediaHub/internal/modules/device/domain/repository"

	"gorm.io/gorm"
)

type deviceUnitOfWorkImpl struct {
	db *gorm.DB
}

func NewDeviceUnitOfWork(db *gorm.DB) repository.DeviceUnitOfWork {
	return &deviceUnitOfWorkImpl{db: db}
}

func (u *deviceUnitOfWorkImpl) Transaction(ctx context.Context, fn func(deviceRepo repository.DeviceRepository, bindingRepo repository.UserDeviceRepository) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewDeviceRepository(tx), NewUserDeviceRepository(tx))
	})
}
