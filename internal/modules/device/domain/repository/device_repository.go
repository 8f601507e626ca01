package repository

import (
	"context"

	"MediaHub/internal/modules/device/domain/entity"
)

type DeviceRepository interface {
	// GetByDeviceID 不存在时返回 nil, nil
	GetByDeviceID(ctx context.Context, deviceID string) (*entity.Device, error)
	Create(ctx context.Context, device *entity.Device) error
	UpdateName(ctx context.Context, deviceID string, name string) error
}

type UserDeviceRepository interface {
	// Get 不存在时返回 nil, nil
	Get(ctx context.Context, userID int64, deviceID string) (*entity.UserDevice, error)
	Create(ctx context.Context, binding *entity.UserDevice) error
	Save(ctx context.Context, binding *entity.UserDevice) error
	Delete(ctx context.Context, id int64) error
	// DeactivateByDevice 将该设备上所有用户的 active 绑定置为失效
	DeactivateByDevice(ctx context.Context, deviceID string) (int64, error)
	Deactivate(ctx context.Context, userID int64, deviceID string) (int64, error)
	CountByUser(ctx context.Context, userID int64) (int64, error)
	// OldestByUser 返回该用户 last_seen_at 最早的绑定，没有绑定时返回 nil, nil
	OldestByUser(ctx context.Context, userID int64) (*entity.UserDevice, error)
	ListActiveByUsers(ctx context.Context, userIDs []int64) ([]entity.UserDevice, error)
	ListByUser(ctx context.Context, userID int64) ([]entity.UserDevice, error)
}

// DeviceUnitOfWork 在同一事务内提供设备与绑定仓储
type DeviceUnitOfWork interface {
	Transaction(ctx context.Context, fn func(deviceRepo DeviceRepository, bindingRepo UserDeviceRepository) error) error
}
