package entity

import "time"

const (
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
	PlatformWeb     = "web"
)

// ValidPlatform 平台只允许封闭集合中的取值
func ValidPlatform(p string) bool {
	switch p {
	case PlatformIOS, PlatformAndroid, PlatformWeb:
		return true
	}
	return false
}

// Device 物理设备，device_id 由客户端生成并保存在安全存储中，重装后不变
type Device struct {
	Id         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	DeviceId   string    `gorm:"column:device_id;type:varchar(128);uniqueIndex;not null"`
	Platform   string    `gorm:"column:platform;type:varchar(16);not null"`
	DeviceName string    `gorm:"column:device_name;type:varchar(128)"`
	CreatedAt  time.Time `gorm:"column:created_at;not null"`
	UpdatedAt  time.Time `gorm:"column:updated_at;not null"`
}

func (Device) TableName() string {
	return "devices"
}

// UserDevice 用户与设备的绑定，同一设备任意时刻最多一个 is_active 绑定
type UserDevice struct {
	Id         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserId     int64     `gorm:"column:user_id;uniqueIndex:uk_user_device;index:idx_user_active;not null"`
	DeviceId   string    `gorm:"column:device_id;type:varchar(128);uniqueIndex:uk_user_device;index;not null"`
	FcmToken   *string   `gorm:"column:fcm_token;type:varchar(512)"`
	IsActive   bool      `gorm:"column:is_active;index:idx_user_active;not null;default:false"`
	LastSeenAt time.Time `gorm:"column:last_seen_at;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;not null"`
	UpdatedAt  time.Time `gorm:"column:updated_at;not null"`
}

func (UserDevice) TableName() string {
	return "user_devices"
}

// Token 返回推送 token，未设置时为空串
func (b *UserDevice) Token() string {
	if b == nil || b.FcmToken == nil {
		return ""
	}
	return *b.FcmToken
}
