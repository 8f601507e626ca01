package entity

import "time"

const (
	PushStatusPending   = "pending"
	PushStatusCompleted = "completed"
	PushStatusPartial   = "partial"
	PushStatusFailed    = "failed"
)

// PushNotificationLog 每次网关发送调用一行
type PushNotificationLog struct {
	Id           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Title        string    `gorm:"column:title;type:varchar(255);not null"`
	Message      string    `gorm:"column:message;type:text"`
	ImageUrl     string    `gorm:"column:image_url;type:varchar(512)"`
	CustomData   string    `gorm:"column:custom_data;type:text"`
	TokenCount   int       `gorm:"column:token_count;not null;default:0"`
	SuccessCount int       `gorm:"column:success_count;not null;default:0"`
	FailureCount int       `gorm:"column:failure_count;not null;default:0"`
	Status       string    `gorm:"column:status;type:varchar(16);not null;default:'pending'"`
	ErrorSummary string    `gorm:"column:error_summary;type:text"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
	UpdatedAt    time.Time `gorm:"column:updated_at;not null"`
}

func (PushNotificationLog) TableName() string {
	return "push_notification_log"
}

// PushStatusOf 根据成功/失败计数得出最终状态
func PushStatusOf(success, failure int) string {
	switch {
	case failure == 0:
		return PushStatusCompleted
	case success == 0:
		return PushStatusFailed
	default:
		return PushStatusPartial
	}
}
