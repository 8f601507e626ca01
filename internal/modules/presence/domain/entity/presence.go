package entity

import "time"

const (
	ScreenChat       = "chat"
	ScreenLiveStream = "live_stream"
)

// UserPresence 每个用户一行，记录当前所在页面与上下文（如会话 id）
type UserPresence struct {
	Id        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserId    int64     `gorm:"column:user_id;uniqueIndex;not null"`
	Screen    string    `gorm:"column:screen;type:varchar(32);not null;default:''"`
	ContextId string    `gorm:"column:context_id;type:varchar(128);not null;default:''"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (UserPresence) TableName() string {
	return "user_presence"
}
