package entity

import "time"

const (
	KindMessage    = "message"
	KindLiveStream = "liveStream"
)

// UserNotification 用户通知收件箱中的一条记录
type UserNotification struct {
	Id               int64      `gorm:"column:id;primaryKey;autoIncrement"`
	RecipientUserId  int64      `gorm:"column:recipient_user_id;not null;index:idx_recipient_read,priority:1"`
	NotificationType string     `gorm:"column:notification_type;type:varchar(32);not null"`
	Title            string     `gorm:"column:title;type:varchar(255);not null"`
	Body             string     `gorm:"column:body;type:text"`
	DataJson         string     `gorm:"column:data_json;type:text"`
	ReadAt           *time.Time `gorm:"column:read_at;index:idx_recipient_read,priority:2"`
	SenderArtistId   *int64     `gorm:"column:sender_artist_id"`
	SenderUserId     *int64     `gorm:"column:sender_user_id"`
	ChatDocId        *string    `gorm:"column:chat_doc_id;type:varchar(64);index"`
	LiveStreamId     *int64     `gorm:"column:live_stream_id"`
	MessageCount     int        `gorm:"column:message_count;not null;default:1"`
	CreatedAt        time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;not null"`
}

func (UserNotification) TableName() string {
	return "user_notifications"
}

func (n *UserNotification) IsRead() bool {
	return n.ReadAt != nil
}
