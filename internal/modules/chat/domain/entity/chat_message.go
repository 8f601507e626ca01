package entity

import "time"

const (
	SenderArtist = "artist"
	SenderUser   = "user"
)

// ChatMessage 从热存储迁移过来的归档消息，(chat_doc_id, firebase_message_id) 唯一
type ChatMessage struct {
	Id                int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ChatDocId         string    `gorm:"column:chat_doc_id;type:varchar(64);not null;uniqueIndex:uk_chat_firebase_msg,priority:1"`
	ArtistId          int64     `gorm:"column:artist_id;not null;index"`
	UserId            int64     `gorm:"column:user_id;not null;index"`
	FirebaseMessageId string    `gorm:"column:firebase_message_id;type:varchar(64);not null;uniqueIndex:uk_chat_firebase_msg,priority:2"`
	Text              string    `gorm:"column:text;type:text"`
	SenderType        string    `gorm:"column:sender_type;type:varchar(16);not null"`
	SenderId          int64     `gorm:"column:sender_id;not null"`
	CreatedAt         time.Time `gorm:"column:created_at;not null"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
