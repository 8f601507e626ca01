package entity

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidChatDocId = errors.New("invalid chat doc id")

// BuildChatDocId 会话 id 固定为 "<artistId>_<userId>"
func BuildChatDocId(artistID, userID int64) string {
	return strconv.FormatInt(artistID, 10) + "_" + strconv.FormatInt(userID, 10)
}

func ParseChatDocId(id string) (artistID int64, userID int64, err error) {
	left, right, ok := strings.Cut(strings.TrimSpace(id), "_")
	if !ok {
		return 0, 0, ErrInvalidChatDocId
	}
	artistID, err = strconv.ParseInt(left, 10, 64)
	if err != nil || artistID <= 0 {
		return 0, 0, ErrInvalidChatDocId
	}
	userID, err = strconv.ParseInt(right, 10, 64)
	if err != nil || userID <= 0 {
		return 0, 0, ErrInvalidChatDocId
	}
	return artistID, userID, nil
}

// ChatThread 热存储中的会话文档
type ChatThread struct {
	ChatDocId      string
	ArtistId       int64
	UserId         int64
	ArtistName     string
	ArtistAvatar   string
	UserName       string
	UserAvatar     string
	LastMessage    string
	LastMessageAt  time.Time
	LastSenderType string
	UnreadArtist   int
	UnreadUser     int
}

// HotMessage 热存储中的一条消息，Id 与 CreatedAt 由服务端分配
type HotMessage struct {
	Id         string
	ChatDocId  string
	Text       string
	SenderType string
	SenderId   int64
	CreatedAt  time.Time
}

// ThreadSummary 每次发送消息后需要刷新的会话摘要
type ThreadSummary struct {
	ChatDocId      string
	ArtistId       int64
	UserId         int64
	ArtistName     string
	ArtistAvatar   string
	UserName       string
	LastMessage    string
	LastMessageAt  time.Time
	LastSenderType string
}
