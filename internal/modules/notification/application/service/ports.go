package service

import (
	"context"

	pushDomain "MediaHub/internal/modules/push/domain"
)

// RecipientResolver 根据会话 id 和发送方身份推导收件人
type RecipientResolver interface {
	ResolveRecipient(ctx context.Context, chatDocID string, senderIsArtist bool) (int64, error)
}

type PresenceChecker interface {
	IsOnScreen(ctx context.Context, userID int64, screen string, contextID string) (bool, error)
}

type TokenResolver interface {
	TokensFor(ctx context.Context, userIDs []int64) (map[int64][]string, error)
}

type PushSender interface {
	Send(ctx context.Context, msg pushDomain.Message, tokens []string) (*pushDomain.SendResult, error)
}

// InAppNotifier 向在线的 websocket 连接推送站内通知
type InAppNotifier interface {
	SendJSON(userID int64, v interface{}) error
}
