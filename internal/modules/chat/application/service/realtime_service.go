package service

import (
	"context"
	"encoding/json"
	"strings"

	chatRequest "MediaHub/internal/modules/chat/application/dto/request"
	"MediaHub/pkg/xerr"
	"MediaHub/pkg/zlog"

	"go.uber.org/zap"
)

const (
	FramePresence = "presence"
	FrameMessage  = "message"
	FrameError    = "error"
)

// Frame websocket 上行帧
type Frame struct {
	Type      string `json:"type"`
	Screen    string `json:"screen,omitempty"`
	ContextId string `json:"context_id,omitempty"`
	chatRequest.SendMessageRequest
}

type PresenceSetter interface {
	SetPresence(ctx context.Context, userID int64, screen string, contextID string) error
}

// FrameSender 由 websocket hub 实现
type FrameSender interface {
	SendJSON(userID int64, v interface{}) error
}

type RealtimeService interface {
	HandleFrame(ctx context.Context, userID int64, username string, raw []byte)
	// Disconnect 用户最后一个连接断开时清空 presence
	Disconnect(ctx context.Context, userID int64)
}

type realtimeServiceImpl struct {
	presence PresenceSetter
	chat     ChatService
	sender   FrameSender
}

func NewRealtimeService(presence PresenceSetter, chat ChatService, sender FrameSender) RealtimeService {
	return &realtimeServiceImpl{presence: presence, chat: chat, sender: sender}
}

func (s *realtimeServiceImpl) HandleFrame(ctx context.Context, userID int64, username string, raw []byte) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		s.replyError(userID, xerr.ErrParam)
		return
	}

	switch strings.TrimSpace(f.Type) {
	case FramePresence:
		if err := s.presence.SetPresence(ctx, userID, f.Screen, f.ContextId); err != nil {
			s.replyError(userID, err)
		}
	case FrameMessage:
		item, err := s.chat.SendMessage(ctx, SendParams{
			SenderUserId: userID,
			SenderName:   username,
			ChatDocId:    f.ChatDocId,
			Text:         f.Text,
			AsArtist:     f.AsArtist,
		})
		if err != nil {
			s.replyError(userID, err)
			return
		}
		out := map[string]interface{}{"type": FrameMessage, "data": item}
		_ = s.sender.SendJSON(userID, out)
		if item.RecipientId > 0 && item.RecipientId != userID {
			_ = s.sender.SendJSON(item.RecipientId, out)
		}
	default:
		s.replyError(userID, xerr.New(xerr.BadRequest, "unknown frame type"))
	}
}

func (s *realtimeServiceImpl) Disconnect(ctx context.Context, userID int64) {
	if err := s.presence.SetPresence(ctx, userID, "", ""); err != nil {
		zlog.Warn("clear presence on disconnect failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}

func (s *realtimeServiceImpl) replyError(userID int64, err error) {
	msg := xerr.ErrServerError.Message
	if ce, ok := xerr.As(err); ok {
		msg = ce.Message
	}
	_ = s.sender.SendJSON(userID, map[string]interface{}{"type": FrameError, "message": msg})
}
