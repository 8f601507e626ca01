package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	chatRespond "MediaHub/internal/modules/chat/application/dto/respond"
	"MediaHub/internal/modules/chat/domain/entity"
	"MediaHub/internal/modules/chat/domain/repository"
	notificationService "MediaHub/internal/modules/notification/application/service"
	notificationEntity "MediaHub/internal/modules/notification/domain/entity"
	"MediaHub/pkg/util"
	"MediaHub/pkg/xerr"
	"MediaHub/pkg/zlog"

	"go.uber.org/zap"
)

const (
	maxMessageRunes     = 2000
	notifyBodyRunes     = 120
	defaultArchivedPage = 50
	maxArchivedPage     = 200
)

type SendParams struct {
	SenderUserId int64
	SenderName   string
	ChatDocId    string
	Text         string
	AsArtist     bool
}

type ChatService interface {
	SendMessage(ctx context.Context, p SendParams) (*chatRespond.MessageItem, error)
	ListArchived(ctx context.Context, userID int64, chatDocID string, beforeID int64, limit int) (*chatRespond.ArchivedListRespond, error)
	ReadThread(ctx context.Context, userID int64, chatDocID string, asArtist bool) error
}

type chatServiceImpl struct {
	store    repository.HotChatStore
	archive  repository.ChatArchiveRepository
	artists  repository.ArtistDirectory
	notifier notificationService.Notifier
}

// NewChatService notifier 为 nil 时只写消息不发通知
func NewChatService(store repository.HotChatStore, archive repository.ChatArchiveRepository, artists repository.ArtistDirectory, notifier notificationService.Notifier) ChatService {
	return &chatServiceImpl{store: store, archive: archive, artists: artists, notifier: notifier}
}

// party 校验调用者属于该会话，返回会话双方与艺人信息
type party struct {
	artistID int64
	userID   int64
	artist   *entity.Artist
}

func (s *chatServiceImpl) authorize(ctx context.Context, callerID int64, chatDocID string, asArtist bool) (*party, error) {
	artistID, userID, err := entity.ParseChatDocId(chatDocID)
	if err != nil {
		return nil, xerr.New(xerr.BadRequest, "chat_doc_id 格式错误")
	}
	artist, err := s.artists.GetArtist(ctx, artistID)
	if err != nil {
		zlog.Error("get artist failed", zap.Int64("artist_id", artistID), zap.Error(err))
		return nil, xerr.ErrServerError
	}
	if artist == nil {
		return nil, xerr.New(xerr.NotFound, "艺人不存在")
	}

	if asArtist {
		if artist.UserId != callerID {
			return nil, xerr.New(xerr.Forbidden, "无权以该艺人身份发送")
		}
	} else if userID != callerID {
		return nil, xerr.New(xerr.Forbidden, "不是该会话的成员")
	}
	return &party{artistID: artistID, userID: userID, artist: artist}, nil
}

func (s *chatServiceImpl) SendMessage(ctx context.Context, p SendParams) (*chatRespond.MessageItem, error) {
	text := strings.TrimSpace(p.Text)
	if text == "" {
		return nil, xerr.New(xerr.BadRequest, "消息内容不能为空")
	}
	if utf8.RuneCountInString(text) > maxMessageRunes {
		return nil, xerr.New(xerr.BadRequest, "消息内容过长")
	}

	pt, err := s.authorize(ctx, p.SenderUserId, p.ChatDocId, p.AsArtist)
	if err != nil {
		return nil, err
	}
	chatDocID := entity.BuildChatDocId(pt.artistID, pt.userID)

	msg := &entity.HotMessage{ChatDocId: chatDocID, Text: text, SenderType: entity.SenderUser, SenderId: pt.userID}
	if p.AsArtist {
		msg.SenderType = entity.SenderArtist
		msg.SenderId = pt.artistID
	}
	if err := s.store.AppendMessage(ctx, msg); err != nil {
		zlog.Error("append hot message failed", zap.String("chat_doc_id", chatDocID), zap.Error(err))
		return nil, xerr.ErrServerError
	}

	summary := entity.ThreadSummary{
		ChatDocId:      chatDocID,
		ArtistId:       pt.artistID,
		UserId:         pt.userID,
		ArtistName:     pt.artist.Name,
		ArtistAvatar:   pt.artist.AvatarUrl,
		LastMessage:    util.Truncate(text, notifyBodyRunes),
		LastMessageAt:  msg.CreatedAt,
		LastSenderType: msg.SenderType,
	}
	if !p.AsArtist {
		summary.UserName = p.SenderName
	}
	if err := s.store.UpsertThreadSummary(ctx, summary); err != nil {
		zlog.Warn("upsert thread summary failed", zap.String("chat_doc_id", chatDocID), zap.Error(err))
	}

	s.notify(ctx, pt, p, msg)

	item := toMessageItem(*msg)
	item.RecipientId = pt.artist.UserId
	if p.AsArtist {
		item.RecipientId = pt.userID
	}
	return item, nil
}

// notify 通知失败不影响消息发送
func (s *chatServiceImpl) notify(ctx context.Context, pt *party, p SendParams, msg *entity.HotMessage) {
	if s.notifier == nil {
		return
	}
	ev := notificationService.NotifyEvent{
		ChatDocId:      msg.ChatDocId,
		SenderIsArtist: p.AsArtist,
		Kind:           notificationEntity.KindMessage,
		Body:           util.Truncate(msg.Text, notifyBodyRunes),
		Data: map[string]interface{}{
			"message_id":  msg.Id,
			"sender_type": msg.SenderType,
			"artist_id":   pt.artistID,
			"user_id":     pt.userID,
		},
		MessageCount:  1,
		CheckPresence: true,
	}
	if p.AsArtist {
		ev.RecipientUserId = pt.userID
		ev.Title = pt.artist.Name
		artistID := pt.artistID
		ev.SenderArtistId = &artistID
	} else {
		ev.RecipientUserId = pt.artist.UserId
		ev.Title = p.SenderName
		userID := pt.userID
		ev.SenderUserId = &userID
	}
	if strings.TrimSpace(ev.Title) == "" {
		ev.Title = "新消息"
	}

	res, err := s.notifier.Notify(ctx, ev)
	if err != nil {
		zlog.Warn("notify chat message failed", zap.String("chat_doc_id", msg.ChatDocId), zap.Error(err))
		return
	}
	zlog.Debug("chat message notified",
		zap.String("chat_doc_id", msg.ChatDocId), zap.Bool("sent", res.Sent), zap.String("reason", res.Reason))
}

func (s *chatServiceImpl) ListArchived(ctx context.Context, userID int64, chatDocID string, beforeID int64, limit int) (*chatRespond.ArchivedListRespond, error) {
	pt, err := s.authorizeAny(ctx, userID, chatDocID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultArchivedPage
	}
	if limit > maxArchivedPage {
		limit = maxArchivedPage
	}

	rows, err := s.archive.ListByThread(ctx, entity.BuildChatDocId(pt.artistID, pt.userID), beforeID, limit)
	if err != nil {
		zlog.Error("list archived messages failed", zap.String("chat_doc_id", chatDocID), zap.Error(err))
		return nil, xerr.ErrServerError
	}

	out := &chatRespond.ArchivedListRespond{Items: make([]chatRespond.ArchivedMessageItem, 0, len(rows))}
	for _, r := range rows {
		out.Items = append(out.Items, chatRespond.ArchivedMessageItem{
			Id:                r.Id,
			FirebaseMessageId: r.FirebaseMessageId,
			Text:              r.Text,
			SenderType:        r.SenderType,
			SenderId:          r.SenderId,
			CreatedAt:         r.CreatedAt.Format(time.RFC3339),
		})
	}
	if len(rows) == limit {
		out.NextId = rows[len(rows)-1].Id
	}
	return out, nil
}

// authorizeAny 会话中的用户或艺人账号都可以读取
func (s *chatServiceImpl) authorizeAny(ctx context.Context, callerID int64, chatDocID string) (*party, error) {
	pt, err := s.authorize(ctx, callerID, chatDocID, false)
	if err == nil {
		return pt, nil
	}
	if !xerr.IsCode(err, xerr.Forbidden) {
		return nil, err
	}
	return s.authorize(ctx, callerID, chatDocID, true)
}

func (s *chatServiceImpl) ReadThread(ctx context.Context, userID int64, chatDocID string, asArtist bool) error {
	pt, err := s.authorize(ctx, userID, chatDocID, asArtist)
	if err != nil {
		return err
	}
	partyKind := entity.SenderUser
	if asArtist {
		partyKind = entity.SenderArtist
	}
	if err := s.store.ResetUnread(ctx, entity.BuildChatDocId(pt.artistID, pt.userID), partyKind); err != nil {
		zlog.Error("reset unread failed", zap.String("chat_doc_id", chatDocID), zap.Error(err))
		return xerr.ErrServerError
	}
	return nil
}

func toMessageItem(m entity.HotMessage) *chatRespond.MessageItem {
	return &chatRespond.MessageItem{
		Id:         m.Id,
		ChatDocId:  m.ChatDocId,
		Text:       m.Text,
		SenderType: m.SenderType,
		SenderId:   m.SenderId,
		CreatedAt:  m.CreatedAt.Format(time.RFC3339Nano),
	}
}
