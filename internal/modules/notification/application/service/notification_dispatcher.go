package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	notificationRespond "MediaHub/internal/modules/notification/application/dto/respond"
	"MediaHub/internal/modules/notification/domain/entity"
	"MediaHub/internal/modules/notification/domain/repository"
	presenceEntity "MediaHub/internal/modules/presence/domain/entity"
	pushDomain "MediaHub/internal/modules/push/domain"
	"MediaHub/pkg/xerr"
	"MediaHub/pkg/zlog"

	"go.uber.org/zap"
)

const (
	ReasonOnScreen  = "recipient on screen"
	ReasonNoDevices = "no active devices"
)

var (
	// ErrRecipientNotFound 收件人无法解析，不重试
	ErrRecipientNotFound = xerr.New(xerr.NotFound, "recipient not found")
	ErrNoRecipient       = xerr.New(xerr.BadRequest, "需要 recipient_user_id 或 chat_doc_id")
)

// NotifyEvent 一次通知派发请求，也是 notify topic 中的消息体
type NotifyEvent struct {
	RecipientUserId int64                  `json:"recipient_user_id,omitempty"`
	ChatDocId       string                 `json:"chat_doc_id,omitempty"`
	SenderIsArtist  bool                   `json:"sender_is_artist,omitempty"`
	Kind            string                 `json:"type"`
	Title           string                 `json:"title"`
	Body            string                 `json:"body"`
	Data            map[string]interface{} `json:"data,omitempty"`
	SenderArtistId  *int64                 `json:"sender_artist_id,omitempty"`
	SenderUserId    *int64                 `json:"sender_user_id,omitempty"`
	LiveStreamId    int64                  `json:"live_stream_id,omitempty"`
	MessageCount    int                    `json:"message_count,omitempty"`
	CheckPresence   bool                   `json:"check_presence,omitempty"`
	RecordInHistory *bool                  `json:"record_in_history,omitempty"`
	ImageUrl        string                 `json:"image_url,omitempty"`
}

func (ev *NotifyEvent) validate() error {
	if strings.TrimSpace(ev.Kind) == "" {
		return xerr.New(xerr.BadRequest, "type 不能为空")
	}
	if strings.TrimSpace(ev.Title) == "" || strings.TrimSpace(ev.Body) == "" {
		return xerr.New(xerr.BadRequest, "title 和 body 不能为空")
	}
	if ev.RecipientUserId <= 0 && strings.TrimSpace(ev.ChatDocId) == "" {
		return ErrNoRecipient
	}
	return nil
}

// presenceTarget 返回该事件对应的页面与上下文，没有时 ok=false
func (ev *NotifyEvent) presenceTarget() (screen string, contextID string, ok bool) {
	if ev.ChatDocId != "" {
		return presenceEntity.ScreenChat, ev.ChatDocId, true
	}
	if ev.LiveStreamId > 0 {
		return presenceEntity.ScreenLiveStream, strconv.FormatInt(ev.LiveStreamId, 10), true
	}
	return "", "", false
}

type NotifyResult struct {
	RecipientUserId int64    `json:"recipient_user_id,omitempty"`
	Recorded        bool     `json:"recorded"`
	NotificationId  int64    `json:"notification_id,omitempty"`
	Sent            bool     `json:"sent"`
	Reason          string   `json:"reason,omitempty"`
	SuccessCount    int      `json:"success_count"`
	FailureCount    int      `json:"failure_count"`
	Total           int      `json:"total"`
	Errors          []string `json:"errors,omitempty"`
	Queued          bool     `json:"queued,omitempty"`
}

// Notifier 派发通知的统一入口，同步派发与经由消息队列派发都实现它
type Notifier interface {
	Notify(ctx context.Context, ev NotifyEvent) (*NotifyResult, error)
}

// RecordPolicy 决定哪些类型写入通知收件箱、哪些类型合并未读
type RecordPolicy struct {
	PushOnlyKinds []string
	CoalesceKinds []string
}

// ShouldRecord override 非空时以其为准
func (p RecordPolicy) ShouldRecord(kind string, override *bool) bool {
	if override != nil {
		return *override
	}
	return !containsKind(p.PushOnlyKinds, kind)
}

func (p RecordPolicy) ShouldCoalesce(kind string) bool {
	return containsKind(p.CoalesceKinds, kind)
}

func containsKind(kinds []string, kind string) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

type notificationDispatcherImpl struct {
	notifRepo repository.UserNotificationRepository
	resolver  RecipientResolver
	presence  PresenceChecker
	tokens    TokenResolver
	sender    PushSender
	recorder  *PushLogRecorder
	policy    RecordPolicy
	inApp     InAppNotifier
	now       func() time.Time
}

// NewNotificationDispatcher resolver、presence、recorder、inApp 可以为 nil
func NewNotificationDispatcher(notifRepo repository.UserNotificationRepository, resolver RecipientResolver, presence PresenceChecker, tokens TokenResolver, sender PushSender, recorder *PushLogRecorder, policy RecordPolicy, inApp InAppNotifier) Notifier {
	return &notificationDispatcherImpl{
		notifRepo: notifRepo,
		resolver:  resolver,
		presence:  presence,
		tokens:    tokens,
		sender:    sender,
		recorder:  recorder,
		policy:    policy,
		inApp:     inApp,
		now:       time.Now,
	}
}

func (d *notificationDispatcherImpl) Notify(ctx context.Context, ev NotifyEvent) (*NotifyResult, error) {
	ev.ChatDocId = strings.TrimSpace(ev.ChatDocId)
	if err := ev.validate(); err != nil {
		return nil, err
	}

	recipient, err := d.resolveRecipient(ctx, ev)
	if err != nil {
		return nil, err
	}
	res := &NotifyResult{RecipientUserId: recipient}

	data := pushDomain.StringifyData(ev.Data)

	// 先落库，推送失败时收件箱里仍然能看到这条通知
	if d.notifRepo != nil && d.policy.ShouldRecord(ev.Kind, ev.RecordInHistory) {
		n, err := d.record(ctx, recipient, ev, data)
		if err != nil {
			zlog.Warn("record user notification failed",
				zap.Int64("recipient", recipient), zap.String("type", ev.Kind), zap.Error(err))
		} else {
			res.Recorded = true
			res.NotificationId = n.Id
			d.pushInApp(recipient, n, data)
		}
	}

	if ev.CheckPresence && d.presence != nil {
		if screen, contextID, ok := ev.presenceTarget(); ok {
			onScreen, err := d.presence.IsOnScreen(ctx, recipient, screen, contextID)
			if err != nil {
				zlog.Warn("presence lookup failed, sending anyway", zap.Int64("recipient", recipient), zap.Error(err))
			} else if onScreen {
				res.Reason = ReasonOnScreen
				return res, nil
			}
		}
	}

	tokenMap, err := d.tokens.TokensFor(ctx, []int64{recipient})
	if err != nil {
		zlog.Error("lookup recipient tokens failed", zap.Int64("recipient", recipient), zap.Error(err))
		return nil, err
	}
	tokens := tokenMap[recipient]
	if len(tokens) == 0 {
		res.Reason = ReasonNoDevices
		return res, nil
	}

	msg := pushDomain.Message{
		Title:    ev.Title,
		Body:     ev.Body,
		Data:     outgoingData(ev, data, res.NotificationId),
		ImageUrl: ev.ImageUrl,
	}

	var sendRes *pushDomain.SendResult
	if d.recorder != nil {
		sendRes, _, err = d.recorder.Track(ctx, d.sender, msg, tokens)
	} else {
		sendRes, err = d.sender.Send(ctx, msg, tokens)
	}
	if err != nil {
		return nil, err
	}

	res.Sent = true
	res.SuccessCount = sendRes.SuccessCount
	res.FailureCount = sendRes.FailureCount
	res.Total = sendRes.Total
	res.Errors = sendRes.Errors
	return res, nil
}

func (d *notificationDispatcherImpl) resolveRecipient(ctx context.Context, ev NotifyEvent) (int64, error) {
	if ev.RecipientUserId > 0 {
		return ev.RecipientUserId, nil
	}
	if d.resolver == nil {
		return 0, ErrRecipientNotFound
	}
	id, err := d.resolver.ResolveRecipient(ctx, ev.ChatDocId, ev.SenderIsArtist)
	if err != nil {
		if _, ok := xerr.As(err); !ok {
			zlog.Warn("resolve recipient failed", zap.String("chat_doc_id", ev.ChatDocId), zap.Error(err))
		}
		return 0, err
	}
	if id <= 0 {
		return 0, ErrRecipientNotFound
	}
	return id, nil
}

func (d *notificationDispatcherImpl) record(ctx context.Context, recipient int64, ev NotifyEvent, data map[string]string) (*entity.UserNotification, error) {
	dataJson := ""
	if len(data) > 0 {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		dataJson = string(b)
	}

	if d.policy.ShouldCoalesce(ev.Kind) {
		existing, err := d.notifRepo.FindUnread(ctx, repository.CoalesceKey{
			RecipientUserId:  recipient,
			NotificationType: ev.Kind,
			ChatDocId:        ev.ChatDocId,
			LiveStreamId:     ev.LiveStreamId,
		})
		if err != nil {
			return nil, err
		}
		if existing != nil {
			incr := ev.MessageCount
			if incr < 1 {
				incr = 1
			}
			if err := d.notifRepo.Coalesce(ctx, existing.Id, ev.Title, ev.Body, dataJson, incr); err != nil {
				return nil, err
			}
			existing.Title = ev.Title
			existing.Body = ev.Body
			existing.DataJson = dataJson
			existing.MessageCount += incr
			existing.UpdatedAt = d.now()
			return existing, nil
		}
	}

	now := d.now()
	n := &entity.UserNotification{
		RecipientUserId:  recipient,
		NotificationType: ev.Kind,
		Title:            ev.Title,
		Body:             ev.Body,
		DataJson:         dataJson,
		SenderArtistId:   ev.SenderArtistId,
		SenderUserId:     ev.SenderUserId,
		MessageCount:     ev.MessageCount,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if n.MessageCount < 1 {
		n.MessageCount = 1
	}
	if ev.ChatDocId != "" {
		chatDocID := ev.ChatDocId
		n.ChatDocId = &chatDocID
	}
	if ev.LiveStreamId > 0 {
		streamID := ev.LiveStreamId
		n.LiveStreamId = &streamID
	}
	if err := d.notifRepo.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (d *notificationDispatcherImpl) pushInApp(recipient int64, n *entity.UserNotification, data map[string]string) {
	if d.inApp == nil {
		return
	}
	item := ToNotificationItem(*n)
	item.Data = data
	frame := map[string]interface{}{"type": "notification", "data": item}
	if err := d.inApp.SendJSON(recipient, frame); err != nil {
		zlog.Warn("push in-app notification failed", zap.Int64("recipient", recipient), zap.Error(err))
	}
}

// outgoingData 附加客户端用于关联收件箱的字段
func outgoingData(ev NotifyEvent, data map[string]string, notificationID int64) map[string]string {
	out := make(map[string]string, len(data)+4)
	for k, v := range data {
		out[k] = v
	}
	out["type"] = ev.Kind
	if notificationID > 0 {
		out["notification_id"] = strconv.FormatInt(notificationID, 10)
	}
	if ev.ChatDocId != "" {
		out["chat_doc_id"] = ev.ChatDocId
	}
	if ev.LiveStreamId > 0 {
		out["live_stream_id"] = strconv.FormatInt(ev.LiveStreamId, 10)
	}
	return out
}

// ToNotificationItem 实体转列表项，data_json 解析失败时忽略
func ToNotificationItem(n entity.UserNotification) notificationRespond.NotificationItem {
	item := notificationRespond.NotificationItem{
		Id:               n.Id,
		NotificationType: n.NotificationType,
		Title:            n.Title,
		Body:             n.Body,
		IsRead:           n.IsRead(),
		SenderArtistId:   n.SenderArtistId,
		SenderUserId:     n.SenderUserId,
		MessageCount:     n.MessageCount,
		CreatedAt:        n.CreatedAt.Format(time.RFC3339),
	}
	if n.ReadAt != nil {
		item.ReadAt = n.ReadAt.Format(time.RFC3339)
	}
	if n.ChatDocId != nil {
		item.ChatDocId = *n.ChatDocId
	}
	if n.LiveStreamId != nil {
		item.LiveStreamId = *n.LiveStreamId
	}
	if n.DataJson != "" {
		var data map[string]string
		if err := json.Unmarshal([]byte(n.DataJson), &data); err == nil {
			item.Data = data
		}
	}
	return item
}

// IsPermanent 不应重试的派发错误（参数错误、收件人不存在）
func IsPermanent(err error) bool {
	return errors.Is(err, ErrRecipientNotFound) || xerr.IsCode(err, xerr.BadRequest) || xerr.IsCode(err, xerr.NotFound)
}
