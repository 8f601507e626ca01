package handler

import (
	"errors"
	"io"

	notificationRequest "MediaHub/internal/modules/notification/application/dto/request"
	notificationRespond "MediaHub/internal/modules/notification/application/dto/respond"
	"MediaHub/internal/modules/notification/application/service"
	jwtMiddleware "MediaHub/internal/middleware/jwt"
	"MediaHub/pkg/back"
	"MediaHub/pkg/util"
	"MediaHub/pkg/xerr"
	"MediaHub/pkg/zlog"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	history   service.NotificationHistory
	notifier  service.Notifier
	broadcast service.BroadcastService
}

func NewNotificationHandler(history service.NotificationHistory, notifier service.Notifier, broadcast service.BroadcastService) *NotificationHandler {
	return &NotificationHandler{history: history, notifier: notifier, broadcast: broadcast}
}

func (h *NotificationHandler) List(c *gin.Context) {
	var req notificationRequest.ListNotificationRequest
	// 允许空请求体，使用默认分页
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	res, err := h.history.List(c.Request.Context(), c.GetInt64(jwtMiddleware.ContextUserID), req.UnreadOnly, req.Page, req.PageSize)
	back.Result(c, res, err)
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	n, err := h.history.UnreadCount(c.Request.Context(), c.GetInt64(jwtMiddleware.ContextUserID))
	if err != nil {
		back.Result(c, nil, err)
		return
	}
	back.Success(c, notificationRespond.UnreadCountRespond{Count: n})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	var req notificationRequest.MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	n, err := h.history.MarkRead(c.Request.Context(), c.GetInt64(jwtMiddleware.ContextUserID), req.Ids)
	if err != nil {
		back.Result(c, nil, err)
		return
	}
	back.Success(c, notificationRespond.MarkReadRespond{Updated: n})
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	n, err := h.history.MarkAllRead(c.Request.Context(), c.GetInt64(jwtMiddleware.ContextUserID))
	if err != nil {
		back.Result(c, nil, err)
		return
	}
	back.Success(c, notificationRespond.MarkReadRespond{Updated: n})
}

// Notify 内部接口
func (h *NotificationHandler) Notify(c *gin.Context) {
	var req notificationRequest.NotifyRequest
	if err := bindJSONKeepNumbers(c, &req); err != nil {
		zlog.Warn("bind notify request failed", zap.Error(err))
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	res, err := h.notifier.Notify(c.Request.Context(), service.NotifyEvent{
		RecipientUserId: req.RecipientUserId,
		ChatDocId:       req.ChatDocId,
		SenderIsArtist:  req.SenderIsArtist,
		Kind:            req.Type,
		Title:           req.Title,
		Body:            req.Body,
		Data:            req.Data,
		SenderArtistId:  req.SenderArtistId,
		SenderUserId:    req.SenderUserId,
		LiveStreamId:    req.LiveStreamId,
		MessageCount:    req.MessageCount,
		CheckPresence:   req.CheckPresence,
		RecordInHistory: req.RecordInHistory,
		ImageUrl:        req.ImageUrl,
	})
	back.Result(c, res, err)
}

// SendBatch 内部接口：部分失败体现在计数里，只有参数错误才返回错误码
func (h *NotificationHandler) SendBatch(c *gin.Context) {
	var req notificationRequest.SendBatchRequest
	if err := bindJSONKeepNumbers(c, &req); err != nil {
		zlog.Warn("bind send batch request failed", zap.Error(err))
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	res, err := h.broadcast.Send(c.Request.Context(), service.BroadcastParams{
		Title:    req.Title,
		Body:     req.Body,
		Data:     req.Data,
		ImageUrl: req.ImageUrl,
		Tokens:   req.Tokens,
		UserIds:  req.UserIds,
	})
	back.Result(c, res, err)
}

// bindJSONKeepNumbers 与 ShouldBindJSON 相同，但 data 中的数字保留为 json.Number
func bindJSONKeepNumbers(c *gin.Context, obj any) error {
	if c.Request == nil || c.Request.Body == nil {
		return errors.New("invalid request")
	}
	if err := util.DecodeJSON(c.Request.Body, obj); err != nil {
		return err
	}
	return binding.Validator.ValidateStruct(obj)
}
