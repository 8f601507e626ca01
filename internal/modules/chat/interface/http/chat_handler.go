package handler

import (
	"errors"
	"io"

	chatRequest "MediaHub/internal/modules/chat/application/dto/request"
	"MediaHub/internal/modules/chat/application/service"
	jwtMiddleware "MediaHub/internal/middleware/jwt"
	"MediaHub/pkg/back"
	"MediaHub/pkg/xerr"
	"MediaHub/pkg/zlog"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ChatHandler struct {
	svc                service.ChatService
	archiver           service.ChatArchiver
	defaultMaxAgeHours int
}

func NewChatHandler(svc service.ChatService, archiver service.ChatArchiver, defaultMaxAgeHours int) *ChatHandler {
	if defaultMaxAgeHours <= 0 {
		defaultMaxAgeHours = 24
	}
	return &ChatHandler{svc: svc, archiver: archiver, defaultMaxAgeHours: defaultMaxAgeHours}
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req chatRequest.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		zlog.Warn("bind send message request failed", zap.Error(err))
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	item, err := h.svc.SendMessage(c.Request.Context(), service.SendParams{
		SenderUserId: c.GetInt64(jwtMiddleware.ContextUserID),
		SenderName:   c.GetString("username"),
		ChatDocId:    req.ChatDocId,
		Text:         req.Text,
		AsArtist:     req.AsArtist,
	})
	back.Result(c, item, err)
}

func (h *ChatHandler) ListArchived(c *gin.Context) {
	var req chatRequest.ListArchivedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	res, err := h.svc.ListArchived(c.Request.Context(), c.GetInt64(jwtMiddleware.ContextUserID), req.ChatDocId, req.BeforeId, req.Limit)
	back.Result(c, res, err)
}

func (h *ChatHandler) ReadThread(c *gin.Context) {
	var req chatRequest.ReadThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	err := h.svc.ReadThread(c.Request.Context(), c.GetInt64(jwtMiddleware.ContextUserID), req.ChatDocId, req.AsArtist)
	back.Result(c, nil, err)
}

// Archive 内部接口：立即执行一轮归档，max_age_hours 缺省使用配置值
func (h *ChatHandler) Archive(c *gin.Context) {
	var req chatRequest.ArchiveRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	maxAge := h.defaultMaxAgeHours
	if req.MaxAgeHours != nil {
		maxAge = *req.MaxAgeHours
	}
	res, err := h.archiver.Run(c.Request.Context(), maxAge)
	back.Result(c, res, err)
}
