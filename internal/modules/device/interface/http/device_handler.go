package handler

import (
	"strconv"
	"time"

	deviceRequest "MediaHub/internal/modules/device/application/dto/request"
	deviceRespond "MediaHub/internal/modules/device/application/dto/respond"
	"MediaHub/internal/modules/device/application/service"
	jwtMiddleware "MediaHub/internal/middleware/jwt"
	"MediaHub/pkg/back"
	"MediaHub/pkg/xerr"
	"MediaHub/pkg/zlog"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DeviceHandler struct {
	svc service.DeviceRegistry
}

func NewDeviceHandler(svc service.DeviceRegistry) *DeviceHandler {
	return &DeviceHandler{svc: svc}
}

func (h *DeviceHandler) Register(c *gin.Context) {
	var req deviceRequest.RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		zlog.Warn("bind register device request failed", zap.Error(err))
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	binding, err := h.svc.Register(c.Request.Context(), service.RegisterParams{
		UserId:     c.GetInt64(jwtMiddleware.ContextUserID),
		DeviceId:   req.DeviceId,
		Platform:   req.Platform,
		Token:      req.FcmToken,
		DeviceName: req.DeviceName,
	})
	if err != nil {
		back.Result(c, nil, err)
		return
	}
	back.Success(c, deviceRespond.UserDeviceItem{
		UserId:     binding.UserId,
		DeviceId:   binding.DeviceId,
		IsActive:   binding.IsActive,
		HasToken:   binding.Token() != "",
		LastSeenAt: binding.LastSeenAt.Format(time.RFC3339),
	})
}

func (h *DeviceHandler) Deregister(c *gin.Context) {
	var req deviceRequest.DeregisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		zlog.Warn("bind deregister device request failed", zap.Error(err))
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	err := h.svc.Deactivate(c.Request.Context(), c.GetInt64(jwtMiddleware.ContextUserID), req.DeviceId)
	back.Result(c, nil, err)
}

func (h *DeviceHandler) ListDevices(c *gin.Context) {
	list, err := h.svc.ListDevices(c.Request.Context(), c.GetInt64(jwtMiddleware.ContextUserID))
	if err != nil {
		back.Result(c, nil, err)
		return
	}
	out := make([]deviceRespond.UserDeviceItem, 0, len(list))
	for _, b := range list {
		out = append(out, deviceRespond.UserDeviceItem{
			UserId:     b.UserId,
			DeviceId:   b.DeviceId,
			IsActive:   b.IsActive,
			HasToken:   b.Token() != "",
			LastSeenAt: b.LastSeenAt.Format(time.RFC3339),
		})
	}
	back.Success(c, out)
}

// GetTokens 内部接口：批量查询用户的 active 推送 token
func (h *DeviceHandler) GetTokens(c *gin.Context) {
	var req deviceRequest.GetTokensRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.UserIds) == 0 {
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	tokens, err := h.svc.TokensFor(c.Request.Context(), req.UserIds)
	if err != nil {
		back.Result(c, nil, err)
		return
	}
	out := make(map[string][]string, len(tokens))
	for uid, list := range tokens {
		out[strconv.FormatInt(uid, 10)] = list
	}
	back.Success(c, deviceRespond.TokensRespond{Tokens: out})
}
