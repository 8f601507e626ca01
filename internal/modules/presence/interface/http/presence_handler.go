package handler

import (
	jwtMiddleware "MediaHub/internal/middleware/jwt"
	presenceRequest "MediaHub/internal/modules/presence/application/dto/request"
	"MediaHub/internal/modules/presence/application/service"
	"MediaHub/pkg/back"
	"MediaHub/pkg/xerr"

	"github.com/gin-gonic/gin"
)

type PresenceHandler struct {
	svc service.PresenceTracker
}

func NewPresenceHandler(svc service.PresenceTracker) *PresenceHandler {
	return &PresenceHandler{svc: svc}
}

// Update 客户端心跳上报当前页面，screen 为空表示离开
func (h *PresenceHandler) Update(c *gin.Context) {
	var req presenceRequest.UpdatePresenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	err := h.svc.SetPresence(c.Request.Context(), c.GetInt64(jwtMiddleware.ContextUserID), req.Screen, req.ContextId)
	back.Result(c, nil, err)
}
